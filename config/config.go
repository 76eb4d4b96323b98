// Package config loads the process configuration for the Luma MCP server
// from environment variables and validates it before anything else starts.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names understood by Load.
const (
	EnvAPIKey           = "LUMA_API_KEY"
	EnvBaseURL          = "LUMA_BASE_URL"
	EnvPollInterval     = "LUMA_POLL_INTERVAL"
	EnvImageTimeout     = "LUMA_IMAGE_TIMEOUT"
	EnvVideoTimeout     = "LUMA_VIDEO_TIMEOUT"
	EnvRequestTimeout   = "LUMA_REQUEST_TIMEOUT"
	EnvMaxConcurrency   = "LUMA_MAX_CONCURRENCY"
	EnvEmbedAssets      = "LUMA_EMBED_ASSETS"
	EnvDisableTelemetry = "LUMA_OTEL_DISABLE"
)

// Defaults applied when the corresponding variable is unset. The polling
// ceilings reflect the provider's documented latencies: images typically
// finish in 5-15s, videos in 15-60s.
const (
	DefaultBaseURL        = "https://api.lumalabs.ai"
	DefaultPollInterval   = 3 * time.Second
	DefaultImageTimeout   = 30 * time.Second
	DefaultVideoTimeout   = 90 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxConcurrency = 4
)

// Config holds the runtime configuration for the server. All fields are
// read-only after Load returns.
type Config struct {
	// APIKey is the Luma API secret forwarded as a bearer token. Required.
	APIKey string

	// BaseURL is the root of the Dream Machine API.
	BaseURL string

	// PollInterval is the fixed delay between generation status queries.
	PollInterval time.Duration

	// ImageTimeout and VideoTimeout are the overall polling ceilings per
	// job kind. RequestTimeout bounds each individual HTTP call and is
	// enforced independently of the ceilings.
	ImageTimeout   time.Duration
	VideoTimeout   time.Duration
	RequestTimeout time.Duration

	// MaxConcurrency bounds the number of generations in flight at once.
	MaxConcurrency int

	// EmbedAssets controls whether completed images (and video thumbnails)
	// are downloaded and embedded in the tool result as image content.
	EmbedAssets bool

	// DisableTelemetry turns off the OpenTelemetry trace exporter.
	DisableTelemetry bool
}

// Load reads the configuration from the environment, applies defaults and
// validates the result. A missing API key is fatal: the server must not
// start without credentials.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:           os.Getenv(EnvAPIKey),
		BaseURL:          envOr(EnvBaseURL, DefaultBaseURL),
		MaxConcurrency:   DefaultMaxConcurrency,
		EmbedAssets:      true,
		DisableTelemetry: false,
	}

	var err error
	if cfg.PollInterval, err = envDuration(EnvPollInterval, DefaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.ImageTimeout, err = envDuration(EnvImageTimeout, DefaultImageTimeout); err != nil {
		return nil, err
	}
	if cfg.VideoTimeout, err = envDuration(EnvVideoTimeout, DefaultVideoTimeout); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = envDuration(EnvRequestTimeout, DefaultRequestTimeout); err != nil {
		return nil, err
	}
	if raw := os.Getenv(EnvMaxConcurrency); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, ValidationError{Field: EnvMaxConcurrency, Message: fmt.Sprintf("invalid integer %q", raw)}
		}
		cfg.MaxConcurrency = n
	}
	if cfg.EmbedAssets, err = envBool(EnvEmbedAssets, true); err != nil {
		return nil, err
	}
	if cfg.DisableTelemetry, err = envBool(EnvDisableTelemetry, false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants and aggregates violations
// into a single error.
func (c *Config) Validate() error {
	v := NewValidator()

	v.RequireNonEmpty(EnvAPIKey, c.APIKey)
	v.RequireNonEmpty(EnvBaseURL, c.BaseURL)
	v.RequirePositiveDuration(EnvPollInterval, c.PollInterval)
	v.RequirePositiveDuration(EnvImageTimeout, c.ImageTimeout)
	v.RequirePositiveDuration(EnvVideoTimeout, c.VideoTimeout)
	v.RequirePositiveDuration(EnvRequestTimeout, c.RequestTimeout)
	v.ValidateRange(EnvMaxConcurrency, c.MaxConcurrency, 1, 64)

	return v.Error()
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, ValidationError{Field: key, Message: fmt.Sprintf("invalid duration %q", raw)}
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, ValidationError{Field: key, Message: fmt.Sprintf("invalid boolean %q", raw)}
	}
	return b, nil
}
