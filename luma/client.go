package luma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/luma-mcp/pkg/logging"
	"github.com/sweetpotato0/luma-mcp/pkg/telemetry"
)

const (
	imageGenerationsPath = "/dream-machine/v1/generations/image"
	videoGenerationsPath = "/dream-machine/v1/generations"

	// maxAssetSize caps downloads of generated artifacts (32 MiB).
	maxAssetSize = 32 << 20
)

// Client talks to the Dream Machine API. The API key and base URL are fixed
// at construction; the underlying *http.Client provides the shared
// connection pool for every concurrent job.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a Client for the given API key. The key is passed in
// explicitly rather than read from the environment so tests can run with
// fake credentials.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: "https://api.lumalabs.ai",
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logging.WithComponent("luma"),
		tracer: otel.Tracer("luma-mcp/luma"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitImage validates the request, submits an image generation job and
// returns the pending Generation issued by the API.
func (c *Client) SubmitImage(ctx context.Context, req ImageRequest) (gen *Generation, err error) {
	ctx, span := c.tracer.Start(ctx, "luma.SubmitImage",
		trace.WithAttributes(attribute.String("luma.model", string(req.Model))))
	defer func() { telemetry.End(span, err) }()

	if err = req.Validate(); err != nil {
		return nil, err
	}
	gen, err = c.submit(ctx, imageGenerationsPath, imagePayload(req))
	if err != nil {
		return nil, err
	}
	c.logger.Info("image generation submitted", "generation_id", gen.ID, "model", req.Model)
	return gen, nil
}

// SubmitVideo validates the request, submits a video generation job and
// returns the pending Generation issued by the API.
func (c *Client) SubmitVideo(ctx context.Context, req VideoRequest) (gen *Generation, err error) {
	ctx, span := c.tracer.Start(ctx, "luma.SubmitVideo",
		trace.WithAttributes(attribute.String("luma.model", string(req.Model))))
	defer func() { telemetry.End(span, err) }()

	if err = req.Validate(); err != nil {
		return nil, err
	}
	gen, err = c.submit(ctx, videoGenerationsPath, videoPayload(req))
	if err != nil {
		return nil, err
	}
	c.logger.Info("video generation submitted", "generation_id", gen.ID, "model", req.Model)
	return gen, nil
}

// GetGeneration fetches the current state of a job by its identifier.
func (c *Client) GetGeneration(ctx context.Context, id string) (*Generation, error) {
	var gen Generation
	if err := c.do(ctx, http.MethodGet, videoGenerationsPath+"/"+id, nil, &gen); err != nil {
		return nil, err
	}
	return &gen, nil
}

// Download fetches a generated artifact from its CDN URL and returns the
// raw bytes with the reported content type. No auth header is sent: asset
// URLs are pre-signed.
func (c *Client) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build asset request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &RemoteError{StatusCode: resp.StatusCode, Message: "asset download failed"}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return nil, "", fmt.Errorf("read asset: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}

func (c *Client) submit(ctx context.Context, path string, payload any) (*Generation, error) {
	var gen Generation
	if err := c.do(ctx, http.MethodPost, path, payload, &gen); err != nil {
		return nil, err
	}
	if gen.ID == "" {
		return nil, &RemoteError{Message: "submission response carries no generation id"}
	}
	if gen.Status == "" {
		gen.Status = StatusPending
	}
	return &gen, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{StatusCode: resp.StatusCode, Message: remoteMessage(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &RemoteError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("malformed response body: %v", err)}
		}
	}
	return nil
}

// remoteMessage extracts the provider's error detail when present, falling
// back to the raw body.
func remoteMessage(raw []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	if msg == "" {
		msg = "no error detail provided"
	}
	return msg
}
