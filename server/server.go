// Package server exposes the Luma generation API as MCP tools. It owns
// parameter defaulting, the submit-then-poll orchestration and the mapping
// of client errors to structured tool errors.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/luma-mcp/config"
	"github.com/sweetpotato0/luma-mcp/luma"
	"github.com/sweetpotato0/luma-mcp/pkg/logging"
)

// API is the slice of the Luma client the tool handlers use. *luma.Client
// implements it; tests substitute fakes.
type API interface {
	SubmitImage(ctx context.Context, req luma.ImageRequest) (*luma.Generation, error)
	SubmitVideo(ctx context.Context, req luma.VideoRequest) (*luma.Generation, error)
	GetGeneration(ctx context.Context, id string) (*luma.Generation, error)
	Download(ctx context.Context, url string) ([]byte, string, error)
}

type handler struct {
	api    API
	poller *luma.Poller
	logger *slog.Logger

	imageCeiling time.Duration
	videoCeiling time.Duration
	embedAssets  bool

	// sem bounds the number of generations in flight across all tool
	// invocations; they share only this bound and the HTTP pool.
	sem chan struct{}
}

// Option customises the tool handlers.
type Option func(*handler)

// WithPoller replaces the poller, mainly so tests can inject a clock.
func WithPoller(p *luma.Poller) Option {
	return func(h *handler) { h.poller = p }
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *handler) { h.logger = l }
}

// New builds the MCP server with the create_image and create_video tools
// registered.
func New(cfg *config.Config, api API, opts ...Option) *mcp.Server {
	h := &handler{
		api:          api,
		poller:       luma.NewPoller(api, cfg.PollInterval),
		logger:       logging.WithComponent("server"),
		imageCeiling: cfg.ImageTimeout,
		videoCeiling: cfg.VideoTimeout,
		embedAssets:  cfg.EmbedAssets,
		sem:          make(chan struct{}, cfg.MaxConcurrency),
	}
	for _, opt := range opts {
		opt(h)
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "luma-mcp",
		Version: "0.1.0",
		Title:   "Luma generative media",
	}, nil)

	h.addCreateImage(srv)
	h.addCreateVideo(srv)

	return srv
}

func (h *handler) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *handler) release() { <-h.sem }

// toolError converts a taxonomy error into a structured tool error result.
// Cancellation is the one case reported to the protocol itself: the caller
// withdrew the invocation, there is nobody to format a payload for.
func (h *handler) toolError(ctx context.Context, tool string, err error) (*mcp.CallToolResult, any, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, nil, err
	}
	kind := errorKind(err)
	h.logger.Warn("tool call failed", "tool", tool, "kind", kind, "error", err)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: kind + ": " + err.Error()},
		},
	}, nil, nil
}

func errorKind(err error) string {
	switch {
	case luma.IsValidationError(err):
		return "validation_error"
	case luma.IsTimeoutError(err):
		return "timeout_error"
	case luma.IsRemoteError(err):
		return "remote_error"
	default:
		return "internal_error"
	}
}

// assetContent downloads a generated artifact and wraps it as embeddable
// image content. Failures degrade to the URL-only text response.
func (h *handler) assetContent(ctx context.Context, url string) []mcp.Content {
	if !h.embedAssets || url == "" {
		return nil
	}
	data, contentType, err := h.api.Download(ctx, url)
	if err != nil {
		h.logger.Warn("asset download failed", "url", url, "error", err)
		return nil
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}
	return []mcp.Content{&mcp.ImageContent{Data: data, MIMEType: contentType}}
}
