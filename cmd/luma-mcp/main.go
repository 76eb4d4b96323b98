// Command luma-mcp serves the Luma Dream Machine generation API as MCP
// tools over stdio (default) or a streamable HTTP endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sweetpotato0/luma-mcp/config"
	"github.com/sweetpotato0/luma-mcp/luma"
	"github.com/sweetpotato0/luma-mcp/pkg/logging"
	"github.com/sweetpotato0/luma-mcp/pkg/telemetry"
	"github.com/sweetpotato0/luma-mcp/server"
)

const version = "0.1.0"

func main() {
	transport := flag.String("t", "stdio", "Transport type (stdio or http)")
	host := flag.String("host", "127.0.0.1", "Host to bind for the HTTP transport")
	port := flag.Int("port", 8080, "Port to bind for the HTTP transport")
	path := flag.String("path", "/mcp", "HTTP path used for the MCP streamable endpoint")
	flag.Parse()

	// Best effort: a missing .env simply means the environment is already set.
	_ = godotenv.Load()

	logger := logging.WithComponent("main")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "luma-mcp",
		ServiceVersion: version,
		Disable:        cfg.DisableTelemetry,
	})
	if err != nil {
		logger.Error("init telemetry failed", "error", err)
		os.Exit(1)
	}
	defer shutdown(context.Background())

	client := luma.NewClient(cfg.APIKey,
		luma.WithBaseURL(cfg.BaseURL),
		luma.WithHTTPClient(&http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	)

	srv := server.New(cfg, client)

	switch *transport {
	case "stdio":
		logger.Info("serving MCP over stdio", "version", version)
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			logger.Error("stdio server stopped", "error", err)
			os.Exit(1)
		}
	case "http":
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			if r.URL.Path == *path {
				return srv
			}
			return nil
		}, nil)

		mux := http.NewServeMux()
		mux.Handle(*path, handler)

		addr := fmt.Sprintf("%s:%d", *host, *port)
		httpSrv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			<-ctx.Done()
			httpSrv.Shutdown(context.Background())
		}()

		logger.Info("serving MCP streamable endpoint", "addr", addr, "path", *path, "version", version)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server stopped", "error", err)
			os.Exit(1)
		}
	default:
		logger.Error("unknown transport", "transport", *transport)
		os.Exit(1)
	}
}
