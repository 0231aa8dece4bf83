package service

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/cuti-e/cutie-mcp/internal/platform/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var listenTCP = net.Listen

// HTTPTransport serves MCP over streamable HTTP.
type HTTPTransport struct {
	addr         string
	allowedHosts map[string]struct{}
	apiToken     string
	server       *mcp.Server
	metrics      *Metrics
	httpServer   *http.Server
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithAuthToken requires a bearer token on /mcp and /metrics. Empty disables it.
func WithAuthToken(token string) HTTPOption {
	return func(t *HTTPTransport) {
		t.apiToken = strings.TrimSpace(token)
	}
}

// WithAllowedHosts adds non-loopback hosts accepted in Host and Origin headers.
func WithAllowedHosts(hosts []string) HTTPOption {
	return func(t *HTTPTransport) {
		t.allowedHosts = parseAllowedHosts(hosts)
	}
}

// WithMetrics exposes metrics on GET /metrics.
func WithMetrics(metrics *Metrics) HTTPOption {
	return func(t *HTTPTransport) {
		t.metrics = metrics
	}
}

// NewHTTPTransport creates a transport for server. It defaults to
// localhost-only binding.
func NewHTTPTransport(addr string, server *mcp.Server, opts ...HTTPOption) *HTTPTransport {
	if addr == "" {
		addr = defaultHTTPAddr
	}
	t := &HTTPTransport{
		addr:         addr,
		allowedHosts: map[string]struct{}{},
		server:       server,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Handler builds the HTTP routes. Every route enforces the host allow-list.
func (t *HTTPTransport) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(t.requireLocalRequest)

	r.Get("/mcp/health", t.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(t.requireToken)
		if t.server != nil {
			mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
				return t.server
			}, nil)
			r.Handle("/mcp", mcpHandler)
		}
		if t.metrics != nil {
			r.Get("/metrics", t.metrics.Handler().ServeHTTP)
		}
	})
	return r
}

// Start starts the HTTP server and blocks until ctx ends or the server fails.
func (t *HTTPTransport) Start(ctx context.Context) error {
	if t.server == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	t.httpServer = &http.Server{
		Addr:              t.addr,
		Handler:           t.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	listener, err := listenTCP("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", t.addr, err)
	}
	log.Printf("Starting MCP HTTP server on %s", listener.Addr())

	errChan := make(chan error, 1)
	go func() {
		if err := t.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("Shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := t.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}
