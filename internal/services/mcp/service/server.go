package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cuti-e/cutie-mcp/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "cutie-mcp"
	// serverVersion identifies the MCP server version.
	serverVersion = "1.0.0"
	// methodCallTool is the MCP method name for tool invocations.
	methodCallTool = "tools/call"
	// defaultHTTPAddr keeps the HTTP transport on loopback unless configured.
	defaultHTTPAddr = "localhost:8081"
)

// Version returns the version reported to MCP clients.
func Version() string {
	return serverVersion
}

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over streamable HTTP for remote clients.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	// HTTPAddr is the listen address for the HTTP transport. Defaults to localhost:8081.
	HTTPAddr string
	// AuthToken, when set, is required as a bearer token on HTTP requests.
	AuthToken string
	// AllowedHosts extends the loopback-only Host/Origin allow-list.
	AllowedHosts []string
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	metrics   *Metrics
}

// New creates an MCP server whose tools forward to client. metrics may be nil.
func New(client domain.APIClient, metrics *Metrics) (*Server, error) {
	if client == nil {
		return nil, errors.New("api client is required")
	}
	modules := newMCPRegistrationModules()

	var opts []domain.DispatcherOption
	if metrics != nil {
		opts = append(opts, domain.WithToolObserver(metrics))
	}
	dispatcher := domain.NewDispatcher(client, registrationDefinitions(modules), opts...)

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	if err := registerTools(mcpServer, modules, dispatcher); err != nil {
		return nil, err
	}
	mcpServer.AddReceivingMiddleware(unknownToolMiddleware(dispatcher))
	return &Server{mcpServer: mcpServer, metrics: metrics}, nil
}

// unknownToolMiddleware answers tools/call for undeclared names with the
// dispatcher's error-flagged result instead of a JSON-RPC error.
func unknownToolMiddleware(dispatcher *domain.Dispatcher) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodCallTool {
				return next(ctx, method, req)
			}
			call, ok := req.(*mcp.CallToolRequest)
			if !ok || call.Params == nil || dispatcher.Has(call.Params.Name) {
				return next(ctx, method, req)
			}
			return dispatcher.Call(ctx, call.Params.Name, call.Params.Arguments), nil
		}
	}
}

// Run is the service entrypoint for MCP and blocks until context cancellation
// or the client disconnects.
func Run(ctx context.Context, client domain.APIClient, metrics *Metrics, cfg Config) error {
	transport := TransportKind(strings.ToLower(strings.TrimSpace(string(cfg.Transport))))
	if transport == "" {
		transport = TransportStdio
	}
	if transport != TransportStdio && transport != TransportHTTP {
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}

	server, err := New(client, metrics)
	if err != nil {
		return err
	}
	switch transport {
	case TransportHTTP:
		return server.ServeHTTP(ctx, cfg)
	default:
		return server.Serve(ctx)
	}
}

// Serve starts the MCP server on stdio and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// ServeHTTP starts the streamable HTTP transport and blocks until the context ends.
func (s *Server) ServeHTTP(ctx context.Context, cfg Config) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = defaultHTTPAddr
	}
	transport := NewHTTPTransport(addr, s.mcpServer,
		WithAuthToken(cfg.AuthToken),
		WithAllowedHosts(cfg.AllowedHosts),
		WithMetrics(s.metrics),
	)
	return transport.Start(ctx)
}

// serveWithTransport starts the MCP server using the provided transport.
// Cancellation is a clean shutdown.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
