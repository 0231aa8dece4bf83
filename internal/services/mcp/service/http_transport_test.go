package service

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cuti-e/cutie-mcp/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func newTestHTTPTransport(t *testing.T, opts ...HTTPOption) (*HTTPTransport, *fakeCutieAPI) {
	t.Helper()
	api := &fakeCutieAPI{body: `{"customer":{"tier":"pro"}}`}
	metrics := NewMetrics()
	server, err := New(newTestAPIClient(t, api, metrics), metrics)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	opts = append([]HTTPOption{WithMetrics(metrics)}, opts...)
	return NewHTTPTransport("", server.mcpServer, opts...), api
}

func doRequest(t *testing.T, handler http.Handler, method, target, host string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Host = host
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestNewHTTPTransportDefaultsToLoopback(t *testing.T) {
	transport := NewHTTPTransport("", nil)
	if transport.addr != "localhost:8081" {
		t.Fatalf("addr = %q, want localhost:8081", transport.addr)
	}
}

func TestHTTPHealth(t *testing.T) {
	transport, _ := newTestHTTPTransport(t, WithAuthToken("secret"))
	rec := doRequest(t, transport.Handler(), http.MethodGet, "/mcp/health", "localhost:8081", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Fatalf("body = %q, want OK", rec.Body.String())
	}
}

func TestHTTPRejectsForeignHosts(t *testing.T) {
	transport, _ := newTestHTTPTransport(t, WithAllowedHosts([]string{"mcp.internal"}))
	handler := transport.Handler()

	tests := []struct {
		name    string
		host    string
		headers map[string]string
		want    int
	}{
		{name: "loopback", host: "127.0.0.1:8081", want: http.StatusOK},
		{name: "ipv6 loopback", host: "[::1]:8081", want: http.StatusOK},
		{name: "allowed host", host: "MCP.internal:8081", want: http.StatusOK},
		{name: "foreign host", host: "evil.example", want: http.StatusForbidden},
		{name: "foreign origin", host: "localhost", headers: map[string]string{"Origin": "https://evil.example"}, want: http.StatusForbidden},
		{name: "malformed origin", host: "localhost", headers: map[string]string{"Origin": "not a url"}, want: http.StatusForbidden},
		{name: "local origin", host: "localhost", headers: map[string]string{"Origin": "http://localhost:3000"}, want: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, handler, http.MethodGet, "/mcp/health", tc.host, tc.headers)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestHTTPMetricsRequireToken(t *testing.T) {
	transport, _ := newTestHTTPTransport(t, WithAuthToken("secret"))
	handler := transport.Handler()

	rec := doRequest(t, handler, http.MethodGet, "/metrics", "localhost", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("WWW-Authenticate = %q", rec.Header().Get("WWW-Authenticate"))
	}

	rec = doRequest(t, handler, http.MethodGet, "/metrics", "localhost", map[string]string{"Authorization": "Bearer wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/metrics", "localhost", map[string]string{"Authorization": "Bearer secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHTTPMetricsWithoutToken(t *testing.T) {
	transport, _ := newTestHTTPTransport(t)
	transport.metrics.ObserveTool(domain.ListTeamToolName, domain.OutcomeOK)

	rec := doRequest(t, transport.Handler(), http.MethodGet, "/metrics", "localhost", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cutie_mcp_tool_calls_total") {
		t.Fatalf("metrics output missing tool counter: %s", rec.Body.String())
	}
}

type bearerRoundTripper struct {
	token string
	next  http.RoundTripper
}

func (b bearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(clone)
}

func TestHTTPStreamableSession(t *testing.T) {
	transport, api := newTestHTTPTransport(t, WithAuthToken("secret"))
	srv := httptest.NewServer(transport.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   srv.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearerRoundTripper{token: "secret", next: http.DefaultTransport}},
	}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: domain.GetCustomerToolName})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", callResultText(t, result))
	}
	if got := callResultText(t, result); !strings.Contains(got, "\"tier\": \"pro\"") {
		t.Fatalf("text = %q", got)
	}
	if calls := api.recorded(); len(calls) != 1 || calls[0].path != "/v1/customer" {
		t.Fatalf("api calls = %+v", calls)
	}
}

func TestHTTPStreamableRejectsMissingToken(t *testing.T) {
	transport, _ := newTestHTTPTransport(t, WithAuthToken("secret"))
	srv := httptest.NewServer(transport.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestHTTPTransportStartStops(t *testing.T) {
	transport, _ := newTestHTTPTransport(t)
	transport.addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- transport.Start(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("start did not stop after cancel")
	}
}

func TestHTTPTransportStartListenError(t *testing.T) {
	original := listenTCP
	t.Cleanup(func() { listenTCP = original })
	listenTCP = func(string, string) (net.Listener, error) {
		return nil, &net.OpError{Op: "listen", Err: io.ErrClosedPipe}
	}

	transport, _ := newTestHTTPTransport(t)
	if err := transport.Start(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}

func TestHTTPTransportStartRequiresServer(t *testing.T) {
	if err := NewHTTPTransport("", nil).Start(context.Background()); err == nil {
		t.Fatal("expected error for missing server")
	}
}
