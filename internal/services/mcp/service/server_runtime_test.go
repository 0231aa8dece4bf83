package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cuti-e/cutie-mcp/internal/services/mcp/cutieapi"
	"github.com/cuti-e/cutie-mcp/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type recordedCall struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

// fakeCutieAPI answers every request with a fixed status and body while
// recording what it received.
type fakeCutieAPI struct {
	mu     sync.Mutex
	calls  []recordedCall
	status int
	body   string
}

func (f *fakeCutieAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := recordedCall{
		method: r.Method,
		path:   r.URL.EscapedPath(),
		query:  r.URL.RawQuery,
		auth:   r.Header.Get("Authorization"),
	}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &call.body)
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, f.body)
}

func (f *fakeCutieAPI) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func newTestAPIClient(t *testing.T, api *fakeCutieAPI, metrics *Metrics) *cutieapi.Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	var opts []cutieapi.Option
	if metrics != nil {
		opts = append(opts, cutieapi.WithObserver(metrics))
	}
	client, err := cutieapi.New(srv.URL, "test-key", opts...)
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}
	return client
}

// connectInMemory serves server over in-memory transports and returns a
// connected client session. The server stops when the test ends.
func connectInMemory(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer connectCancel()
	session, err := client.Connect(connectCtx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect client: %v", err)
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-serveErr:
			if err != nil {
				t.Errorf("serve returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("serve did not stop after cancel")
		}
		_ = session.Close()
	})
	return session
}

func callResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) != 1 {
		t.Fatalf("unexpected result: %#v", result)
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want *mcp.TextContent", result.Content[0])
	}
	return text.Text
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatal("expected error for missing api client")
	}
}

func TestServerListsToolsInCatalogOrder(t *testing.T) {
	server, err := New(newTestAPIClient(t, &fakeCutieAPI{body: `{}`}, nil), nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	session := connectInMemory(t, server)

	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	var got []string
	for _, tool := range result.Tools {
		got = append(got, tool.Name)
	}
	var want []string
	for _, definition := range domain.Catalog() {
		want = append(want, definition.Tool.Name)
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("tools = %v, want %v", got, want)
	}
}

func TestServerCallToolForwardsToAPI(t *testing.T) {
	api := &fakeCutieAPI{status: http.StatusCreated, body: `{"message":{"id":"msg_1"}}`}
	metrics := NewMetrics()
	server, err := New(newTestAPIClient(t, api, metrics), metrics)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	session := connectInMemory(t, server)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: domain.SendReplyToolName,
		Arguments: map[string]any{
			"conversation_id":  "conv_1",
			"message":          "hi",
			"is_internal_note": true,
		},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", callResultText(t, result))
	}
	want := "{\n  \"message\": {\n    \"id\": \"msg_1\"\n  }\n}"
	if got := callResultText(t, result); got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}

	calls := api.recorded()
	if len(calls) != 1 {
		t.Fatalf("api calls = %d, want 1", len(calls))
	}
	call := calls[0]
	if call.method != http.MethodPost || call.path != "/v1/conversations/conv_1/messages" {
		t.Fatalf("request = %s %s", call.method, call.path)
	}
	if call.auth != "Bearer test-key" {
		t.Fatalf("authorization = %q", call.auth)
	}
	if call.body["message"] != "hi" || call.body["is_internal_note"] != true {
		t.Fatalf("body = %v", call.body)
	}

	if got := testutil.ToFloat64(metrics.toolCalls.WithLabelValues(domain.SendReplyToolName, domain.OutcomeOK)); got != 1 {
		t.Fatalf("tool call counter = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(metrics.apiDurations); got != 1 {
		t.Fatalf("api duration series = %d, want 1", got)
	}
}

func TestServerCallToolReportsAPIError(t *testing.T) {
	api := &fakeCutieAPI{status: http.StatusNotFound, body: `{"error":"Conversation not found"}`}
	server, err := New(newTestAPIClient(t, api, nil), nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	session := connectInMemory(t, server)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      domain.GetConversationToolName,
		Arguments: map[string]any{"conversation_id": "conv_missing"},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got, want := callResultText(t, result), "Cuti-E API error: Conversation not found"; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestServerCallToolMissingArgumentSkipsAPI(t *testing.T) {
	api := &fakeCutieAPI{body: `{}`}
	server, err := New(newTestAPIClient(t, api, nil), nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	session := connectInMemory(t, server)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      domain.GetAppToolName,
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if len(api.recorded()) != 0 {
		t.Fatalf("api calls = %d, want 0", len(api.recorded()))
	}
}

func TestServerCallUnknownToolReturnsErrorResult(t *testing.T) {
	api := &fakeCutieAPI{body: `{}`}
	metrics := NewMetrics()
	server, err := New(newTestAPIClient(t, api, metrics), metrics)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	session := connectInMemory(t, server)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "nope",
		Arguments: map[string]any{"conversation_id": "conv_1"},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got, want := callResultText(t, result), "Unknown tool: nope"; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
	if len(api.recorded()) != 0 {
		t.Fatalf("api calls = %d, want 0", len(api.recorded()))
	}
	if got := testutil.ToFloat64(metrics.toolCalls.WithLabelValues("nope", domain.OutcomeUnknownTool)); got != 1 {
		t.Fatalf("unknown tool counter = %v, want 1", got)
	}
}

func TestRunUnsupportedTransport(t *testing.T) {
	err := Run(context.Background(), &cutieapi.Client{}, nil, Config{Transport: "websocket"})
	if err == nil {
		t.Fatal("expected error for unsupported transport")
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Errorf("expected 'not supported' in error, got: %v", err)
	}
}

type failingTransport struct{}

func (failingTransport) Connect(context.Context) (mcp.Connection, error) {
	return nil, errors.New("transport unavailable")
}

func TestServeWithTransportErrors(t *testing.T) {
	var nilServer *Server
	if err := nilServer.serveWithTransport(context.Background(), &mcp.StdioTransport{}); err == nil {
		t.Fatal("expected error for nil server")
	}

	emptyServer := &Server{}
	if err := emptyServer.serveWithTransport(context.Background(), &mcp.StdioTransport{}); err == nil {
		t.Fatal("expected error for missing mcp server")
	}

	server, err := New(&cutieapi.Client{}, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := server.serveWithTransport(context.Background(), failingTransport{}); err == nil {
		t.Fatal("expected error from failing transport")
	}
}

func TestRegisterToolsRejectsDuplicates(t *testing.T) {
	modules := []mcpRegistrationModule{
		{name: "first", definitions: domain.AppTools},
		{name: "second", definitions: domain.AppTools},
	}
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "1.0"}, nil)
	dispatcher := domain.NewDispatcher(nil, registrationDefinitions(modules))
	err := registerTools(server, modules, dispatcher)
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("error = %v, want duplicate registration error", err)
	}
}
