package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/cuti-e/cutie-mcp/internal/services/mcp/cutieapi"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidwall/pretty"
)

// ErrUnknownTool reports a call to a tool that is not in the catalogue.
var ErrUnknownTool = errors.New("unknown tool")

// Outcome labels recorded for each tool invocation.
const (
	OutcomeOK               = "ok"
	OutcomeUnknownTool      = "unknown_tool"
	OutcomeInvalidArguments = "invalid_arguments"
	OutcomeAPIError         = "api_error"
	OutcomeTransportError   = "transport_error"
)

// APIClient performs one Cuti-E API round trip.
type APIClient interface {
	Do(ctx context.Context, req cutieapi.Request) (cutieapi.Response, error)
}

// ToolObserver receives the outcome of every tool invocation.
type ToolObserver interface {
	ObserveTool(tool, outcome string)
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithToolObserver registers an observer for tool outcomes.
func WithToolObserver(observer ToolObserver) DispatcherOption {
	return func(d *Dispatcher) {
		d.observer = observer
	}
}

// WithInvocationIDs overrides invocation id generation.
func WithInvocationIDs(next func() (string, error)) DispatcherOption {
	return func(d *Dispatcher) {
		if next != nil {
			d.newInvocationID = next
		}
	}
}

// Dispatcher routes tool calls to API requests. It holds no per-call state
// and is safe for concurrent use.
type Dispatcher struct {
	client          APIClient
	definitions     []ToolDefinition
	byName          map[string]ToolDefinition
	observer        ToolObserver
	newInvocationID func() (string, error)
}

// NewDispatcher returns a dispatcher for definitions, in order. Later
// definitions with a duplicate name are ignored.
func NewDispatcher(client APIClient, definitions []ToolDefinition, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		client:          client,
		byName:          make(map[string]ToolDefinition, len(definitions)),
		newInvocationID: NewInvocationID,
	}
	for _, definition := range definitions {
		if definition.Tool == nil || definition.Build == nil {
			continue
		}
		if _, exists := d.byName[definition.Tool.Name]; exists {
			continue
		}
		d.byName[definition.Tool.Name] = definition
		d.definitions = append(d.definitions, definition)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Definitions returns the registered tool definitions in order.
func (d *Dispatcher) Definitions() []ToolDefinition {
	out := make([]ToolDefinition, len(d.definitions))
	copy(out, d.definitions)
	return out
}

// Has reports whether name is a registered tool.
func (d *Dispatcher) Has(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// Tools returns the registered tool descriptors in order.
func (d *Dispatcher) Tools() []*mcp.Tool {
	tools := make([]*mcp.Tool, 0, len(d.definitions))
	for _, definition := range d.definitions {
		tools = append(tools, definition.Tool)
	}
	return tools
}

// Handle adapts Call to the MCP SDK tool handler signature. Failures are
// reported inside the result, so the returned error is always nil.
func (d *Dispatcher) Handle(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req == nil || req.Params == nil {
		return d.Call(ctx, "", nil), nil
	}
	return d.Call(ctx, req.Params.Name, req.Params.Arguments), nil
}

// Call runs the named tool with raw JSON arguments and performs at most one
// API request. Every failure is returned as an error-flagged result.
func (d *Dispatcher) Call(ctx context.Context, name string, rawArgs json.RawMessage) *mcp.CallToolResult {
	if ctx == nil {
		ctx = context.Background()
	}
	var meta ToolCallMetadata
	if invocationID, err := d.newInvocationID(); err == nil {
		meta.InvocationID = invocationID
	} else {
		log.Printf("generate invocation id: tool=%s err=%v", name, err)
	}

	definition, ok := d.byName[name]
	if !ok {
		d.observe(name, OutcomeUnknownTool)
		log.Printf("tool call failed: tool=%s invocation=%s err=%v", name, meta.InvocationID, ErrUnknownTool)
		return applyMetadata(errorResult(fmt.Sprintf("Unknown tool: %s", name)), meta)
	}

	args, err := ParseArguments(rawArgs)
	if err != nil {
		return d.fail(name, meta, err)
	}
	request, err := definition.Build(args)
	if err != nil {
		return d.fail(name, meta, err)
	}
	if d.client == nil {
		return d.fail(name, meta, fmt.Errorf("api client is not configured"))
	}

	response, err := d.client.Do(ctx, request)
	meta.RequestID = response.RequestID
	if err != nil {
		return d.fail(name, meta, err)
	}

	d.observe(name, OutcomeOK)
	return applyMetadata(&mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(response.Body)}},
	}, meta)
}

func (d *Dispatcher) fail(name string, meta ToolCallMetadata, err error) *mcp.CallToolResult {
	outcome := outcomeFor(err)
	d.observe(name, outcome)
	log.Printf("tool call failed: tool=%s invocation=%s request=%s err=%v", name, meta.InvocationID, meta.RequestID, err)
	return applyMetadata(errorResult("Cuti-E API error: "+errorText(err)), meta)
}

func (d *Dispatcher) observe(name, outcome string) {
	if d.observer != nil {
		d.observer.ObserveTool(name, outcome)
	}
}

func outcomeFor(err error) string {
	var apiErr *cutieapi.APIError
	switch {
	case errors.Is(err, ErrInvalidArguments):
		return OutcomeInvalidArguments
	case errors.As(err, &apiErr):
		return OutcomeAPIError
	default:
		return OutcomeTransportError
	}
}

// errorText reports the API message alone when the failure came from the
// API, so wrapping context added by callers is not shown to clients.
func errorText(err error) string {
	var apiErr *cutieapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// formatJSON renders a response body with two-space indentation.
func formatJSON(body json.RawMessage) string {
	if len(body) == 0 {
		return "null"
	}
	formatted := pretty.PrettyOptions(body, &pretty.Options{Indent: "  "})
	return string(bytes.TrimRight(formatted, "\n"))
}
