package domain

import (
	"github.com/cuti-e/cutie-mcp/internal/platform/id"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Correlation keys placed in tool result metadata.
const (
	RequestIDMetaKey    = "x-request-id"
	InvocationIDMetaKey = "x-invocation-id"
)

// ToolCallMetadata carries correlation identifiers for MCP tool calls.
type ToolCallMetadata struct {
	RequestID    string
	InvocationID string
}

// NewInvocationID generates an invocation identifier for a tool call.
func NewInvocationID() (string, error) {
	return id.NewID()
}

// applyMetadata records non-empty correlation ids on result.
func applyMetadata(result *mcp.CallToolResult, meta ToolCallMetadata) *mcp.CallToolResult {
	if result == nil {
		return nil
	}
	if meta.RequestID == "" && meta.InvocationID == "" {
		return result
	}
	result.Meta = map[string]any{}
	if meta.RequestID != "" {
		result.Meta[RequestIDMetaKey] = meta.RequestID
	}
	if meta.InvocationID != "" {
		result.Meta[InvocationIDMetaKey] = meta.InvocationID
	}
	return result
}
