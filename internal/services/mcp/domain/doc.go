// Package domain translates MCP tool calls into Cuti-E admin API requests.
//
// The mapping is kept declarative:
// - each tool has a descriptor (name, description, input schema),
// - each tool has a request builder that turns arguments into method, path,
//   query, and body,
// - and the dispatcher performs one API call per invocation and renders the
//   outcome as an MCP tool result.
package domain
