package domain

import "github.com/modelcontextprotocol/go-sdk/mcp"

// ToolDefinition pairs a tool descriptor with its request builder.
type ToolDefinition struct {
	Tool  *mcp.Tool
	Build RequestBuilder
}

// ConversationTools returns the conversation tools in catalogue order.
func ConversationTools() []ToolDefinition {
	return []ToolDefinition{
		{Tool: ListConversationsTool(), Build: ListConversationsRequest},
		{Tool: GetConversationTool(), Build: GetConversationRequest},
		{Tool: SendReplyTool(), Build: SendReplyRequest},
		{Tool: UpdateConversationTool(), Build: UpdateConversationRequest},
		{Tool: DeleteConversationTool(), Build: DeleteConversationRequest},
	}
}

// AppTools returns the app tools in catalogue order.
func AppTools() []ToolDefinition {
	return []ToolDefinition{
		{Tool: ListAppsTool(), Build: ListAppsRequest},
		{Tool: GetAppTool(), Build: GetAppRequest},
	}
}

// AnalyticsTools returns the analytics tools.
func AnalyticsTools() []ToolDefinition {
	return []ToolDefinition{
		{Tool: GetDashboardTool(), Build: GetDashboardRequest},
	}
}

// AccountTools returns the team and customer tools.
func AccountTools() []ToolDefinition {
	return []ToolDefinition{
		{Tool: ListTeamTool(), Build: ListTeamRequest},
		{Tool: GetCustomerTool(), Build: GetCustomerRequest},
	}
}

// Catalog returns every tool in the order clients discover them.
func Catalog() []ToolDefinition {
	var all []ToolDefinition
	all = append(all, ConversationTools()...)
	all = append(all, AppTools()...)
	all = append(all, AnalyticsTools()...)
	all = append(all, AccountTools()...)
	return all
}
