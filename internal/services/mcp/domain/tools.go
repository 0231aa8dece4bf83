package domain

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names exposed to MCP clients.
const (
	ListConversationsToolName  = "list_conversations"
	GetConversationToolName    = "get_conversation"
	SendReplyToolName          = "send_reply"
	UpdateConversationToolName = "update_conversation"
	DeleteConversationToolName = "delete_conversation"
	ListAppsToolName           = "list_apps"
	GetAppToolName             = "get_app"
	GetDashboardToolName       = "get_dashboard"
	ListTeamToolName           = "list_team"
	GetCustomerToolName        = "get_customer"
)

const (
	statusValues   = "open, in_progress, waiting_user, waiting_admin, resolved, closed"
	priorityValues = "low, normal, high, urgent"
	categoryValues = "bug, feature, question, feedback, other"
)

// ListConversationsTool defines the MCP tool schema for listing conversations.
func ListConversationsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ListConversationsToolName,
		Description: "List conversations with optional filters. Returns conversations with status, priority, unread counts, and pagination.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"status":      stringProperty("Filter by status: " + statusValues),
			"priority":    stringProperty("Filter by priority: " + priorityValues),
			"app_id":      stringProperty("Filter by app ID"),
			"search":      stringProperty("Search in conversation titles and messages"),
			"category":    stringProperty("Filter by category: " + categoryValues),
			"assigned_to": stringProperty("Filter by assigned admin ID"),
			"limit":       numberProperty("Max results (default: 50)"),
			"offset":      numberProperty("Pagination offset (default: 0)"),
			"sort":        stringProperty("Sort by: last_message, created, updated (default: last_message)"),
		}),
	}
}

// GetConversationTool defines the MCP tool schema for reading one conversation.
func GetConversationTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        GetConversationToolName,
		Description: "Get a single conversation with its messages and tags.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"conversation_id": stringProperty("The conversation ID (conv_...)"),
		}, "conversation_id"),
	}
}

// SendReplyTool defines the MCP tool schema for replying in a conversation.
func SendReplyTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        SendReplyToolName,
		Description: "Send a reply message in a conversation. Can be a visible reply or an internal note.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"conversation_id":  stringProperty("The conversation ID to reply to"),
			"message":          stringProperty("The message text"),
			"is_internal_note": booleanProperty("If true, message is only visible to admins (default: false)"),
		}, "conversation_id", "message"),
	}
}

// UpdateConversationTool defines the MCP tool schema for conversation updates.
func UpdateConversationTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        UpdateConversationToolName,
		Description: "Update conversation status, priority, assignment, title, or category.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"conversation_id":   stringProperty("The conversation ID to update"),
			"status":            stringProperty("New status: " + statusValues),
			"priority":          stringProperty("New priority: " + priorityValues),
			"assigned_admin_id": stringProperty("Admin ID to assign, or null to unassign"),
			"title":             stringProperty("New conversation title"),
			"category":          stringProperty("New category: " + categoryValues),
		}, "conversation_id"),
	}
}

// DeleteConversationTool defines the MCP tool schema for closing a conversation.
func DeleteConversationTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        DeleteConversationToolName,
		Description: "Close/delete a conversation.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"conversation_id": stringProperty("The conversation ID to delete"),
		}, "conversation_id"),
	}
}

// ListAppsTool defines the MCP tool schema for listing apps.
func ListAppsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ListAppsToolName,
		Description: "List all registered apps for the current team, with usage stats.",
		InputSchema: objectSchema(nil),
	}
}

// GetAppTool defines the MCP tool schema for reading one app.
func GetAppTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        GetAppToolName,
		Description: "Get details for a specific app including configuration and notification settings.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"app_id": stringProperty("The app ID (app_...)"),
		}, "app_id"),
	}
}

// GetDashboardTool defines the MCP tool schema for the analytics dashboard.
func GetDashboardTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        GetDashboardToolName,
		Description: "Get analytics dashboard with conversation stats, response times, breakdowns by category/status/priority/app, daily trends, and team activity.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"period": stringProperty("Time period: 7d, 30d, 90d, all (default: 30d)"),
		}),
	}
}

// ListTeamTool defines the MCP tool schema for listing team members.
func ListTeamTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ListTeamToolName,
		Description: "List all team members with their roles.",
		InputSchema: objectSchema(nil),
	}
}

// GetCustomerTool defines the MCP tool schema for the current customer.
func GetCustomerTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        GetCustomerToolName,
		Description: "Get current team/customer info including tier, mascot settings, and brand color.",
		InputSchema: objectSchema(nil),
	}
}
