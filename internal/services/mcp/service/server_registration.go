package service

import (
	"fmt"

	"github.com/cuti-e/cutie-mcp/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mcpRegistrationModule struct {
	name        string
	definitions func() []domain.ToolDefinition
}

const (
	mcpConversationToolsModuleName = "conversation-tools"
	mcpAppToolsModuleName          = "app-tools"
	mcpAnalyticsToolsModuleName    = "analytics-tools"
	mcpAccountToolsModuleName      = "account-tools"
)

// newMCPRegistrationModules lists tool groups in the order clients discover them.
func newMCPRegistrationModules() []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{name: mcpConversationToolsModuleName, definitions: domain.ConversationTools},
		{name: mcpAppToolsModuleName, definitions: domain.AppTools},
		{name: mcpAnalyticsToolsModuleName, definitions: domain.AnalyticsTools},
		{name: mcpAccountToolsModuleName, definitions: domain.AccountTools},
	}
}

// registrationDefinitions flattens the registration modules into one ordered list.
func registrationDefinitions(modules []mcpRegistrationModule) []domain.ToolDefinition {
	var all []domain.ToolDefinition
	for _, module := range modules {
		all = append(all, module.definitions()...)
	}
	return all
}

// registerTools adds every dispatcher tool to server, routing calls through
// the shared dispatcher handler.
func registerTools(server *mcp.Server, modules []mcpRegistrationModule, dispatcher *domain.Dispatcher) error {
	registered := make(map[string]string)
	for _, module := range modules {
		for _, definition := range module.definitions() {
			if definition.Tool == nil {
				return fmt.Errorf("register MCP module %q: tool is required", module.name)
			}
			if owner, exists := registered[definition.Tool.Name]; exists {
				return fmt.Errorf("register MCP module %q: tool %q already registered by %q", module.name, definition.Tool.Name, owner)
			}
			registered[definition.Tool.Name] = module.name
			server.AddTool(definition.Tool, dispatcher.Handle)
		}
	}
	return nil
}
