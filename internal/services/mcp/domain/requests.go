package domain

import (
	"net/http"
	"net/url"

	"github.com/cuti-e/cutie-mcp/internal/services/mcp/cutieapi"
)

// RequestBuilder maps tool arguments to one API request.
type RequestBuilder func(Arguments) (cutieapi.Request, error)

var (
	listConversationsFilters = []string{"status", "priority", "app_id", "search", "category", "assigned_to", "limit", "offset", "sort"}
	updateConversationFields = []string{"status", "priority", "assigned_admin_id", "title", "category"}
)

// ListConversationsRequest builds GET /v1/conversations with the set filters.
func ListConversationsRequest(args Arguments) (cutieapi.Request, error) {
	query, err := queryFrom(args, listConversationsFilters...)
	if err != nil {
		return cutieapi.Request{}, err
	}
	return cutieapi.Request{Method: http.MethodGet, Path: "/v1/conversations", Query: query}, nil
}

// GetConversationRequest builds GET /v1/conversations/{id}.
func GetConversationRequest(args Arguments) (cutieapi.Request, error) {
	path, err := conversationPath(args, "")
	if err != nil {
		return cutieapi.Request{}, err
	}
	return cutieapi.Request{Method: http.MethodGet, Path: path}, nil
}

// SendReplyRequest builds POST /v1/conversations/{id}/messages.
func SendReplyRequest(args Arguments) (cutieapi.Request, error) {
	path, err := conversationPath(args, "/messages")
	if err != nil {
		return cutieapi.Request{}, err
	}
	message, err := args.RequiredString("message")
	if err != nil {
		return cutieapi.Request{}, err
	}
	body := map[string]any{"message": message}
	if args.Truthy("is_internal_note") {
		body["is_internal_note"] = true
	}
	return cutieapi.Request{Method: http.MethodPost, Path: path, Body: body}, nil
}

// UpdateConversationRequest builds PATCH /v1/conversations/{id}. Only supplied
// fields are sent; an explicit null assigned_admin_id unassigns.
func UpdateConversationRequest(args Arguments) (cutieapi.Request, error) {
	path, err := conversationPath(args, "")
	if err != nil {
		return cutieapi.Request{}, err
	}
	body := map[string]any{}
	for _, field := range updateConversationFields {
		if args.Has(field) {
			body[field] = args[field]
		}
	}
	return cutieapi.Request{Method: http.MethodPatch, Path: path, Body: body}, nil
}

// DeleteConversationRequest builds DELETE /v1/conversations/{id}.
func DeleteConversationRequest(args Arguments) (cutieapi.Request, error) {
	path, err := conversationPath(args, "")
	if err != nil {
		return cutieapi.Request{}, err
	}
	return cutieapi.Request{Method: http.MethodDelete, Path: path}, nil
}

// ListAppsRequest builds GET /v1/apps.
func ListAppsRequest(Arguments) (cutieapi.Request, error) {
	return cutieapi.Request{Method: http.MethodGet, Path: "/v1/apps"}, nil
}

// GetAppRequest builds GET /v1/apps/{id}.
func GetAppRequest(args Arguments) (cutieapi.Request, error) {
	appID, err := args.RequiredString("app_id")
	if err != nil {
		return cutieapi.Request{}, err
	}
	return cutieapi.Request{Method: http.MethodGet, Path: "/v1/apps/" + url.PathEscape(appID)}, nil
}

// GetDashboardRequest builds GET /v1/analytics/dashboard.
func GetDashboardRequest(args Arguments) (cutieapi.Request, error) {
	query, err := queryFrom(args, "period")
	if err != nil {
		return cutieapi.Request{}, err
	}
	return cutieapi.Request{Method: http.MethodGet, Path: "/v1/analytics/dashboard", Query: query}, nil
}

// ListTeamRequest builds GET /v1/team.
func ListTeamRequest(Arguments) (cutieapi.Request, error) {
	return cutieapi.Request{Method: http.MethodGet, Path: "/v1/team"}, nil
}

// GetCustomerRequest builds GET /v1/customer.
func GetCustomerRequest(Arguments) (cutieapi.Request, error) {
	return cutieapi.Request{Method: http.MethodGet, Path: "/v1/customer"}, nil
}

func conversationPath(args Arguments, suffix string) (string, error) {
	conversationID, err := args.RequiredString("conversation_id")
	if err != nil {
		return "", err
	}
	return "/v1/conversations/" + url.PathEscape(conversationID) + suffix, nil
}

// queryFrom copies the set scalar arguments named by keys into a query.
func queryFrom(args Arguments, keys ...string) (url.Values, error) {
	query := url.Values{}
	for _, key := range keys {
		text, ok, err := args.scalar(key)
		if err != nil {
			return nil, err
		}
		if ok {
			query.Set(key, text)
		}
	}
	return query, nil
}
