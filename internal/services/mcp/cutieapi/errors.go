package cutieapi

import (
	"errors"
	"fmt"
)

var (
	// ErrAPIKeyRequired reports a client constructed without an API key.
	ErrAPIKeyRequired = errors.New("api key is required")
	// ErrInvalidBaseURL reports a base URL that cannot address the API.
	ErrInvalidBaseURL = errors.New("invalid base url")
)

// APIError is returned for responses outside the 2xx range.
type APIError struct {
	StatusCode int
	// Message is the remote error text, or a truncated raw body when the
	// response carries no error field.
	Message string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return e.Message
}
