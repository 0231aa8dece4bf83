package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidArguments reports tool arguments that cannot form an API request.
var ErrInvalidArguments = errors.New("invalid arguments")

// Arguments holds the decoded argument object of one tool call. Numbers are
// kept as json.Number and rendered in canonical decimal form for queries.
type Arguments map[string]any

// ParseArguments decodes a raw argument object. Empty input and JSON null
// decode to an empty set.
func ParseArguments(raw json.RawMessage) (Arguments, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Arguments{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var args map[string]any
	if err := decoder.Decode(&args); err != nil {
		return nil, fmt.Errorf("%w: arguments must be a JSON object: %v", ErrInvalidArguments, err)
	}
	if args == nil {
		return Arguments{}, nil
	}
	return Arguments(args), nil
}

// Has reports whether name was supplied, including an explicit null.
func (a Arguments) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// RequiredString returns a non-blank string argument.
func (a Arguments) RequiredString(name string) (string, error) {
	value, ok := a[name]
	if !ok || value == nil {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArguments, name)
	}
	text, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArguments, name)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArguments, name)
	}
	return text, nil
}

// Truthy reports whether name holds a value that counts as set: a non-empty
// string, a non-zero number, or true.
func (a Arguments) Truthy(name string) bool {
	_, ok, _ := a.scalar(name)
	return ok
}

// scalar renders a set scalar argument as query text. ok is false for absent
// or empty values; err is set for objects and arrays.
func (a Arguments) scalar(name string) (text string, ok bool, err error) {
	switch value := a[name].(type) {
	case nil:
		return "", false, nil
	case string:
		return value, value != "", nil
	case bool:
		return "true", value, nil
	case json.Number:
		f, parseErr := strconv.ParseFloat(value.String(), 64)
		if parseErr != nil {
			return value.String(), true, nil
		}
		if f == 0 {
			return "", false, nil
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true, nil
	case float64:
		if value == 0 {
			return "", false, nil
		}
		return strconv.FormatFloat(value, 'f', -1, 64), true, nil
	default:
		return "", false, fmt.Errorf("%w: %s must be a string, number, or boolean", ErrInvalidArguments, name)
	}
}
