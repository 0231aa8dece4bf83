package domain

import "github.com/google/jsonschema-go/jsonschema"

func stringProperty(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func numberProperty(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: description}
}

func booleanProperty(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: description}
}

// objectSchema builds a tool input schema. A nil properties map yields an
// argument-less tool.
func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if properties == nil {
		properties = map[string]*jsonschema.Schema{}
	}
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
	}
	if len(required) > 0 {
		schema.Required = required
	}
	return schema
}
