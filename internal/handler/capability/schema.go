package capability

import (
	"fmt"
)

// Property is one field of a parameter schema.
type Property struct {
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Default     interface{} `json:"default,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
	Minimum     *float64    `json:"minimum,omitempty"`
	Maximum     *float64    `json:"maximum,omitempty"`
}

// Schema is a minimal JSON-schema-shaped parameter contract. Parameters
// are validated against it before the capability executes.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Validate checks params against the schema and returns human-readable
// violations. Unknown parameters are rejected.
func (s Schema) Validate(params map[string]interface{}) []string {
	var errs []string
	for _, name := range s.Required {
		if _, ok := params[name]; !ok {
			errs = append(errs, fmt.Sprintf("missing required parameter %q", name))
		}
	}
	for name, val := range params {
		prop, ok := s.Properties[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("unknown parameter %q", name))
			continue
		}
		if err := checkType(name, prop.Type, val); err != "" {
			errs = append(errs, err)
		}
	}
	return errs
}

func checkType(name, typ string, val interface{}) string {
	switch typ {
	case "string":
		if _, ok := val.(string); !ok {
			return fmt.Sprintf("parameter %q must be a string", name)
		}
	case "number":
		switch val.(type) {
		case float64, int, int64:
		default:
			return fmt.Sprintf("parameter %q must be a number", name)
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Sprintf("parameter %q must be a boolean", name)
		}
	}
	return ""
}

// StringParam reads a string parameter, falling back to def when absent.
func StringParam(params map[string]interface{}, name, def string) string {
	if v, ok := params[name].(string); ok {
		return v
	}
	return def
}

// BoolParam reads a boolean parameter, falling back to def when absent.
func BoolParam(params map[string]interface{}, name string, def bool) bool {
	if v, ok := params[name].(bool); ok {
		return v
	}
	return def
}
