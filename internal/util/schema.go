package util

import (
	"fmt"
	"reflect"
	"strings"
)

// ValidationError reports a function call argument that does not match the
// tool's parameter schema.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

var jsonTypes = map[reflect.Kind]string{
	reflect.String:  "string",
	reflect.Bool:    "boolean",
	reflect.Float32: "number",
	reflect.Float64: "number",
	reflect.Slice:   "array",
	reflect.Array:   "array",
	reflect.Map:     "object",
	reflect.Struct:  "object",
}

// CreateSchema derives an object schema from the exported fields of a struct.
// Fields are named by their json tag; all fields except pointers and
// omitempty fields are required.
func CreateSchema(structType any) map[string]any {
	schema := map[string]any{"type": "object"}
	props := map[string]any{}
	schema["properties"] = props

	t := reflect.TypeOf(structType)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return schema
	}

	var required []string
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}

		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}

		prop := map[string]any{"type": jsonType(f.Type)}
		if d := f.Tag.Get("description"); d != "" {
			prop["description"] = d
		}
		props[name] = prop

		if f.Type.Kind() != reflect.Pointer && !strings.Contains(","+opts+",", ",omitempty,") {
			required = append(required, name)
		}
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	}
	if s, ok := jsonTypes[t.Kind()]; ok {
		return s
	}
	return "string"
}

// ValidateParameters checks decoded function call arguments against schema:
// required fields must be present and typed fields must match. Unknown
// fields and nil values pass.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, name := range requiredFields(schema) {
		if _, ok := params[name]; !ok {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	props, _ := schema["properties"].(map[string]any)
	for name, value := range params {
		prop, _ := props[name].(map[string]any)
		want, _ := prop["type"].(string)
		if want == "" || value == nil || matchesType(value, want) {
			continue
		}
		return &ValidationError{
			Field:   name,
			Value:   value,
			Message: fmt.Sprintf("expected type %s, got %T", want, value),
		}
	}

	return nil
}

// requiredFields accepts both []string (reflected schemas) and []any
// (JSON decoded schemas).
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func matchesType(value any, want string) bool {
	v := reflect.ValueOf(value)

	switch want {
	case "string":
		return v.Kind() == reflect.String
	case "boolean":
		return v.Kind() == reflect.Bool
	case "integer":
		if v.CanInt() || v.CanUint() {
			return true
		}
		// decoded JSON numbers are float64
		return v.CanFloat() && v.Float() == float64(int64(v.Float()))
	case "number":
		return v.CanInt() || v.CanUint() || v.CanFloat()
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	}
	return true
}
