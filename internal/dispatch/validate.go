package dispatch

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Outcome is the result of a structural validation. Always a value, never a
// panic: an unresolvable schema is reported as invalid.
type Outcome struct {
	Valid   bool
	Message string
}

func pass() Outcome { return Outcome{Valid: true, Message: "ok"} }

func fail(path, format string, args ...any) Outcome {
	msg := fmt.Sprintf(format, args...)
	if path != "" {
		msg = path + ": " + msg
	}
	return Outcome{Valid: false, Message: msg}
}

// ValidateInput checks tool arguments against the tool's input schema.
// Extra properties are accepted unless the schema is marked strict.
func ValidateInput(args map[string]any, schema *SchemaNode) Outcome {
	if schema == nil {
		return pass()
	}
	return validateNode(args, schema, nil, "arguments")
}

// ValidateOutput checks a handler result against the tool's output schema,
// resolving $refs through the shared definitions table. An empty table is
// fine as long as the schema contains no refs.
func ValidateOutput(result any, schema *SchemaNode, defs DefinitionsTable) Outcome {
	if schema == nil {
		return pass()
	}
	return validateNode(result, schema, defs, "result")
}

// validateNode checks value against schema. First failure wins — no error
// aggregation.
func validateNode(value any, schema *SchemaNode, defs DefinitionsTable, path string) Outcome {
	if schema.Ref != "" {
		resolved, ok := resolveRef(schema.Ref, defs)
		if !ok {
			return fail(path, "unresolved $ref %q", schema.Ref)
		}
		return validateNode(value, resolved, defs, path)
	}

	switch schema.Type {
	case "", "any":
		return pass()
	case "object":
		return validateObject(value, schema, defs, path)
	case "array":
		return validateArray(value, schema, defs, path)
	case "string":
		s, ok := value.(string)
		if !ok {
			return fail(path, "expected string, got %T", value)
		}
		return validateEnum(s, schema, path)
	case "number":
		if !isNumber(value) {
			return fail(path, "expected number, got %T", value)
		}
		return pass()
	case "integer":
		if !isInteger(value) {
			return fail(path, "expected integer, got %v (%T)", value, value)
		}
		return pass()
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fail(path, "expected boolean, got %T", value)
		}
		return pass()
	case "null":
		if value != nil {
			return fail(path, "expected null, got %T", value)
		}
		return pass()
	default:
		return fail(path, "unsupported schema type %q", schema.Type)
	}
}

func validateObject(value any, schema *SchemaNode, defs DefinitionsTable, path string) Outcome {
	obj, ok := value.(map[string]any)
	if !ok {
		return fail(path, "expected object, got %T", value)
	}

	for _, name := range schema.Required {
		v, present := obj[name]
		if !present || v == nil {
			return fail(path, "missing required property %q", name)
		}
	}

	// Sorted iteration keeps "first failure wins" deterministic when several
	// properties are invalid; map order would vary the message between runs.
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := obj[name]
		prop, declared := schema.Properties[name]
		if !declared {
			if schema.Strict {
				return fail(path, "unexpected property %q", name)
			}
			continue
		}
		// Null stands for absent: only required properties reject it, and
		// those were checked above.
		if v == nil {
			continue
		}
		if out := validateNode(v, prop, defs, path+"."+name); !out.Valid {
			return out
		}
	}
	return pass()
}

func validateArray(value any, schema *SchemaNode, defs DefinitionsTable, path string) Outcome {
	arr, ok := value.([]any)
	if !ok {
		return fail(path, "expected array, got %T", value)
	}
	if schema.Items == nil {
		return pass()
	}
	for i, item := range arr {
		if out := validateNode(item, schema.Items, defs, fmt.Sprintf("%s[%d]", path, i)); !out.Valid {
			return out
		}
	}
	return pass()
}

func validateEnum(s string, schema *SchemaNode, path string) Outcome {
	if len(schema.Enum) == 0 {
		return pass()
	}
	for _, allowed := range schema.Enum {
		if s == allowed {
			return pass()
		}
	}
	return fail(path, "value %q not in enum [%s]", s, strings.Join(schema.Enum, ", "))
}

// resolveRef looks up a "#/definitions/<name>" pointer in defs.
func resolveRef(ref string, defs DefinitionsTable) (*SchemaNode, bool) {
	const prefix = "#/definitions/"
	if !strings.HasPrefix(ref, prefix) {
		return nil, false
	}
	node, ok := defs[strings.TrimPrefix(ref, prefix)]
	if !ok || node == nil {
		return nil, false
	}
	return node, true
}

// isNumber accepts the numeric shapes handlers and JSON decoding produce.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return true
	}
	return false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == math.Trunc(n)
	case float32:
		return float64(n) == math.Trunc(float64(n))
	}
	return false
}
