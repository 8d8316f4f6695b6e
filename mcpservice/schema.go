package mcpservice

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// InvocationResult is the declared output of a tool that opts into returning
// errors as data. Exactly one of Output or ErrorMessage is populated.
type InvocationResult[O any] struct {
	Output       *O      `json:"output"`
	ErrorMessage *string `json:"error_message"`
}

// reflectSchema derives a JSON Schema from the declared Go type. Schemas are
// pure functions of the type: reflection happens once at registration time
// and the result is reused for every call.
func reflectSchema[T any](title string) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(new(T))
	s.Title = title
	if s.Type == "" {
		s.Type = "object"
	}
	return s
}

func marshalSchema(s *jsonschema.Schema) json.RawMessage {
	b, err := json.Marshal(s)
	if err != nil {
		// Schemas are built from static Go types; a marshal failure is a
		// programming error.
		panic(err)
	}
	return b
}

// titleFromName renders a snake_case capability name as a display title,
// e.g. "get_weather" becomes "Get Weather".
func titleFromName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// validationIssue is one entry of the structured argument-validation failure
// list. The list is serialized into the error message so callers can recover
// the offending field paths.
type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func marshalIssues(issues []validationIssue) string {
	b, err := json.Marshal(issues)
	if err != nil {
		return `[{"loc":[],"msg":"validation failed","type":"invalid"}]`
	}
	return string(b)
}

// checkArguments validates raw JSON arguments against the declared schema's
// required-property list and then decodes them into target. Unknown keys are
// ignored, matching the generated schema's open additionalProperties. A nil
// return means target holds the validated arguments.
func checkArguments(raw json.RawMessage, required []string, target any) []validationIssue {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return []validationIssue{{Loc: []string{}, Msg: "Input is not a valid object", Type: "model_type"}}
	}

	var issues []validationIssue
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			issues = append(issues, validationIssue{Loc: []string{name}, Msg: "Field required", Type: "missing"})
		}
	}
	if len(issues) > 0 {
		return issues
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return decodeIssues(err)
	}
	return nil
}

// decodeIssues maps a decode failure to the structured issue list. Decoder
// error text never reaches the wire; type mismatches report the offending
// field path and the expected schema type.
func decodeIssues(err error) []validationIssue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		loc := []string{}
		if typeErr.Field != "" {
			loc = strings.Split(typeErr.Field, ".")
		}
		return []validationIssue{{
			Loc:  loc,
			Msg:  "Input should be a valid " + schemaTypeName(typeErr.Type),
			Type: "type_error",
		}}
	}
	return []validationIssue{{Loc: []string{}, Msg: "Input is not valid", Type: "invalid"}}
}

// schemaTypeName renders a Go type as its JSON Schema type word.
func schemaTypeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}
