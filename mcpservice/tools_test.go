package mcpservice

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/yeison-liscano/http-mcp/mcperr"
)

type weatherIn struct {
	Location string `json:"location" jsonschema:"description=The location to get the weather for"`
	Unit     string `json:"unit,omitempty"`
}

type weatherOut struct {
	Weather string `json:"weather"`
}

func newWeatherTool(opts ...ToolOption) Tool {
	return NewTool("get_weather", func(_ context.Context, args Arguments[weatherIn]) (weatherOut, error) {
		return weatherOut{Weather: "sunny in " + args.Inputs.Location}, nil
	}, opts...)
}

func TestNewTool_DescriptorMetadata(t *testing.T) {
	tool := newWeatherTool(WithToolDescription("Get the weather."))

	d := tool.Descriptor()
	if d.Name != "get_weather" {
		t.Fatalf("expected name get_weather, got %q", d.Name)
	}
	if d.Title != "Get Weather" {
		t.Fatalf("expected derived title, got %q", d.Title)
	}
	if d.Description != "Get the weather." {
		t.Fatalf("unexpected description: %q", d.Description)
	}
	if !d.Annotations.IdempotentHint || !d.Annotations.OpenWorldHint {
		t.Fatalf("expected idempotent and open-world hints set, got %+v", d.Annotations)
	}
	if d.Annotations.ReadOnlyHint || d.Annotations.DestructiveHint {
		t.Fatalf("expected read-only and destructive hints unset, got %+v", d.Annotations)
	}

	var schema struct {
		Title    string          `json:"title"`
		Type     string          `json:"type"`
		Required []string        `json:"required"`
		Props    json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(d.InputSchema, &schema); err != nil {
		t.Fatalf("input schema is not valid JSON: %v", err)
	}
	if schema.Title != "get_weatherArguments" {
		t.Fatalf("expected input schema title get_weatherArguments, got %q", schema.Title)
	}
	if schema.Type != "object" {
		t.Fatalf("expected object schema, got %q", schema.Type)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "location" {
		t.Fatalf("expected required [location], got %v", schema.Required)
	}
	if !strings.Contains(string(schema.Props), "The location to get the weather for") {
		t.Fatalf("expected property description in schema, got %s", schema.Props)
	}
}

func TestNewTool_DescriptionDefaults(t *testing.T) {
	tool := newWeatherTool()
	if tool.Descriptor().Description != "No description" {
		t.Fatalf("expected default description, got %q", tool.Descriptor().Description)
	}
}

func TestNewTool_OutputSchemaTitle(t *testing.T) {
	tool := newWeatherTool()
	var schema struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(tool.Descriptor().OutputSchema, &schema); err != nil {
		t.Fatalf("output schema is not valid JSON: %v", err)
	}
	if schema.Title != "get_weatherOutput" {
		t.Fatalf("expected output schema title get_weatherOutput, got %q", schema.Title)
	}
}

func TestTool_OutputSchemaMatchesInvocationOutput(t *testing.T) {
	tool := newWeatherTool()
	out, err := tool.Invoke(context.Background(), NewRequest(), json.RawMessage(`{"location":"Lima"}`))
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	payload, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal output: %v", err)
	}

	var schema struct {
		Type     string                     `json:"type"`
		Required []string                   `json:"required"`
		Props    map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(tool.Descriptor().OutputSchema, &schema); err != nil {
		t.Fatalf("output schema is not valid JSON: %v", err)
	}
	if schema.Type != "object" {
		t.Fatalf("expected object output schema, got %q", schema.Type)
	}

	var instance map[string]json.RawMessage
	if err := json.Unmarshal(payload, &instance); err != nil {
		t.Fatalf("serialized output is not an object: %v", err)
	}
	for _, name := range schema.Required {
		if _, ok := instance[name]; !ok {
			t.Fatalf("serialized output misses required property %q: %s", name, payload)
		}
	}
	for name := range instance {
		if _, ok := schema.Props[name]; !ok {
			t.Fatalf("serialized output carries undeclared property %q: %s", name, payload)
		}
	}

	// The check has teeth: an object without the required properties fails it.
	if len(schema.Required) == 0 {
		t.Fatal("expected the output schema to require at least one property")
	}
	empty := map[string]json.RawMessage{}
	satisfied := true
	for _, name := range schema.Required {
		if _, ok := empty[name]; !ok {
			satisfied = false
		}
	}
	if satisfied {
		t.Fatal("empty object must not satisfy the output schema")
	}
}

func TestTool_Invoke_Success(t *testing.T) {
	tool := newWeatherTool()
	out, err := tool.Invoke(context.Background(), NewRequest(), json.RawMessage(`{"location":"Lima"}`))
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	result, ok := out.(weatherOut)
	if !ok {
		t.Fatalf("expected weatherOut, got %T", out)
	}
	if result.Weather != "sunny in Lima" {
		t.Fatalf("unexpected output: %+v", result)
	}
}

func TestTool_Invoke_MissingRequiredField(t *testing.T) {
	tool := newWeatherTool()
	_, err := tool.Invoke(context.Background(), NewRequest(), json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var perr *mcperr.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError, got %T: %v", err, err)
	}
	if perr.Code() != mcperr.CodeInvalidParams {
		t.Fatalf("expected invalid params code, got %d", perr.Code())
	}
	msg := perr.Error()
	if !strings.Contains(msg, "Error validating arguments for tool get_weather") {
		t.Fatalf("unexpected message: %q", msg)
	}
	if !strings.Contains(msg, `"loc":["location"]`) || !strings.Contains(msg, "Field required") {
		t.Fatalf("expected structured issue for location, got %q", msg)
	}
}

func TestTool_Invoke_NonObjectArguments(t *testing.T) {
	tool := newWeatherTool()
	_, err := tool.Invoke(context.Background(), NewRequest(), json.RawMessage(`[1,2]`))
	if err == nil || !strings.Contains(err.Error(), "Input is not a valid object") {
		t.Fatalf("expected non-object issue, got %v", err)
	}
}

func TestTool_Invoke_ExtraFieldsIgnored(t *testing.T) {
	tool := newWeatherTool()
	out, err := tool.Invoke(context.Background(), NewRequest(), json.RawMessage(`{"location":"Lima","extra":1}`))
	if err != nil {
		t.Fatalf("extra keys must be ignored like the open schema says, got %v", err)
	}
	if out.(weatherOut).Weather != "sunny in Lima" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestTool_Invoke_TypeMismatchReportsFieldPath(t *testing.T) {
	tool := newWeatherTool()
	_, err := tool.Invoke(context.Background(), NewRequest(), json.RawMessage(`{"location":123}`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var perr *mcperr.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError, got %T: %v", err, err)
	}
	msg := perr.Error()
	if !strings.Contains(msg, `"loc":["location"]`) {
		t.Fatalf("expected issue located at the offending field, got %q", msg)
	}
	if !strings.Contains(msg, "Input should be a valid string") {
		t.Fatalf("expected stable type message, got %q", msg)
	}
	if strings.Contains(msg, "json:") {
		t.Fatalf("decoder internals must not reach the wire, got %q", msg)
	}
}

func TestTool_Invoke_EmptyArgumentsDefaultToObject(t *testing.T) {
	tool := NewTool("noop", func(_ context.Context, _ Arguments[NoArguments]) (weatherOut, error) {
		return weatherOut{Weather: "fine"}, nil
	})
	if _, err := tool.Invoke(context.Background(), NewRequest(), nil); err != nil {
		t.Fatalf("expected nil raw arguments to validate, got %v", err)
	}
}

func TestTool_Invoke_HandlerFailureMasked(t *testing.T) {
	tool := NewTool("boom", func(_ context.Context, _ Arguments[NoArguments]) (weatherOut, error) {
		return weatherOut{}, errors.New("credentials leaked here")
	})
	_, err := tool.Invoke(context.Background(), NewRequest(), nil)
	if err == nil {
		t.Fatal("expected invocation error")
	}
	var serr *mcperr.ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ServerError, got %T", err)
	}
	if serr.Error() != "Server error: Error calling tool boom: Unknown error" {
		t.Fatalf("unexpected message: %q", serr.Error())
	}
	if strings.Contains(serr.Error(), "credentials") {
		t.Fatal("handler fault text must not reach the wire message")
	}
	if serr.Unwrap() == nil || !strings.Contains(serr.Unwrap().Error(), "credentials leaked here") {
		t.Fatalf("expected original cause retained for logging, got %v", serr.Unwrap())
	}
}

func TestTool_Invoke_PanicContained(t *testing.T) {
	tool := NewTool("boom", func(_ context.Context, _ Arguments[NoArguments]) (weatherOut, error) {
		panic("kaboom")
	})
	_, err := tool.Invoke(context.Background(), NewRequest(), nil)
	if err == nil {
		t.Fatal("expected error from panicking handler")
	}
	if err.Error() != "Server error: Error calling tool boom: Unknown error" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestTool_Invoke_ClassifiedErrorPreserved(t *testing.T) {
	custom := mcperr.NewServerError(mcperr.CodeInternalError, "backend unavailable")
	tool := NewTool("flaky", func(_ context.Context, _ Arguments[NoArguments]) (weatherOut, error) {
		return weatherOut{}, custom
	})
	_, err := tool.Invoke(context.Background(), NewRequest(), nil)
	if err == nil || err.Error() != "Server error: backend unavailable" {
		t.Fatalf("expected classified error preserved, got %v", err)
	}
}

func TestTool_ReturnErrorMessage_WrapsOutcomes(t *testing.T) {
	fail := false
	tool := NewTool("greet", func(_ context.Context, _ Arguments[NoArguments]) (weatherOut, error) {
		if fail {
			return weatherOut{}, errors.New("nope")
		}
		return weatherOut{Weather: "clear"}, nil
	}, WithReturnErrorMessage())

	out, err := tool.Invoke(context.Background(), NewRequest(), nil)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	res, ok := out.(InvocationResult[weatherOut])
	if !ok {
		t.Fatalf("expected InvocationResult, got %T", out)
	}
	if res.Output == nil || res.Output.Weather != "clear" || res.ErrorMessage != nil {
		t.Fatalf("unexpected success wrapper: %+v", res)
	}

	fail = true
	out, err = tool.Invoke(context.Background(), NewRequest(), nil)
	if err != nil {
		t.Fatalf("failure must be returned as data, got error %v", err)
	}
	res = out.(InvocationResult[weatherOut])
	if res.Output != nil || res.ErrorMessage == nil {
		t.Fatalf("unexpected failure wrapper: %+v", res)
	}
	if *res.ErrorMessage != "Server error: Error calling tool greet: Unknown error" {
		t.Fatalf("unexpected wrapped message: %q", *res.ErrorMessage)
	}

	var schema struct {
		Title    string   `json:"title"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(tool.Descriptor().OutputSchema, &schema); err != nil {
		t.Fatalf("output schema is not valid JSON: %v", err)
	}
	if schema.Title != "greetOutput" {
		t.Fatalf("expected wrapper schema title greetOutput, got %q", schema.Title)
	}
	if !strings.Contains(string(tool.Descriptor().OutputSchema), "error_message") {
		t.Fatalf("expected wrapper schema to declare error_message: %s", tool.Descriptor().OutputSchema)
	}
}

func TestTitleFromName(t *testing.T) {
	cases := map[string]string{
		"get_weather":   "Get Weather",
		"tool":          "Tool",
		"get_called_at": "Get Called At",
	}
	for in, want := range cases {
		if got := titleFromName(in); got != want {
			t.Fatalf("titleFromName(%q) = %q, want %q", in, got, want)
		}
	}
}
