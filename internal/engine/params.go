package engine

import (
	"encoding/json"
	"errors"
)

// paramsIssue mirrors the structured validation issues reported for
// capability arguments, here applied to the params object itself.
type paramsIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// missingParamsIssues renders a field-required issue per missing params
// field, as the message of an invalid-params error.
func missingParamsIssues(names ...string) string {
	issues := make([]paramsIssue, 0, len(names))
	for _, name := range names {
		issues = append(issues, paramsIssue{
			Loc:  []string{"params", name},
			Msg:  "Field required",
			Type: "missing",
		})
	}
	b, err := json.Marshal(issues)
	if err != nil {
		return "Field required"
	}
	return string(b)
}

// paramsFields splits a params payload into its top-level members, failing
// when the payload is absent or not an object.
func paramsFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(raw) == 0 {
		return fields, errMissingParams
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fields, err
	}
	return fields, nil
}

var errMissingParams = errors.New("params object required")

// decodeNamedParams decodes a tools/call or prompts/get params object,
// requiring the capability name field. It returns a non-empty issue message
// on failure.
func decodeNamedParams(raw json.RawMessage, target any) string {
	fields, err := paramsFields(raw)
	if err != nil {
		return missingParamsIssues("name")
	}
	if _, ok := fields["name"]; !ok {
		return missingParamsIssues("name")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return missingParamsIssues("name")
	}
	return ""
}
