package tool

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// DecodeArgs converts the arguments of a function call into in. Hosts send
// numbers as float64 or as strings depending on the model, so callers use
// json tags and lenient field types where that matters.
func DecodeArgs(fc genai.FunctionCall, in any) error {
	if len(fc.Args) == 0 {
		return nil
	}

	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal function arguments", goerr.V("name", fc.Name))
	}

	if err := json.Unmarshal(paramsJSON, in); err != nil {
		return goerr.Wrap(err, "failed to parse input parameters", goerr.V("name", fc.Name))
	}
	return nil
}

// Result is the response of a mutating operation: a short status
// sentence that a host can read out to the user
func Result(fc genai.FunctionCall, status string) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"result": status},
	}
}

// Value is the response of a read operation. v is converted to its JSON
// form so the response carries the same field names as persisted records.
func Value(fc genai.FunctionCall, key string, v any) (*genai.FunctionResponse, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal result", goerr.V("name", fc.Name))
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, goerr.Wrap(err, "failed to convert result", goerr.V("name", fc.Name))
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{key: out},
	}, nil
}

// Object is the response of a read operation whose result is itself an
// object, such as a cart summary
func Object(fc genai.FunctionCall, v any) (*genai.FunctionResponse, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal result", goerr.V("name", fc.Name))
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, goerr.Wrap(err, "result is not an object", goerr.V("name", fc.Name))
	}

	return &genai.FunctionResponse{Name: fc.Name, Response: out}, nil
}

// Int is an integer argument. Models send counts as 2, 2.0 or "2"; all are
// accepted and fractions are truncated.
type Int int

func (i *Int) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return goerr.Wrap(err, "invalid integer argument", goerr.V("value", string(data)))
	}
	*i = Int(f)
	return nil
}
