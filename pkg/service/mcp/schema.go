package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// convertGenaiToJSONSchema converts a Gemini genai.Schema to JSON Schema so
// that the same function declarations can be listed by MCP hosts
func convertGenaiToJSONSchema(schema *genai.Schema) (*jsonschema.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	js := &jsonschema.Schema{}

	switch schema.Type {
	case genai.TypeObject:
		js.Type = "object"
	case genai.TypeString:
		js.Type = "string"
	case genai.TypeNumber:
		js.Type = "number"
	case genai.TypeInteger:
		js.Type = "integer"
	case genai.TypeBoolean:
		js.Type = "boolean"
	case genai.TypeArray:
		js.Type = "array"
	default:
		if schema.Type != "" {
			return nil, goerr.New("unsupported schema type", goerr.V("type", schema.Type))
		}
	}

	js.Description = schema.Description

	if len(schema.Enum) > 0 {
		js.Enum = make([]any, len(schema.Enum))
		for i, v := range schema.Enum {
			js.Enum[i] = v
		}
	}

	if schema.Properties != nil {
		js.Properties = make(map[string]*jsonschema.Schema, len(schema.Properties))
		for name, prop := range schema.Properties {
			converted, err := convertGenaiToJSONSchema(prop)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property schema",
					goerr.V("property", name))
			}
			js.Properties[name] = converted
		}
	}

	if len(schema.Required) > 0 {
		js.Required = schema.Required
	}

	if schema.Items != nil {
		converted, err := convertGenaiToJSONSchema(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
		js.Items = converted
	}

	return js, nil
}

// inputSchema returns the input schema of a declaration. MCP requires an
// object schema even for operations without parameters.
func inputSchema(fd *genai.FunctionDeclaration) (*jsonschema.Schema, error) {
	js, err := convertGenaiToJSONSchema(fd.Parameters)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to convert parameters", goerr.V("function", fd.Name))
	}
	if js == nil {
		js = &jsonschema.Schema{}
	}
	if js.Type == "" {
		js.Type = "object"
	}
	if js.Type != "object" {
		return nil, goerr.New("parameters must be an object", goerr.V("function", fd.Name), goerr.V("type", js.Type))
	}
	return js, nil
}
