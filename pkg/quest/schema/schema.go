package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// The schema documents below are the machine-readable form of the wire
// contract. They are embedded in the assistant's instructions (Command)
// and response-format constraint (Output), so they must stay in lockstep
// with the encode/decode logic in this package.

// CommandSchema returns the declared shape of the Command union.
func CommandSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Description: "A command issued by the game session: either the opening Start carrying the player character, or one line of free-text player input.",
		OneOf: []*jsonschema.Schema{
			variantSchema(commandTagStart, reflectStruct(&Character{})),
			variantSchema(commandTagUserInput, stringSchema()),
		},
	}
}

// OutputSchema returns the declared shape of the Output envelope.
func OutputSchema() *jsonschema.Schema {
	updates := &jsonschema.Schema{
		Type:  "array",
		Items: updateSchema(),
	}
	props := jsonschema.NewProperties()
	props.Set("updates", updates)

	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{"updates"},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

// SchemaJSON renders a schema document as compact JSON text.
func SchemaJSON(s *jsonschema.Schema) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func updateSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			variantSchema(updateTagQuestDefinition, reflectStruct(&QuestDefinition{})),
			variantSchema(updateTagDescription, stringSchema()),
		},
	}
}

// variantSchema models one arm of an externally tagged union: an object
// with exactly one property named after the variant.
func variantSchema(tag string, payload *jsonschema.Schema) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set(tag, payload)

	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{tag},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func reflectStruct(v any) *jsonschema.Schema {
	r := jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}
	s := r.Reflect(v)
	// Subschemas must not redeclare the meta-schema.
	s.Version = ""

	return s
}

func stringSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string"}
}
