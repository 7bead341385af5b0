package openai

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const quizResponseSchema = `{
  "type": "object",
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "properties": {
          "question": {"type": "string", "minLength": 1},
          "options": {
            "type": "array",
            "minItems": 2,
            "maxItems": 6,
            "items": {"type": "string", "minLength": 1}
          },
          "answerIndex": {"type": "integer", "minimum": 0},
          "explanation": {"type": "string"}
        },
        "required": ["question", "options", "answerIndex"],
        "additionalProperties": false
      }
    }
  },
  "required": ["questions"],
  "additionalProperties": false
}`

const flashcardResponseSchema = `{
  "type": "object",
  "properties": {
    "flashcards": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "properties": {
          "front": {"type": "string", "minLength": 1},
          "back": {"type": "string", "minLength": 1}
        },
        "required": ["front", "back"],
        "additionalProperties": false
      }
    }
  },
  "required": ["flashcards"],
  "additionalProperties": false
}`

var (
	quizSchema      = mustLoadSchema(quizResponseSchema)
	flashcardSchema = mustLoadSchema(flashcardResponseSchema)
)

func mustLoadSchema(content string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(content))
	if err != nil {
		panic(fmt.Sprintf("invalid response schema: %v", err))
	}
	return schema
}

// SchemaError lists the places a model response violated its schema.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "response does not match schema: " + strings.Join(e.Violations, "; ")
}

// validateResponse checks a JSON document against a compiled schema.
func validateResponse(schema *gojsonschema.Schema, document string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}

	schemaErr := &SchemaError{Violations: make([]string, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		schemaErr.Violations = append(schemaErr.Violations, field+": "+desc.Description())
	}
	return schemaErr
}
