package todo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "todo.schema.json"

// payloadSchema describes create and update bodies. id and created_at are
// accepted so clients can send back a fetched todo; their values are ignored.
const payloadSchema = `{
	"type": "object",
	"required": ["title"],
	"properties": {
		"id": {"type": ["integer", "null"]},
		"title": {"type": "string"},
		"description": {"type": ["string", "null"]},
		"completed": {"type": "boolean"},
		"created_at": {"type": ["string", "null"]}
	}
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(payloadSchema)); err != nil {
		panic(err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		panic(err)
	}
	return schema
}

type payload struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

// ParseInput validates body against the payload schema and decodes it.
// Errors wrap ErrMalformedJSON or are a *ValidationError.
func ParseInput(body []byte) (Input, error) {
	doc, err := core.JSONDecodeDocument(body)
	if err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return Input{}, toValidationError(err)
	}

	var p payload
	if err := core.JSONDecode(body, &p); err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	in := Input{Title: p.Title, Completed: p.Completed}
	if p.Description != nil {
		in.Description = *p.Description
	}
	return in, nil
}

func toValidationError(err error) *ValidationError {
	result := &ValidationError{}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		result.Fields = append(result.Fields, FieldError{Message: err.Error()})
		return result
	}
	collectSchemaErrors(result, ve)
	return result
}

func collectSchemaErrors(result *ValidationError, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		result.Fields = append(result.Fields, FieldError{
			Path:    jsonPointerToPath(err.InstanceLocation),
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

// jsonPointerToPath turns "/title" into "title"
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	return strings.ReplaceAll(ptr, "/", ".")
}
