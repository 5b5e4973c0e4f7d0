package todo

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when no todo has the requested id
	ErrNotFound = errors.New("todo not found")

	// ErrInvalidTodo is returned for payloads that fail validation
	ErrInvalidTodo = errors.New("invalid todo")

	// ErrMalformedJSON is returned for bodies that are not valid JSON
	ErrMalformedJSON = errors.New("malformed JSON")
)

// FieldError is a single validation failure at a JSON path
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationError lists the validation failures of a payload
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "invalid todo: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidTodo
}
