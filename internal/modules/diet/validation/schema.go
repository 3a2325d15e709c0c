// Package validation checks AI replies for each diet phase and turns them
// into the values the executors persist.
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/luisquicidev/easydiet-backend/internal/modules/diet/prompts"
)

// SchemaError lists the fields of a reply that failed its JSON schema.
type SchemaError struct {
	Schema string
	Errors []FieldError
}

type FieldError struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return fmt.Sprintf("%s schema: %s", e.Schema, strings.Join(msgs, "; "))
}

var compiled sync.Map // prompts.PromptName -> *gojsonschema.Schema

func schemaFor(name prompts.PromptName) (*gojsonschema.Schema, string, error) {
	schemaName, raw, ok := prompts.Schema(name)
	if !ok {
		return nil, "", fmt.Errorf("no schema for %s", name)
	}
	if s, ok := compiled.Load(name); ok {
		return s.(*gojsonschema.Schema), schemaName, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("compile %s schema: %w", schemaName, err)
	}
	compiled.Store(name, s)
	return s, schemaName, nil
}

// CheckSchema validates a JSON document against the reply schema of a prompt.
func CheckSchema(name prompts.PromptName, doc []byte) error {
	s, schemaName, err := schemaFor(name)
	if err != nil {
		return err
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &SchemaError{Schema: schemaName, Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	if result.Valid() {
		return nil
	}
	se := &SchemaError{Schema: schemaName, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		se.Errors = append(se.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return se
}
