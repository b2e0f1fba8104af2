// Package schemas validates resume payloads and raw commands against the
// embedded JSON Schemas.
package schemas

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	embedded "github.com/jonathan/resume-autofill/schemas"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Name    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Name, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Validator checks documents against one compiled schema.
type Validator struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses a schema document.
func Compile(name string, schema []byte) (*Validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Message: "invalid schema", Cause: err}
	}
	return &Validator{name: name, schema: s}, nil
}

// Validate checks a JSON document.
func (v *Validator) Validate(document []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		// Malformed JSON lands here, before any schema rule runs.
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// ValidateFile checks the JSON document stored at path.
func (v *Validator) ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return v.Validate(data)
}

var (
	resumeValidator  = sync.OnceValues(func() (*Validator, error) { return Compile("resume", embedded.Resume) })
	commandValidator = sync.OnceValues(func() (*Validator, error) { return Compile("command", embedded.Command) })
)

// Resume returns the validator for resume documents.
func Resume() (*Validator, error) {
	return resumeValidator()
}

// Command returns the validator for raw coordinator commands.
func Command() (*Validator, error) {
	return commandValidator()
}

// ValidateResume checks a resume document fetched from the service.
func ValidateResume(document []byte) error {
	v, err := Resume()
	if err != nil {
		return err
	}
	return v.Validate(document)
}

// ValidateCommand checks a raw command envelope.
func ValidateCommand(document []byte) error {
	v, err := Command()
	if err != nil {
		return err
	}
	return v.Validate(document)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	v, err := Compile("(string schema)", []byte(schemaContent))
	if err != nil {
		return err
	}
	return v.Validate([]byte(jsonContent))
}
