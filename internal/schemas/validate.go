// Package schemas checks records the client persists or receives against
// the JSON Schemas embedded in the schemas directory.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	root "github.com/jonathan/jobboard/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// Record names, as used in error messages.
const (
	AuthRecord    = "auth record"
	BatchAnalysis = "batch analysis"
)

// ValidationError lists every schema violation found in one record.
type ValidationError struct {
	Record string
	Errors []FieldError
}

// FieldError is one violation; Field is a dotted path or "(root)".
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	parts := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("invalid %s: %s", ve.Record, strings.Join(parts, "; "))
}

// DecodeError means the document was not JSON at all.
type DecodeError struct {
	Record string
	Cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Record, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// SchemaLoadError means an embedded schema failed to compile.
type SchemaLoadError struct {
	Name  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("load schema %s: %v", e.Name, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

type compiled struct {
	once   sync.Once
	name   string
	source string
	schema *gojsonschema.Schema
	err    error
}

func (c *compiled) get() (*gojsonschema.Schema, error) {
	c.once.Do(func() {
		c.schema, c.err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(c.source))
		if c.err != nil {
			c.err = &SchemaLoadError{Name: c.name, Cause: c.err}
		}
	})
	return c.schema, c.err
}

var (
	authSchema  = &compiled{name: "auth_record.schema.json", source: root.AuthRecord}
	batchSchema = &compiled{name: "batch_analysis.schema.json", source: root.BatchAnalysis}
)

// ValidateAuthRecord checks a persisted session record.
func ValidateAuthRecord(data []byte) error {
	return validate(AuthRecord, authSchema, data)
}

// ValidateBatchAnalysis checks a bulk analysis response body, either fresh
// from the backend or reloaded from a saved run.
func ValidateBatchAnalysis(data []byte) error {
	return validate(BatchAnalysis, batchSchema, data)
}

func validate(record string, c *compiled, data []byte) error {
	schema, err := c.get()
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &DecodeError{Record: record, Cause: err}
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Record: record, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}
