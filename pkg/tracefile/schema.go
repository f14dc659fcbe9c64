package tracefile

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

// ErrSchema is wrapped by every schema violation.
var ErrSchema = errors.New("trace document does not match schema")

// SchemaError lists every schema violation of a document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSchema, strings.Join(e.Problems, "; "))
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// Schema returns the embedded JSON schema for trace documents.
func Schema() []byte {
	return schemaJSON
}

// CheckSchema validates a decoded generic document (maps, slices, scalars)
// against the embedded schema.
func CheckSchema(document any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.Field()+": "+verr.Description())
	}

	return &SchemaError{Problems: problems}
}
