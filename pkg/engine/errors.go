package engine

import (
	"fmt"

	"recon/pkg/schema"
)

// SchemaError is returned when a column an ingestor cannot work without was
// not found in the input table.
type SchemaError struct {
	Source  string
	Field   schema.Field
	Headers []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: could not detect %s column (headers: %q)", e.Source, e.Field, e.Headers)
}
