package types

import (
	"context"
	"errors"
	"fmt"
)

// Accessor resolves identifiers to entities. Implementations return
// ErrNotFound when the identifier is absent; any other error is a transport
// or backend failure.
type Accessor interface {
	// Retrieve looks up id. When crossBucket is set the lookup may search
	// beyond the accessor's own organization/project.
	Retrieve(ctx context.Context, id string, crossBucket bool) (*Entity, error)
}

// AccessorFunc adapts a function to the Accessor interface.
type AccessorFunc func(ctx context.Context, id string, crossBucket bool) (*Entity, error)

// Retrieve calls f.
func (f AccessorFunc) Retrieve(ctx context.Context, id string, crossBucket bool) (*Entity, error) {
	return f(ctx, id, crossBucket)
}

// Standard errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrSchemaViolation = errors.New("schema violation")
	ErrConfig          = errors.New("invalid configuration")
)

// SchemaError reports a record that does not have the shape a query needs.
// It matches ErrSchemaViolation under errors.Is.
type SchemaError struct {
	Type   string // declared type of the offending entity
	ID     string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s %s: %s", ErrSchemaViolation, e.Type, e.ID, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s: %s: %s", ErrSchemaViolation, e.Type, e.ID, e.Field, e.Reason)
}

// Unwrap returns ErrSchemaViolation.
func (e *SchemaError) Unwrap() error { return ErrSchemaViolation }
