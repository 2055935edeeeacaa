// internal/domain/errors.go
package domain

import (
	"fmt"
	"strings"
)

// SchemaError reports required canonical columns that could not be resolved
// in an uploaded file. Missing holds canonical names, Readable the
// human-facing variants shown to the user.
type SchemaError struct {
	File     string
	Missing  []string
	Readable []string
}

func (e *SchemaError) Error() string {
	names := e.Readable
	if len(names) == 0 {
		names = e.Missing
	}
	return fmt.Sprintf("%s missing columns: %s", e.File, strings.Join(names, ", "))
}

// DuplicateKeyError is raised when a one-to-one join finds the same key
// more than once on one side. The join fails closed rather than picking
// a row arbitrarily.
type DuplicateKeyError struct {
	Key  string
	Side string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q in %s file", e.Key, e.Side)
}
