package analysis

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every typed error below unwraps to one of them.
var (
	ErrSchema          = errors.New("schema error")
	ErrMissingData     = errors.New("missing data")
	ErrDegenerateInput = errors.New("degenerate input")
)

// SchemaError reports a table that does not satisfy the input contract:
// a required column is absent or a cell cannot be parsed as its column's type.
type SchemaError struct {
	Column string
	Row    int // 1-based data row; 0 when the problem is the column itself
	Value  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("column %q row %d: %s (value %q)", e.Column, e.Row, e.Reason, e.Value)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// MissingDataError reports a requested race or driver that the table does not contain.
type MissingDataError struct {
	Kind string // "race" or "driver"
	Name string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("%s %q not found in table", e.Kind, e.Name)
}

func (e *MissingDataError) Unwrap() error { return ErrMissingData }

// DegenerateColumnError reports a column whose minimum equals its maximum.
type DegenerateColumnError struct {
	Column string
	Value  float64
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("column %q is constant (%g); min-max normalization is undefined", e.Column, e.Value)
}

func (e *DegenerateColumnError) Unwrap() error { return ErrDegenerateInput }
