package compiler

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

var (
	// ErrNameNotFound is wrapped by a ReferenceError for an undeclared name.
	ErrNameNotFound = errors.New("name not found")
	// ErrDuplicateName is wrapped by a ReferenceError for a redeclared name.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrDegenerateVector is returned when a normal or axis has zero length.
	ErrDegenerateVector = errors.New("degenerate vector")
)

// SyntaxError reports that the source could not be parsed.
type SyntaxError struct {
	Diagnostics hcl.Diagnostics
}

func (e *SyntaxError) Error() string {
	return "syntax error: " + e.Diagnostics.Error()
}

// ReferenceError reports a name that could not be bound: either it was never
// declared (ErrNameNotFound) or it was declared twice (ErrDuplicateName).
type ReferenceError struct {
	Kind  string // "joint" or "link"
	Name  string
	Decl  string // keyword of the declaration holding the reference
	Range hcl.Range
	Err   error
}

func (e *ReferenceError) Error() string {
	if errors.Is(e.Err, ErrDuplicateName) {
		return fmt.Sprintf("%s: %s %q is already declared", e.Range, e.Kind, e.Name)
	}
	return fmt.Sprintf("%s: %s references undeclared %s %q", e.Range, e.Decl, e.Kind, e.Name)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}
