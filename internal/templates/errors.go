package templates

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTemplateNotFound is returned when no source file backs a requested name.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrDuplicateName is returned when two files in one store layer declare the same name.
	ErrDuplicateName = errors.New("duplicate template name")
)

// ParseError describes a structurally invalid template source file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse template %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CycleError describes a cyclic include chain. Chain lists the template
// names along the active resolution path, ending with the repeated name.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic include: %s", strings.Join(e.Chain, " -> "))
}

// MissingVariableError is returned when a placeholder has no value in the
// final formatting context.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing variable %q", e.Name)
}
