package value

import (
	"fmt"
	"strings"
)

// TypeMismatchError is returned when a container is built from a scalar whose
// base type differs from the declared one. It indicates a bug in the caller.
type TypeMismatchError struct {
	Expected BaseType
	Actual   BaseType
	Position int
}

func (e *TypeMismatchError) Error() string {
	switch {
	case e.Position < 0:
		return fmt.Sprintf("type mismatch: invalid baseType %q", string(e.Expected))
	case e.Actual == "":
		return fmt.Sprintf("type mismatch: element %d is NULL, expected %s", e.Position, e.Expected)
	}
	return fmt.Sprintf("type mismatch: element %d has baseType %s, expected %s", e.Position, e.Actual, e.Expected)
}

// CardinalityError is returned when a value of the wrong shape is supplied.
type CardinalityError struct {
	Expected []Cardinality
	Actual   Cardinality
	Field    Identifier
}

func (e *CardinalityError) Error() string {
	exp := make([]string, len(e.Expected))
	for i, c := range e.Expected {
		exp[i] = string(c)
	}
	msg := fmt.Sprintf("cardinality mismatch: got %s, expected %s", e.Actual, strings.Join(exp, " or "))
	if e.Field != "" {
		msg += fmt.Sprintf(" (record field %s)", e.Field)
	}
	return msg
}

// ParseError is returned when a literal cannot be parsed as a base type.
type ParseError struct {
	BaseType BaseType
	Text     string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q as %s: %v", e.Text, e.BaseType, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
