// Package binding converts raw candidate tokens into typed values for a
// declared response variable.
package binding

import (
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-qti/internal/qti/numstring"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

// Declaration is the typing a token sequence is bound against.
type Declaration interface {
	Identifier() value.Identifier
	Cardinality() value.Cardinality
	BaseType() value.BaseType
}

// Error reports candidate input that cannot be coerced to the declared
// variable. Nothing is stored when binding fails.
type Error struct {
	Identifier value.Identifier
	Tokens     []string
	Reason     string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("cannot bind response %s", e.Identifier)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func fail(decl Declaration, tokens []string, reason string, err error) error {
	return &Error{Identifier: decl.Identifier(), Tokens: tokens, Reason: reason, Err: err}
}

// Bind parses tokens as the declared base type and shapes them to the
// declared cardinality. A single target takes at most one token; an empty or
// blank token yields NULL. Lists skip blank tokens. Records need a string
// interaction and are handled by BindString.
func Bind(decl Declaration, tokens []string) (value.Value, error) {
	return bind(decl, tokens, func(s string) (value.Scalar, error) {
		return decl.BaseType().Parse(s)
	})
}

// BindString binds the input of a string interaction whose numeric content
// is written in the given radix. Integer targets are parsed in that radix.
// Record targets receive the numeric decomposition of the single token, or
// for radix other than 10 the string and its integer value.
func BindString(decl Declaration, tokens []string, base int) (value.Value, error) {
	if base == 0 {
		base = 10
	}
	if decl.Cardinality() == value.Record {
		return bindRecord(decl, tokens, base)
	}
	if decl.BaseType() == value.IntegerType && base != 10 {
		return bind(decl, tokens, func(s string) (value.Scalar, error) {
			i, err := value.ParseInteger(s, base)
			if err != nil {
				return nil, &value.ParseError{BaseType: value.IntegerType, Text: s, Err: err}
			}
			return value.IntegerValue(i), nil
		})
	}
	return Bind(decl, tokens)
}

func bind(decl Declaration, tokens []string, parse func(string) (value.Scalar, error)) (value.Value, error) {
	switch c := decl.Cardinality(); c {
	case value.Single:
		if len(tokens) > 1 {
			return nil, fail(decl, tokens, fmt.Sprintf("expected one value, got %d", len(tokens)), nil)
		}
		if len(tokens) == 0 || blank(tokens[0]) {
			return value.Null, nil
		}
		s, err := parse(tokens[0])
		if err != nil {
			return nil, fail(decl, tokens, "", err)
		}
		return s, nil
	case value.Multiple, value.Ordered:
		items := make([]value.Scalar, 0, len(tokens))
		for _, tok := range tokens {
			if blank(tok) {
				continue
			}
			s, err := parse(tok)
			if err != nil {
				return nil, fail(decl, tokens, "", err)
			}
			items = append(items, s)
		}
		l, err := value.NewList(c, decl.BaseType(), items...)
		if err != nil {
			return nil, fail(decl, tokens, "", err)
		}
		return l, nil
	case value.Record:
		return nil, fail(decl, tokens, "record responses are only bound by string interactions", nil)
	default:
		return nil, fail(decl, tokens, fmt.Sprintf("unsupported cardinality %q", string(c)), nil)
	}
}

func bindRecord(decl Declaration, tokens []string, base int) (value.Value, error) {
	if len(tokens) > 1 {
		return nil, fail(decl, tokens, fmt.Sprintf("expected one value, got %d", len(tokens)), nil)
	}
	if len(tokens) == 0 || blank(tokens[0]) {
		return value.RecordValue{}, nil
	}
	tok := strings.TrimSpace(tokens[0])
	if base == 10 {
		d, err := numstring.Decompose(tok)
		if err != nil {
			return nil, fail(decl, tokens, "", err)
		}
		return d.Record(), nil
	}
	i, err := value.ParseInteger(tok, base)
	if err != nil {
		return nil, fail(decl, tokens, fmt.Sprintf("not an integer in base %d", base), err)
	}
	r, err := value.NewRecord(
		value.Field{Name: numstring.FieldStringValue, Value: value.StringValue(tok)},
		value.Field{Name: numstring.FieldIntegerValue, Value: value.IntegerValue(i)},
	)
	if err != nil {
		return nil, fail(decl, tokens, "", err)
	}
	return r, nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
