package attribute

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

func NewString(name string, required bool) *Single[string] {
	return New(name, required, Codec[string]{
		Parse:  func(s string) (string, error) { return s, nil },
		Format: func(s string) string { return s },
	})
}

// NewPattern is a string slot whose value must compile as a regular
// expression in the XML Schema dialect.
func NewPattern(name string, required bool) *Single[string] {
	return New(name, required, Codec[string]{
		Parse:  func(s string) (string, error) { return s, nil },
		Format: func(s string) string { return s },
		Check: func(s string) error {
			_, err := regexp2.Compile(s, regexp2.None)
			return err
		},
	})
}

func NewInteger(name string, required bool) *Single[int] {
	return New(name, required, Codec[int]{
		Parse:  func(s string) (int, error) { return value.ParseInteger(s, 10) },
		Format: strconv.Itoa,
	})
}

func NewFloat(name string, required bool) *Single[float64] {
	return New(name, required, Codec[float64]{
		Parse:  value.ParseFloat,
		Format: value.FormatFloat,
	})
}

func NewBoolean(name string, required bool) *Single[bool] {
	return New(name, required, Codec[bool]{
		Parse: func(s string) (bool, error) {
			switch strings.TrimSpace(s) {
			case "true", "1":
				return true, nil
			case "false", "0":
				return false, nil
			}
			return false, fmt.Errorf("invalid boolean: %s", s)
		},
		Format: strconv.FormatBool,
	})
}

func NewIdentifier(name string, required bool) *Single[value.Identifier] {
	return New(name, required, Codec[value.Identifier]{
		Parse: func(s string) (value.Identifier, error) {
			return value.ParseIdentifier(strings.TrimSpace(s))
		},
		Format: value.Identifier.String,
		Check:  value.Identifier.Check,
	})
}

func NewBaseType(name string, required bool) *Single[value.BaseType] {
	return NewEnum(name, required, value.BaseTypes...)
}

func NewCardinality(name string, required bool) *Single[value.Cardinality] {
	return NewEnum(name, required, value.Cardinalities...)
}

// NewEnum is a slot restricted to the given literals. Parsing rejects other
// literals; values set directly are checked during validation.
func NewEnum[V ~string](name string, required bool, allowed ...V) *Single[V] {
	member := func(v V) error {
		for _, a := range allowed {
			if a == v {
				return nil
			}
		}
		return fmt.Errorf("not one of %s", joinEnum(allowed))
	}
	return New(name, required, Codec[V]{
		Parse: func(s string) (V, error) {
			v := V(strings.TrimSpace(s))
			if err := member(v); err != nil {
				var zero V
				return zero, err
			}
			return v, nil
		},
		Format: func(v V) string { return string(v) },
		Check:  member,
	})
}

func joinEnum[V ~string](vs []V) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = string(v)
	}
	return strings.Join(parts, "|")
}
