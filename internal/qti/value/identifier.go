package value

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Identifier is a restricted name token used for variables, choices and
// cross-references. It follows the NCName production: no leading digit,
// no whitespace, no colon.
type Identifier string

// ParseIdentifier checks s against the identifier syntax.
func ParseIdentifier(s string) (Identifier, error) {
	id := Identifier(s)
	if err := id.Check(); err != nil {
		return "", err
	}
	return id, nil
}

// Check reports why id is not a valid identifier, or nil.
func (id Identifier) Check() error {
	if id == "" {
		return fmt.Errorf("invalid identifier: empty string")
	}
	first, _ := utf8.DecodeRuneInString(string(id))
	if !isNameStart(first) {
		return fmt.Errorf("invalid identifier %q: must start with a letter or underscore", string(id))
	}
	for _, r := range string(id) {
		if !isNameChar(r) {
			return fmt.Errorf("invalid identifier %q: illegal character %q", string(id), r)
		}
	}
	return nil
}

// Valid is Check() == nil.
func (id Identifier) Valid() bool { return id.Check() == nil }

func (id Identifier) String() string { return string(id) }

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	switch {
	case isNameStart(r), unicode.IsDigit(r):
		return true
	case r == '-', r == '.', r == 0xB7:
		return true
	case unicode.Is(unicode.Mn, r), unicode.Is(unicode.Mc, r):
		return true
	}
	return false
}
