// Package numstring breaks a decimal numeric literal into the digit, exponent
// and significant-figure facts used by string-entry interactions bound to
// record response variables.
package numstring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

// Record field names.
const (
	FieldStringValue  value.Identifier = "stringValue"
	FieldFloatValue   value.Identifier = "floatValue"
	FieldIntegerValue value.Identifier = "integerValue"
	FieldLeftDigits   value.Identifier = "leftDigits"
	FieldRightDigits  value.Identifier = "rightDigits"
	FieldNDP          value.Identifier = "ndp"
	FieldNSF          value.Identifier = "nsf"
	FieldExponent     value.Identifier = "exponent"
)

// Decomposition holds the facts extracted from a literal. Optional facts are
// nil when absent.
type Decomposition struct {
	String      string
	Float       *float64
	Integer     *int
	LeftDigits  int
	RightDigits int
	NDP         int
	NSF         int
	Exponent    *int
}

// Error reports a literal that is not a decimal number.
type Error struct {
	Text   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot decompose %q: %s", e.Text, e.Reason)
}

// Decompose analyses s. Only radix 10 is handled; callers route other radices
// to integer parsing. A literal carrying both 'e' and 'E' is rejected.
func Decompose(s string) (Decomposition, error) {
	d := Decomposition{String: s}

	lower, upper := strings.IndexRune(s, 'e'), strings.IndexRune(s, 'E')
	if lower >= 0 && upper >= 0 {
		return d, &Error{Text: s, Reason: "mixed exponent markers"}
	}
	marker := lower
	if upper >= 0 {
		marker = upper
	}

	mantissa := s
	if marker >= 0 {
		mantissa = s[:marker]
		expText := s[marker+1:]
		exp := 0
		if expText != "" {
			n, err := strconv.Atoi(expText)
			if err != nil {
				return d, &Error{Text: s, Reason: fmt.Sprintf("invalid exponent %q", expText)}
			}
			exp = n
		}
		d.Exponent = &exp
	}

	left, right, hasPoint := strings.Cut(mantissa, ".")
	sign, digits := splitSign(left)
	if !allDigits(digits) || !allDigits(right) {
		return d, &Error{Text: s, Reason: "mantissa is not a decimal digit run"}
	}
	if digits == "" && right == "" {
		return d, &Error{Text: s, Reason: "no digits"}
	}

	d.LeftDigits = countRunes(digits)
	d.RightDigits = countRunes(right)

	d.NDP = d.RightDigits
	if d.Exponent != nil {
		d.NDP -= *d.Exponent
	}

	if digits != "" {
		trimmed := strings.TrimLeft(digits, "0")
		if trimmed == "" {
			trimmed = "0"
		}
		d.NSF = countRunes(trimmed)
	}
	d.NSF += d.RightDigits

	if !hasPoint && d.Exponent == nil {
		n, err := strconv.Atoi(sign + digits)
		if err != nil {
			return d, &Error{Text: s, Reason: "integer out of range"}
		}
		d.Integer = &n
	}

	if f, err := value.ParseFloat(s); err == nil {
		d.Float = &f
	}
	return d, nil
}

// Record renders d as a record value. Optional facts that are absent become
// NULL fields, except floatValue which is omitted when the literal does not
// fit a float.
func (d Decomposition) Record() value.RecordValue {
	fields := []value.Field{
		{Name: FieldStringValue, Value: value.StringValue(d.String)},
	}
	if d.Float != nil {
		fields = append(fields, value.Field{Name: FieldFloatValue, Value: value.FloatValue(*d.Float)})
	}
	fields = append(fields,
		value.Field{Name: FieldIntegerValue, Value: optionalInt(d.Integer)},
		value.Field{Name: FieldLeftDigits, Value: value.IntegerValue(d.LeftDigits)},
		value.Field{Name: FieldRightDigits, Value: value.IntegerValue(d.RightDigits)},
		value.Field{Name: FieldNDP, Value: value.IntegerValue(d.NDP)},
		value.Field{Name: FieldNSF, Value: value.IntegerValue(d.NSF)},
		value.Field{Name: FieldExponent, Value: optionalInt(d.Exponent)},
	)
	// every field is single or NULL and every name is a constant identifier
	r, err := value.NewRecord(fields...)
	if err != nil {
		panic(err)
	}
	return r
}

func optionalInt(p *int) value.Value {
	if p == nil {
		return value.Null
	}
	return value.IntegerValue(*p)
}

func splitSign(s string) (string, string) {
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return s[:1], s[1:]
	}
	return "", s
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func countRunes(s string) int {
	return len([]rune(s))
}
