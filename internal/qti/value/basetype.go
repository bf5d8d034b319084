package value

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/peterhellberg/duration"
)

// BaseType is the scalar kind of a value.
type BaseType string

const (
	IdentifierType   BaseType = "identifier"
	BooleanType      BaseType = "boolean"
	IntegerType      BaseType = "integer"
	FloatType        BaseType = "float"
	StringType       BaseType = "string"
	PointType        BaseType = "point"
	PairType         BaseType = "pair"
	DirectedPairType BaseType = "directedPair"
	DurationType     BaseType = "duration"
	FileType         BaseType = "file"
	URIType          BaseType = "uri"
)

// BaseTypes lists every base type in declaration order.
var BaseTypes = []BaseType{
	IdentifierType, BooleanType, IntegerType, FloatType, StringType,
	PointType, PairType, DirectedPairType, DurationType, FileType, URIType,
}

// ParseBaseType maps the attribute literal to a BaseType.
func ParseBaseType(s string) (BaseType, error) {
	b := BaseType(s)
	if !b.Valid() {
		return "", fmt.Errorf("invalid baseType: %q", s)
	}
	return b, nil
}

func (b BaseType) Valid() bool {
	for _, t := range BaseTypes {
		if t == b {
			return true
		}
	}
	return false
}

func (b BaseType) IsIdentifier() bool { return b == IdentifierType }
func (b BaseType) IsBoolean() bool    { return b == BooleanType }
func (b BaseType) IsInteger() bool    { return b == IntegerType }
func (b BaseType) IsFloat() bool      { return b == FloatType }
func (b BaseType) IsString() bool     { return b == StringType }
func (b BaseType) IsPoint() bool      { return b == PointType }
func (b BaseType) IsDuration() bool   { return b == DurationType }
func (b BaseType) IsFile() bool       { return b == FileType }
func (b BaseType) IsURI() bool        { return b == URIType }

// IsNumeric is true for integer and float.
func (b BaseType) IsNumeric() bool { return b == IntegerType || b == FloatType }

// IsPair is true for pair and directedPair.
func (b BaseType) IsPair() bool { return b == PairType || b == DirectedPairType }

func (b BaseType) String() string { return string(b) }

// Parse converts a literal into a scalar of this base type.
func (b BaseType) Parse(s string) (Scalar, error) {
	sc, err := b.parse(s)
	if err != nil {
		return nil, &ParseError{BaseType: b, Text: s, Err: err}
	}
	return sc, nil
}

func (b BaseType) parse(s string) (Scalar, error) {
	switch b {
	case IdentifierType:
		id, err := ParseIdentifier(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		return IdentifierValue(id), nil
	case BooleanType:
		return parseBoolean(s)
	case IntegerType:
		i, err := ParseInteger(s, 10)
		if err != nil {
			return nil, err
		}
		return IntegerValue(i), nil
	case FloatType:
		f, err := ParseFloat(s)
		if err != nil {
			return nil, err
		}
		return FloatValue(f), nil
	case StringType:
		return StringValue(s), nil
	case PointType:
		return parsePoint(s)
	case PairType, DirectedPairType:
		return parsePair(b, s)
	case DurationType:
		return parseDuration(s)
	case FileType:
		if s == "" {
			return nil, fmt.Errorf("empty file reference")
		}
		return FileValue{Name: s}, nil
	case URIType:
		if _, err := url.Parse(strings.TrimSpace(s)); err != nil {
			return nil, err
		}
		return URIValue(strings.TrimSpace(s)), nil
	}
	return nil, fmt.Errorf("unsupported baseType %q", string(b))
}

// ParseInteger parses a signed integer literal in the given radix.
// A leading '+' is accepted.
func ParseInteger(s string, base int) (int, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, fmt.Errorf("invalid integer: empty string")
	}
	i, err := strconv.ParseInt(t, base, strconv.IntSize)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %s", t)
	}
	return int(i), nil
}

// ParseFloat parses a locale-independent float literal. INF, -INF and NaN
// are accepted in their XML Schema spelling.
func ParseFloat(s string) (float64, error) {
	t := strings.TrimSpace(s)
	switch t {
	case "":
		return 0, fmt.Errorf("invalid float: empty string")
	case "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	for _, r := range t {
		if !(r >= '0' && r <= '9' || r == '.' || r == 'e' || r == 'E' || r == '+' || r == '-') {
			return 0, fmt.Errorf("invalid float: %s", t)
		}
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float: %s", t)
	}
	return f, nil
}

func parseBoolean(s string) (Scalar, error) {
	switch strings.TrimSpace(s) {
	case "true", "1":
		return BooleanValue(true), nil
	case "false", "0":
		return BooleanValue(false), nil
	}
	return nil, fmt.Errorf("invalid boolean: %s", s)
}

func parsePoint(s string) (Scalar, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid point: expected 2 components, got %d", len(parts))
	}
	x, err := ParseInteger(parts[0], 10)
	if err != nil {
		return nil, err
	}
	y, err := ParseInteger(parts[1], 10)
	if err != nil {
		return nil, err
	}
	return PointValue{X: x, Y: y}, nil
}

func parsePair(b BaseType, s string) (Scalar, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid %s: expected 2 identifiers, got %d", b, len(parts))
	}
	first, err := ParseIdentifier(parts[0])
	if err != nil {
		return nil, err
	}
	second, err := ParseIdentifier(parts[1])
	if err != nil {
		return nil, err
	}
	if b == DirectedPairType {
		return DirectedPairValue{Source: first, Destination: second}, nil
	}
	return PairValue{First: first, Second: second}, nil
}

// parseDuration accepts ISO-8601 durations ("PT1M30S") and plain seconds ("90.5").
func parseDuration(s string) (Scalar, error) {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "P") {
		d, err := duration.Parse(t)
		if err != nil {
			return nil, fmt.Errorf("invalid duration: %s", t)
		}
		return DurationValue(d), nil
	}
	secs, err := ParseFloat(t)
	if err != nil || secs < 0 || math.IsInf(secs, 0) || math.IsNaN(secs) {
		return nil, fmt.Errorf("invalid duration: %s", t)
	}
	return DurationValue(time.Duration(secs * float64(time.Second))), nil
}
