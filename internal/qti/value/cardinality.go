package value

import "fmt"

// Cardinality is the container shape of a value, independent of its BaseType.
type Cardinality string

const (
	Single   Cardinality = "single"
	Multiple Cardinality = "multiple"
	Ordered  Cardinality = "ordered"
	Record   Cardinality = "record"
)

// Cardinalities lists every cardinality in declaration order.
var Cardinalities = []Cardinality{Single, Multiple, Ordered, Record}

// ParseCardinality maps the attribute literal to a Cardinality.
func ParseCardinality(s string) (Cardinality, error) {
	c := Cardinality(s)
	if !c.Valid() {
		return "", fmt.Errorf("invalid cardinality: %q", s)
	}
	return c, nil
}

func (c Cardinality) Valid() bool {
	switch c {
	case Single, Multiple, Ordered, Record:
		return true
	}
	return false
}

func (c Cardinality) IsSingle() bool   { return c == Single }
func (c Cardinality) IsMultiple() bool { return c == Multiple }
func (c Cardinality) IsOrdered() bool  { return c == Ordered }
func (c Cardinality) IsRecord() bool   { return c == Record }

// IsList is true for the two container cardinalities holding scalars.
func (c Cardinality) IsList() bool { return c == Multiple || c == Ordered }

func (c Cardinality) String() string { return string(c) }
