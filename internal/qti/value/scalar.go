package value

import (
	"math"
	"strconv"
	"time"
)

type (
	IdentifierValue Identifier
	BooleanValue    bool
	IntegerValue    int
	FloatValue      float64
	StringValue     string
	DurationValue   time.Duration
	URIValue        string
)

// PointValue is an integer coordinate pair.
type PointValue struct{ X, Y int }

// PairValue is an unordered pair of identifiers.
type PairValue struct{ First, Second Identifier }

// DirectedPairValue is an ordered pair of identifiers.
type DirectedPairValue struct{ Source, Destination Identifier }

// FileValue references submitted file content held by a collaborator.
type FileValue struct {
	Name        string
	ContentType string
}

func (IdentifierValue) scalar()   {}
func (BooleanValue) scalar()      {}
func (IntegerValue) scalar()      {}
func (FloatValue) scalar()        {}
func (StringValue) scalar()       {}
func (DurationValue) scalar()     {}
func (URIValue) scalar()          {}
func (PointValue) scalar()        {}
func (PairValue) scalar()         {}
func (DirectedPairValue) scalar() {}
func (FileValue) scalar()         {}

func (IdentifierValue) BaseType() BaseType   { return IdentifierType }
func (BooleanValue) BaseType() BaseType      { return BooleanType }
func (IntegerValue) BaseType() BaseType      { return IntegerType }
func (FloatValue) BaseType() BaseType        { return FloatType }
func (StringValue) BaseType() BaseType       { return StringType }
func (DurationValue) BaseType() BaseType     { return DurationType }
func (URIValue) BaseType() BaseType          { return URIType }
func (PointValue) BaseType() BaseType        { return PointType }
func (PairValue) BaseType() BaseType         { return PairType }
func (DirectedPairValue) BaseType() BaseType { return DirectedPairType }
func (FileValue) BaseType() BaseType         { return FileType }

func (IdentifierValue) Cardinality() Cardinality   { return Single }
func (BooleanValue) Cardinality() Cardinality      { return Single }
func (IntegerValue) Cardinality() Cardinality      { return Single }
func (FloatValue) Cardinality() Cardinality        { return Single }
func (StringValue) Cardinality() Cardinality       { return Single }
func (DurationValue) Cardinality() Cardinality     { return Single }
func (URIValue) Cardinality() Cardinality          { return Single }
func (PointValue) Cardinality() Cardinality        { return Single }
func (PairValue) Cardinality() Cardinality         { return Single }
func (DirectedPairValue) Cardinality() Cardinality { return Single }
func (FileValue) Cardinality() Cardinality         { return Single }

func (IdentifierValue) IsNull() bool   { return false }
func (BooleanValue) IsNull() bool      { return false }
func (IntegerValue) IsNull() bool      { return false }
func (FloatValue) IsNull() bool        { return false }
func (StringValue) IsNull() bool       { return false }
func (DurationValue) IsNull() bool     { return false }
func (URIValue) IsNull() bool          { return false }
func (PointValue) IsNull() bool        { return false }
func (PairValue) IsNull() bool         { return false }
func (DirectedPairValue) IsNull() bool { return false }
func (FileValue) IsNull() bool         { return false }

func (v IdentifierValue) String() string { return string(v) }
func (v StringValue) String() string     { return string(v) }
func (v URIValue) String() string        { return string(v) }
func (v FileValue) String() string       { return v.Name }

func (v BooleanValue) String() string {
	return strconv.FormatBool(bool(v))
}

func (v IntegerValue) String() string {
	return strconv.Itoa(int(v))
}

// String renders v in plain decimal notation where practical and falls back
// to exponent notation for very large or very small magnitudes.
func (v FloatValue) String() string {
	return FormatFloat(float64(v))
}

// FormatFloat is the canonical float rendering shared with other packages.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NaN"
	}
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// String renders whole-second durations in ISO-8601 form and anything finer
// as plain seconds.
func (v DurationValue) String() string {
	d := time.Duration(v)
	if d%time.Second == 0 {
		return "PT" + strconv.FormatInt(int64(d/time.Second), 10) + "S"
	}
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func (v PointValue) String() string {
	return strconv.Itoa(v.X) + " " + strconv.Itoa(v.Y)
}

func (v PairValue) String() string {
	return string(v.First) + " " + string(v.Second)
}

func (v DirectedPairValue) String() string {
	return string(v.Source) + " " + string(v.Destination)
}

func (v IdentifierValue) Equal(o Value) bool {
	x, ok := o.(IdentifierValue)
	return ok && x == v
}

func (v BooleanValue) Equal(o Value) bool {
	x, ok := o.(BooleanValue)
	return ok && x == v
}

func (v IntegerValue) Equal(o Value) bool {
	x, ok := o.(IntegerValue)
	return ok && x == v
}

// Equal treats NaN as equal to NaN so that every parsed float equals its
// own re-parsed string form.
func (v FloatValue) Equal(o Value) bool {
	x, ok := o.(FloatValue)
	if !ok {
		return false
	}
	return x == v || math.IsNaN(float64(x)) && math.IsNaN(float64(v))
}

func (v StringValue) Equal(o Value) bool {
	x, ok := o.(StringValue)
	return ok && x == v
}

func (v DurationValue) Equal(o Value) bool {
	x, ok := o.(DurationValue)
	return ok && x == v
}

func (v URIValue) Equal(o Value) bool {
	x, ok := o.(URIValue)
	return ok && x == v
}

func (v PointValue) Equal(o Value) bool {
	x, ok := o.(PointValue)
	return ok && x == v
}

// Equal ignores the order of the two identifiers.
func (v PairValue) Equal(o Value) bool {
	x, ok := o.(PairValue)
	if !ok {
		return false
	}
	return x == v || (x.First == v.Second && x.Second == v.First)
}

func (v DirectedPairValue) Equal(o Value) bool {
	x, ok := o.(DirectedPairValue)
	return ok && x == v
}

func (v FileValue) Equal(o Value) bool {
	x, ok := o.(FileValue)
	return ok && x == v
}
