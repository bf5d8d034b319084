// Package value implements the closed algebra of runtime values: scalars of a
// BaseType, the Multiple and Ordered containers, Record, and NULL.
//
// Values are immutable once constructed. Containers copy their input.
package value

// Value is any runtime value. Scalars are themselves single-cardinality values.
type Value interface {
	Cardinality() Cardinality
	// BaseType is empty for records and NULL.
	BaseType() BaseType
	IsNull() bool
	Equal(other Value) bool
	String() string
}

// Scalar is a single value of a specific base type.
type Scalar interface {
	Value
	scalar()
}

// NullValue is the distinguished absence of a single value.
type NullValue struct{}

// Null is the NULL value.
var Null Value = NullValue{}

func (NullValue) Cardinality() Cardinality { return Single }
func (NullValue) BaseType() BaseType       { return "" }
func (NullValue) IsNull() bool             { return true }
func (NullValue) String() string           { return "" }

func (NullValue) Equal(other Value) bool {
	return other != nil && other.IsNull()
}

// IsNull reports whether v is nil or NULL.
func IsNull(v Value) bool {
	return v == nil || v.IsNull()
}

// Equal compares two values structurally, treating nil as NULL.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	return a.Equal(b)
}
