package value

import "strings"

// ListValue is a Multiple or Ordered container of scalars sharing one base type.
// An empty container means "no values"; it never holds NULL elements.
type ListValue struct {
	card     Cardinality
	baseType BaseType
	items    []Scalar
}

// NewMultiple builds an unordered bag of scalars of base type b.
func NewMultiple(b BaseType, items ...Scalar) (ListValue, error) {
	return newList(Multiple, b, items)
}

// NewOrdered builds an ordered sequence of scalars of base type b.
func NewOrdered(b BaseType, items ...Scalar) (ListValue, error) {
	return newList(Ordered, b, items)
}

// NewList builds a Multiple or Ordered container depending on c.
func NewList(c Cardinality, b BaseType, items ...Scalar) (ListValue, error) {
	if !c.IsList() {
		return ListValue{}, &CardinalityError{Expected: []Cardinality{Multiple, Ordered}, Actual: c}
	}
	return newList(c, b, items)
}

func newList(c Cardinality, b BaseType, items []Scalar) (ListValue, error) {
	if !b.Valid() {
		return ListValue{}, &TypeMismatchError{Expected: b, Position: -1}
	}
	cp := make([]Scalar, 0, len(items))
	for i, it := range items {
		if it == nil || it.IsNull() {
			return ListValue{}, &TypeMismatchError{Expected: b, Position: i}
		}
		if it.BaseType() != b {
			return ListValue{}, &TypeMismatchError{Expected: b, Actual: it.BaseType(), Position: i}
		}
		cp = append(cp, it)
	}
	return ListValue{card: c, baseType: b, items: cp}, nil
}

func (l ListValue) Cardinality() Cardinality { return l.card }
func (l ListValue) BaseType() BaseType       { return l.baseType }
func (l ListValue) IsNull() bool             { return false }
func (l ListValue) Len() int                 { return len(l.items) }
func (l ListValue) Empty() bool              { return len(l.items) == 0 }

// Items returns a copy of the contained scalars.
func (l ListValue) Items() []Scalar {
	return append([]Scalar(nil), l.items...)
}

// Contains reports whether some element equals s.
func (l ListValue) Contains(s Scalar) bool {
	for _, it := range l.items {
		if it.Equal(s) {
			return true
		}
	}
	return false
}

// Equal compares ordered containers element-wise and multiple containers as
// multisets.
func (l ListValue) Equal(o Value) bool {
	x, ok := o.(ListValue)
	if !ok || x.card != l.card || x.baseType != l.baseType || len(x.items) != len(l.items) {
		return false
	}
	if l.card == Ordered {
		for i := range l.items {
			if !l.items[i].Equal(x.items[i]) {
				return false
			}
		}
		return true
	}
	used := make([]bool, len(x.items))
outer:
	for _, a := range l.items {
		for j, b := range x.items {
			if !used[j] && a.Equal(b) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}

func (l ListValue) String() string {
	parts := make([]string, len(l.items))
	for i, it := range l.items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
