package value

// FromLiterals builds a value of the given shape from scalar literals, as
// used for defaultValue and correctResponse content. No literals yields NULL
// for single cardinality and an empty container otherwise. Records are built
// with NewRecord instead.
func FromLiterals(c Cardinality, b BaseType, literals []string) (Value, error) {
	switch c {
	case Single:
		switch len(literals) {
		case 0:
			return Null, nil
		case 1:
			return b.Parse(literals[0])
		}
		return nil, &CardinalityError{Expected: []Cardinality{Multiple, Ordered}, Actual: Single}
	case Multiple, Ordered:
		items := make([]Scalar, 0, len(literals))
		for _, lit := range literals {
			s, err := b.Parse(lit)
			if err != nil {
				return nil, err
			}
			items = append(items, s)
		}
		return NewList(c, b, items...)
	}
	return nil, &CardinalityError{Expected: []Cardinality{Single, Multiple, Ordered}, Actual: c}
}

// Literals returns the scalar string forms of v: none for NULL, one for a
// scalar, one per element for containers. Records have no flat form.
func Literals(v Value) []string {
	switch x := v.(type) {
	case nil, NullValue:
		return nil
	case ListValue:
		out := make([]string, len(x.items))
		for i, it := range x.items {
			out[i] = it.String()
		}
		return out
	case RecordValue:
		return nil
	}
	return []string{v.String()}
}
