package value

import "strings"

// Field is one named slot of a record.
type Field struct {
	Name  Identifier
	Value Value
}

// RecordValue maps field identifiers to single values or NULL. Fields keep
// their insertion order for rendering; equality ignores order.
type RecordValue struct {
	fields []Field
}

// NewRecord builds a record from fields. A later field with the same name
// replaces an earlier one in place.
func NewRecord(fields ...Field) (RecordValue, error) {
	r := RecordValue{}
	for _, f := range fields {
		var err error
		if r, err = r.With(f.Name, f.Value); err != nil {
			return RecordValue{}, err
		}
	}
	return r, nil
}

// With returns a copy of r with field name set to v. v must be a scalar,
// NULL, or nil (stored as NULL).
func (r RecordValue) With(name Identifier, v Value) (RecordValue, error) {
	if err := name.Check(); err != nil {
		return RecordValue{}, err
	}
	if v == nil {
		v = Null
	}
	if v.Cardinality() != Single {
		return RecordValue{}, &CardinalityError{Expected: []Cardinality{Single}, Actual: v.Cardinality(), Field: name}
	}
	out := RecordValue{fields: make([]Field, 0, len(r.fields)+1)}
	replaced := false
	for _, f := range r.fields {
		if f.Name == name {
			f.Value = v
			replaced = true
		}
		out.fields = append(out.fields, f)
	}
	if !replaced {
		out.fields = append(out.fields, Field{Name: name, Value: v})
	}
	return out, nil
}

func (r RecordValue) Cardinality() Cardinality { return Record }
func (r RecordValue) BaseType() BaseType       { return "" }
func (r RecordValue) IsNull() bool             { return false }
func (r RecordValue) Len() int                 { return len(r.fields) }

// Get returns the field value and whether the field is present. A present
// field may hold NULL.
func (r RecordValue) Get(name Identifier) (Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Fields returns the fields in insertion order.
func (r RecordValue) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Equal requires identical field sets and equal per-field values.
func (r RecordValue) Equal(o Value) bool {
	x, ok := o.(RecordValue)
	if !ok || len(x.fields) != len(r.fields) {
		return false
	}
	for _, f := range r.fields {
		v, ok := x.Get(f.Name)
		if !ok || !Equal(f.Value, v) {
			return false
		}
	}
	return true
}

func (r RecordValue) String() string {
	parts := make([]string, len(r.fields))
	for i, f := range r.fields {
		s := "NULL"
		if !IsNull(f.Value) {
			s = f.Value.String()
		}
		parts[i] = string(f.Name) + ": " + s
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
