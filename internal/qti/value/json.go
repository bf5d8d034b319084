package value

import (
	"encoding/json"
	"fmt"
)

type jsonValue struct {
	Cardinality Cardinality           `json:"cardinality"`
	BaseType    BaseType              `json:"baseType,omitempty"`
	Values      []string              `json:"values,omitempty"`
	Fields      map[string]*jsonValue `json:"fields,omitempty"`
	Order       []string              `json:"order,omitempty"`
}

// Marshal encodes v as JSON. NULL encodes as null.
func Marshal(v Value) ([]byte, error) {
	return json.Marshal(toJSON(v))
}

func toJSON(v Value) *jsonValue {
	if IsNull(v) {
		return nil
	}
	if r, ok := v.(RecordValue); ok {
		jv := &jsonValue{Cardinality: Record, Fields: map[string]*jsonValue{}}
		for _, f := range r.fields {
			jv.Fields[string(f.Name)] = toJSON(f.Value)
			jv.Order = append(jv.Order, string(f.Name))
		}
		return jv
	}
	return &jsonValue{Cardinality: v.Cardinality(), BaseType: v.BaseType(), Values: Literals(v)}
}

// Unmarshal decodes the form produced by Marshal.
func Unmarshal(data []byte) (Value, error) {
	var jv *jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return nil, err
	}
	return fromJSON(jv)
}

func fromJSON(jv *jsonValue) (Value, error) {
	if jv == nil {
		return Null, nil
	}
	if jv.Cardinality == Record {
		r := RecordValue{}
		for _, name := range jv.Order {
			fv, ok := jv.Fields[name]
			if !ok {
				return nil, fmt.Errorf("record field %q listed but missing", name)
			}
			v, err := fromJSON(fv)
			if err != nil {
				return nil, err
			}
			if r, err = r.With(Identifier(name), v); err != nil {
				return nil, err
			}
		}
		return r, nil
	}
	if !jv.BaseType.Valid() {
		return nil, fmt.Errorf("invalid baseType %q", string(jv.BaseType))
	}
	if jv.Cardinality == Single && len(jv.Values) == 0 {
		return nil, fmt.Errorf("single value without literal")
	}
	return FromLiterals(jv.Cardinality, jv.BaseType, jv.Values)
}

// Map is a set of named values that round-trips through JSON.
type Map map[Identifier]Value

func (m Map) MarshalJSON() ([]byte, error) {
	out := make(map[string]*jsonValue, len(m))
	for k, v := range m {
		out[string(k)] = toJSON(v)
	}
	return json.Marshal(out)
}

func (m *Map) UnmarshalJSON(data []byte) error {
	var raw map[string]*jsonValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Map, len(raw))
	for k, jv := range raw {
		v, err := fromJSON(jv)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		out[Identifier(k)] = v
	}
	*m = out
	return nil
}
