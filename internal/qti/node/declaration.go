package node

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-qti/internal/qti/attribute"
	"github.com/mind-engage/mindengage-qti/internal/qti/validation"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

// Declaration is a response, outcome or template variable declaration.
type Declaration interface {
	Node
	Identifier() value.Identifier
	Cardinality() value.Cardinality
	BaseType() value.BaseType
	DefaultValue() *DefaultValue
	// Initial is the value the variable takes when a session starts.
	Initial() (value.Value, error)
}

type declaration struct {
	base
	identifier  *attribute.Single[value.Identifier]
	cardinality *attribute.Single[value.Cardinality]
	baseType    *attribute.Single[value.BaseType]
	defaults    *Group
}

func newDeclaration(doc *Document, id, parent ID, class string) declaration {
	d := declaration{base: newBase(doc, id, parent, class)}
	d.identifier = attribute.NewIdentifier("identifier", true)
	d.cardinality = attribute.NewCardinality("cardinality", true)
	d.baseType = attribute.NewBaseType("baseType", false)
	d.attrs = attribute.NewList(d.identifier, d.cardinality, d.baseType)
	return d
}

func (d *declaration) Identifier() value.Identifier       { return d.identifier.Get() }
func (d *declaration) SetIdentifier(id value.Identifier)  { d.identifier.Set(id) }
func (d *declaration) Cardinality() value.Cardinality     { return d.cardinality.Get() }
func (d *declaration) SetCardinality(c value.Cardinality) { d.cardinality.Set(c) }
func (d *declaration) BaseType() value.BaseType           { return d.baseType.Get() }
func (d *declaration) SetBaseType(b value.BaseType)       { d.baseType.Set(b) }
func (d *declaration) DefaultValueGroup() *Group          { return d.defaults }

// DefaultValue returns the defaultValue child, or nil.
func (d *declaration) DefaultValue() *DefaultValue {
	dv, _ := d.defaults.Get().(*DefaultValue)
	return dv
}

// Initial evaluates the default value, falling back to NULL for single and
// an empty container or record otherwise.
func (d *declaration) Initial() (value.Value, error) {
	if dv := d.DefaultValue(); dv != nil {
		return dv.Evaluate()
	}
	return Empty(d.Cardinality(), d.BaseType()), nil
}

func (d *declaration) checkShape(ctx *validation.Context, owner Node) {
	c, b := d.Cardinality(), d.BaseType()
	if !c.Valid() {
		return
	}
	if c == value.Record && d.baseType.IsSet() {
		ctx.Errorf(owner, "Record variable %s must not declare a baseType", d.Identifier())
	}
	if c != value.Record && b == "" {
		ctx.Errorf(owner, "Variable %s with %s cardinality requires a baseType", d.Identifier(), c)
	}
}

// Empty is the unset value of a variable with the given shape.
func Empty(c value.Cardinality, b value.BaseType) value.Value {
	switch c {
	case value.Multiple, value.Ordered:
		l, err := value.NewList(c, b)
		if err != nil {
			return value.Null
		}
		return l
	case value.Record:
		return value.RecordValue{}
	}
	return value.Null
}

// ResponseDeclaration declares a candidate response variable.
type ResponseDeclaration struct {
	declaration
	correct *Group
	mapping *Group
}

func newResponseDeclaration(doc *Document, id, parent ID) Node {
	n := &ResponseDeclaration{declaration: newDeclaration(doc, id, parent, ClassResponseDeclaration)}
	n.defaults = n.addGroup(ClassDefaultValue, 0, 1, ClassDefaultValue)
	n.correct = n.addGroup(ClassCorrectResponse, 0, 1, ClassCorrectResponse)
	n.mapping = n.addGroup(ClassMapping, 0, 1, ClassMapping)
	return n
}

func (n *ResponseDeclaration) CorrectResponseGroup() *Group { return n.correct }
func (n *ResponseDeclaration) MappingGroup() *Group         { return n.mapping }

// CorrectResponse returns the correctResponse child, or nil.
func (n *ResponseDeclaration) CorrectResponse() *CorrectResponse {
	cr, _ := n.correct.Get().(*CorrectResponse)
	return cr
}

// Mapping returns the mapping child, or nil.
func (n *ResponseDeclaration) Mapping() *Mapping {
	m, _ := n.mapping.Get().(*Mapping)
	return m
}

func (n *ResponseDeclaration) Check(ctx *validation.Context) {
	n.checkShape(ctx, n)
	if n.Cardinality() == value.Record && n.Mapping() != nil {
		ctx.Errorf(n, "Record variable %s cannot have a mapping", n.Identifier())
	}
}

// OutcomeDeclaration declares an outcome variable set by response processing.
type OutcomeDeclaration struct {
	declaration
	normalMaximum *attribute.Single[float64]
	normalMinimum *attribute.Single[float64]
}

func newOutcomeDeclaration(doc *Document, id, parent ID) Node {
	n := &OutcomeDeclaration{declaration: newDeclaration(doc, id, parent, ClassOutcomeDeclaration)}
	n.normalMaximum = attribute.NewFloat("normalMaximum", false)
	n.normalMinimum = attribute.NewFloat("normalMinimum", false)
	n.attrs = attribute.NewList(n.identifier, n.cardinality, n.baseType, n.normalMaximum, n.normalMinimum)
	n.defaults = n.addGroup(ClassDefaultValue, 0, 1, ClassDefaultValue)
	return n
}

func (n *OutcomeDeclaration) NormalMaximum() (float64, bool) { return n.normalMaximum.Value() }
func (n *OutcomeDeclaration) NormalMinimum() (float64, bool) { return n.normalMinimum.Value() }

func (n *OutcomeDeclaration) Check(ctx *validation.Context) {
	n.checkShape(ctx, n)
	lo, hasLo := n.NormalMinimum()
	hi, hasHi := n.NormalMaximum()
	if hasLo && hasHi && lo > hi {
		ctx.Errorf(n, "normalMinimum %s is greater than normalMaximum %s", value.FormatFloat(lo), value.FormatFloat(hi))
	}
}

// TemplateDeclaration declares a template variable.
type TemplateDeclaration struct {
	declaration
	paramVariable *attribute.Single[bool]
	mathVariable  *attribute.Single[bool]
}

func newTemplateDeclaration(doc *Document, id, parent ID) Node {
	n := &TemplateDeclaration{declaration: newDeclaration(doc, id, parent, ClassTemplateDeclaration)}
	n.paramVariable = attribute.NewBoolean("paramVariable", false).WithDefault(false)
	n.mathVariable = attribute.NewBoolean("mathVariable", false).WithDefault(false)
	n.attrs = attribute.NewList(n.identifier, n.cardinality, n.baseType, n.paramVariable, n.mathVariable)
	n.defaults = n.addGroup(ClassDefaultValue, 0, 1, ClassDefaultValue)
	return n
}

func (n *TemplateDeclaration) ParamVariable() bool { return n.paramVariable.Get() }
func (n *TemplateDeclaration) MathVariable() bool  { return n.mathVariable.Get() }

func (n *TemplateDeclaration) Check(ctx *validation.Context) {
	n.checkShape(ctx, n)
}

// valueSet is the shared shape of defaultValue and correctResponse: an
// ordered list of value children interpreted against the parent declaration.
type valueSet struct {
	base
	interpretation *attribute.Single[string]
	values         *Group
}

func newValueSet(doc *Document, id, parent ID, class string) valueSet {
	s := valueSet{base: newBase(doc, id, parent, class)}
	s.interpretation = attribute.NewString("interpretation", false)
	s.attrs = attribute.NewList(s.interpretation)
	s.values = s.addGroup(ClassValue, 1, Unbounded, ClassValue)
	return s
}

func (s *valueSet) ValueGroup() *Group { return s.values }

func (s *valueSet) Values() []*ValueNode { return childrenAs[*ValueNode](s.values) }

// AddValue appends a value child holding text.
func (s *valueSet) AddValue(text string) (*ValueNode, error) {
	n, err := s.values.Append(ClassValue)
	if err != nil {
		return nil, err
	}
	v := n.(*ValueNode)
	v.SetText(text)
	return v, nil
}

func (s *valueSet) declaration() Declaration {
	d, _ := s.Parent().(Declaration)
	return d
}

// Evaluate builds the value against the enclosing declaration.
func (s *valueSet) Evaluate() (value.Value, error) {
	d := s.declaration()
	if d == nil {
		return nil, errors.Errorf("%s is not inside a variable declaration", s.class)
	}
	if d.Cardinality() == value.Record {
		return s.evaluateRecord()
	}
	texts := make([]string, 0, s.values.Len())
	for _, v := range s.Values() {
		texts = append(texts, v.Text())
	}
	return value.FromLiterals(d.Cardinality(), d.BaseType(), texts)
}

func (s *valueSet) evaluateRecord() (value.Value, error) {
	var r value.RecordValue
	for i, v := range s.Values() {
		field, ok := v.FieldIdentifier()
		if !ok {
			return nil, errors.Errorf("record value %d has no fieldIdentifier", i)
		}
		bt, ok := v.BaseType()
		if !ok {
			return nil, errors.Errorf("record field %s has no baseType", field)
		}
		sc, err := bt.Parse(v.Text())
		if err != nil {
			return nil, errors.Wrapf(err, "record field %s", field)
		}
		if r, err = r.With(field, sc); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (s *valueSet) check(ctx *validation.Context, owner Node) {
	if s.declaration() == nil {
		return
	}
	if _, err := s.Evaluate(); err != nil {
		ctx.Errorf(owner, "Invalid %s: %v", s.class, err)
	}
}

// DefaultValue holds the initial value of a variable.
type DefaultValue struct{ valueSet }

func newDefaultValue(doc *Document, id, parent ID) Node {
	return &DefaultValue{valueSet: newValueSet(doc, id, parent, ClassDefaultValue)}
}

func (n *DefaultValue) Check(ctx *validation.Context) { n.check(ctx, n) }

// CorrectResponse holds the expected value of a response variable.
type CorrectResponse struct{ valueSet }

func newCorrectResponse(doc *Document, id, parent ID) Node {
	return &CorrectResponse{valueSet: newValueSet(doc, id, parent, ClassCorrectResponse)}
}

func (n *CorrectResponse) Check(ctx *validation.Context) { n.check(ctx, n) }

// ValueNode is one literal inside a defaultValue or correctResponse.
type ValueNode struct {
	base
	fieldIdentifier *attribute.Single[value.Identifier]
	baseType        *attribute.Single[value.BaseType]
	text            string
}

func newValueNode(doc *Document, id, parent ID) Node {
	n := &ValueNode{base: newBase(doc, id, parent, ClassValue)}
	n.fieldIdentifier = attribute.NewIdentifier("fieldIdentifier", false)
	n.baseType = attribute.NewBaseType("baseType", false)
	n.attrs = attribute.NewList(n.fieldIdentifier, n.baseType)
	return n
}

func (n *ValueNode) Text() string     { return n.text }
func (n *ValueNode) SetText(s string) { n.text = s }

func (n *ValueNode) FieldIdentifier() (value.Identifier, bool) { return n.fieldIdentifier.Value() }
func (n *ValueNode) SetFieldIdentifier(id value.Identifier)    { n.fieldIdentifier.Set(id) }
func (n *ValueNode) BaseType() (value.BaseType, bool)          { return n.baseType.Value() }
func (n *ValueNode) SetBaseType(b value.BaseType)              { n.baseType.Set(b) }

// Mapping maps response values to scores.
type Mapping struct {
	base
	lowerBound   *attribute.Single[float64]
	upperBound   *attribute.Single[float64]
	defaultValue *attribute.Single[float64]
	entries      *Group
}

func newMapping(doc *Document, id, parent ID) Node {
	n := &Mapping{base: newBase(doc, id, parent, ClassMapping)}
	n.lowerBound = attribute.NewFloat("lowerBound", false)
	n.upperBound = attribute.NewFloat("upperBound", false)
	n.defaultValue = attribute.NewFloat("defaultValue", false).WithDefault(0)
	n.attrs = attribute.NewList(n.lowerBound, n.upperBound, n.defaultValue)
	n.entries = n.addGroup(ClassMapEntry, 1, Unbounded, ClassMapEntry)
	return n
}

func (n *Mapping) LowerBound() (float64, bool) { return n.lowerBound.Value() }
func (n *Mapping) SetLowerBound(f float64)     { n.lowerBound.Set(f) }
func (n *Mapping) UpperBound() (float64, bool) { return n.upperBound.Value() }
func (n *Mapping) SetUpperBound(f float64)     { n.upperBound.Set(f) }
func (n *Mapping) DefaultValue() float64       { return n.defaultValue.Get() }
func (n *Mapping) SetDefaultValue(f float64)   { n.defaultValue.Set(f) }
func (n *Mapping) EntryGroup() *Group          { return n.entries }
func (n *Mapping) Entries() []*MapEntry        { return childrenAs[*MapEntry](n.entries) }

// AddEntry appends a mapEntry.
func (n *Mapping) AddEntry(key string, mapped float64) (*MapEntry, error) {
	c, err := n.entries.Append(ClassMapEntry)
	if err != nil {
		return nil, err
	}
	e := c.(*MapEntry)
	e.mapKey.Set(key)
	e.mappedValue.Set(mapped)
	return e, nil
}

// Lookup returns the mapped value of the first entry whose key equals s.
func (n *Mapping) Lookup(s value.Scalar) (float64, bool) {
	for _, e := range n.Entries() {
		if e.Matches(s) {
			return e.MappedValue(), true
		}
	}
	return 0, false
}

func (n *Mapping) Check(ctx *validation.Context) {
	lo, hasLo := n.LowerBound()
	hi, hasHi := n.UpperBound()
	if hasLo && hasHi && lo > hi {
		ctx.Errorf(n, "lowerBound %s is greater than upperBound %s", value.FormatFloat(lo), value.FormatFloat(hi))
	}
}

// MapEntry maps one key to a score.
type MapEntry struct {
	base
	mapKey        *attribute.Single[string]
	mappedValue   *attribute.Single[float64]
	caseSensitive *attribute.Single[bool]
}

func newMapEntry(doc *Document, id, parent ID) Node {
	n := &MapEntry{base: newBase(doc, id, parent, ClassMapEntry)}
	n.mapKey = attribute.NewString("mapKey", true)
	n.mappedValue = attribute.NewFloat("mappedValue", true)
	n.caseSensitive = attribute.NewBoolean("caseSensitive", false).WithDefault(true)
	n.attrs = attribute.NewList(n.mapKey, n.mappedValue, n.caseSensitive)
	return n
}

func (n *MapEntry) MapKey() string          { return n.mapKey.Get() }
func (n *MapEntry) MappedValue() float64    { return n.mappedValue.Get() }
func (n *MapEntry) CaseSensitive() bool     { return n.caseSensitive.Get() }
func (n *MapEntry) SetCaseSensitive(b bool) { n.caseSensitive.Set(b) }

func (n *MapEntry) declaration() *ResponseDeclaration {
	m := n.Parent()
	if m == nil {
		return nil
	}
	d, _ := m.Parent().(*ResponseDeclaration)
	return d
}

// Key parses the map key as the base type of the enclosing declaration.
func (n *MapEntry) Key() (value.Scalar, error) {
	d := n.declaration()
	if d == nil {
		return nil, errors.New("mapEntry is not inside a responseDeclaration")
	}
	return d.BaseType().Parse(n.MapKey())
}

// Matches compares s with the key. Case-insensitive entries compare string
// keys by Unicode case folding.
func (n *MapEntry) Matches(s value.Scalar) bool {
	if !n.CaseSensitive() {
		if str, ok := s.(value.StringValue); ok {
			return strings.EqualFold(string(str), n.MapKey())
		}
	}
	k, err := n.Key()
	if err != nil {
		return false
	}
	return k.Equal(s)
}

func (n *MapEntry) Check(ctx *validation.Context) {
	d := n.declaration()
	if d == nil || !n.mapKey.IsSet() || !d.BaseType().Valid() {
		return
	}
	if _, err := n.Key(); err != nil {
		ctx.Errorf(n, "Invalid mapKey %q: %v", n.MapKey(), err)
	}
}
