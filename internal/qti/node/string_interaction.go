package node

import (
	"github.com/mind-engage/mindengage-qti/internal/qti/attribute"
	"github.com/mind-engage/mindengage-qti/internal/qti/binding"
	"github.com/mind-engage/mindengage-qti/internal/qti/validation"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

// TextFormat is the format attribute of extendedTextInteraction.
type TextFormat string

const (
	PlainFormat        TextFormat = "plain"
	PreformattedFormat TextFormat = "preFormatted"
	XHTMLFormat        TextFormat = "xhtml"
)

// stringInteraction holds the attributes shared by the free-text
// interactions.
type stringInteraction struct {
	interaction
	radix            *attribute.Single[int]
	stringIdentifier *attribute.Single[value.Identifier]
	expectedLength   *attribute.Single[int]
	patternMask      *attribute.Single[string]
	placeholderText  *attribute.Single[string]
}

func newStringInteraction(doc *Document, id, parent ID, class string) stringInteraction {
	s := stringInteraction{interaction: newInteraction(doc, id, parent, class)}
	s.radix = attribute.NewInteger("base", false).WithDefault(10)
	s.stringIdentifier = attribute.NewIdentifier("stringIdentifier", false)
	s.expectedLength = attribute.NewInteger("expectedLength", false)
	s.patternMask = attribute.NewPattern("patternMask", false)
	s.placeholderText = attribute.NewString("placeholderText", false)
	s.attrs = attribute.NewList(s.stringAttributes()...)
	return s
}

func (s *stringInteraction) stringAttributes() []attribute.Attribute {
	return []attribute.Attribute{
		s.elementID, s.styleClass, s.responseIdentifier,
		s.radix, s.stringIdentifier, s.expectedLength, s.patternMask, s.placeholderText,
	}
}

// Base is the radix numeric input is read in.
func (s *stringInteraction) Base() int                               { return s.radix.Get() }
func (s *stringInteraction) SetBase(b int)                           { s.radix.Set(b) }
func (s *stringInteraction) StringIdentifier() value.Identifier      { return s.stringIdentifier.Get() }
func (s *stringInteraction) SetStringIdentifier(id value.Identifier) { s.stringIdentifier.Set(id) }
func (s *stringInteraction) ExpectedLength() (int, bool)             { return s.expectedLength.Value() }
func (s *stringInteraction) PatternMask() string                     { return s.patternMask.Get() }
func (s *stringInteraction) SetPatternMask(m string)                 { s.patternMask.Set(m) }
func (s *stringInteraction) PlaceholderText() string                 { return s.placeholderText.Get() }

// StringDeclaration resolves the companion variable named by
// stringIdentifier, or nil.
func (s *stringInteraction) StringDeclaration() *ResponseDeclaration {
	id := s.StringIdentifier()
	item := rootItem(s)
	if id == "" || item == nil {
		return nil
	}
	return item.ResponseDeclaration(id)
}

// bind binds the tokens to the response variable and, when a companion
// variable exists, to it as well. Both bindings must succeed before either
// value is stored.
func (s *stringInteraction) bind(sink ResponseSink, tokens []string) error {
	d := s.ResponseDeclaration()
	if d == nil {
		return s.unbound(tokens)
	}
	v, err := binding.BindString(d, tokens, s.Base())
	if err != nil {
		return err
	}
	var companion value.Value
	cd := s.StringDeclaration()
	if cd != nil {
		if companion, err = binding.BindString(cd, tokens, s.Base()); err != nil {
			return err
		}
	}
	sink.SetResponseValue(d.Identifier(), v)
	if cd != nil {
		sink.SetResponseValue(cd.Identifier(), companion)
	}
	return nil
}

func (s *stringInteraction) matches(v value.Value) bool {
	mask := s.PatternMask()
	if mask == "" {
		return true
	}
	ok, err := binding.MatchesPattern(mask, v)
	return err == nil && ok
}

func (s *stringInteraction) check(ctx *validation.Context, owner Node, cardinalities ...value.Cardinality) {
	if d := s.resolve(ctx, owner); d != nil {
		c := d.Cardinality()
		allowed := false
		for _, a := range cardinalities {
			allowed = allowed || a == c
		}
		if !allowed {
			ctx.Errorf(owner, "Response variable %s has unsupported cardinality %s", d.Identifier(), c)
		}
		if c != value.Record {
			if b := d.BaseType(); !b.IsString() && !b.IsNumeric() {
				ctx.Errorf(owner, "Response variable %s must have string or numeric baseType but has %s", d.Identifier(), b)
			}
		}
		if s.Base() != 10 && d.BaseType().IsFloat() {
			ctx.Warnf(owner, "base %d is ignored for float response variable %s", s.Base(), d.Identifier())
		}
	}
	if b := s.Base(); b < 2 || b > 36 {
		ctx.Errorf(owner, "base must be between 2 and 36 but is %d", b)
	}
	if id := s.StringIdentifier(); id != "" {
		cd := s.StringDeclaration()
		switch {
		case cd == nil:
			ctx.Errorf(owner, "Cannot find responseDeclaration %s", id)
		case cd.Cardinality() != value.Record && !cd.BaseType().IsString():
			ctx.Errorf(owner, "stringIdentifier variable %s must have string baseType but has %s", id, cd.BaseType())
		}
	}
	if l, ok := s.ExpectedLength(); ok && l <= 0 {
		ctx.Errorf(owner, "expectedLength must be positive but is %d", l)
	}
}

// TextEntryInteraction is an inline single-line text field.
type TextEntryInteraction struct {
	stringInteraction
}

func newTextEntryInteraction(doc *Document, id, parent ID) Node {
	return &TextEntryInteraction{stringInteraction: newStringInteraction(doc, id, parent, ClassTextEntryInteraction)}
}

func (n *TextEntryInteraction) BindResponse(sink ResponseSink, tokens []string) error {
	return n.bind(sink, tokens)
}

func (n *TextEntryInteraction) ValidateResponse(v value.Value) bool {
	return n.matches(v)
}

func (n *TextEntryInteraction) Check(ctx *validation.Context) {
	n.check(ctx, n, value.Single, value.Record)
}

// ExtendedTextInteraction is a block text area accepting one or more
// strings.
type ExtendedTextInteraction struct {
	stringInteraction
	maxStrings    *attribute.Single[int]
	minStrings    *attribute.Single[int]
	expectedLines *attribute.Single[int]
	format        *attribute.Single[TextFormat]
	prompt        *Group
}

func newExtendedTextInteraction(doc *Document, id, parent ID) Node {
	n := &ExtendedTextInteraction{stringInteraction: newStringInteraction(doc, id, parent, ClassExtendedTextInteraction)}
	n.maxStrings = attribute.NewInteger("maxStrings", false)
	n.minStrings = attribute.NewInteger("minStrings", false).WithDefault(0)
	n.expectedLines = attribute.NewInteger("expectedLines", false)
	n.format = attribute.NewEnum("format", false, PlainFormat, PreformattedFormat, XHTMLFormat).WithDefault(PlainFormat)
	n.attrs = attribute.NewList(append(n.stringAttributes(),
		n.maxStrings, n.minStrings, n.expectedLines, n.format)...)
	n.prompt = n.addGroup(ClassPrompt, 0, 1, ClassPrompt)
	return n
}

func (n *ExtendedTextInteraction) MaxStrings() (int, bool) { return n.maxStrings.Value() }
func (n *ExtendedTextInteraction) SetMaxStrings(m int)     { n.maxStrings.Set(m) }
func (n *ExtendedTextInteraction) MinStrings() int         { return n.minStrings.Get() }
func (n *ExtendedTextInteraction) SetMinStrings(m int)     { n.minStrings.Set(m) }
func (n *ExtendedTextInteraction) ExpectedLines() (int, bool) {
	return n.expectedLines.Value()
}
func (n *ExtendedTextInteraction) Format() TextFormat  { return n.format.Get() }
func (n *ExtendedTextInteraction) PromptGroup() *Group { return n.prompt }

func (n *ExtendedTextInteraction) BindResponse(sink ResponseSink, tokens []string) error {
	return n.bind(sink, tokens)
}

// ValidateResponse checks the pattern mask and the number of non-empty
// strings against minStrings and maxStrings.
func (n *ExtendedTextInteraction) ValidateResponse(v value.Value) bool {
	count := 0
	switch x := v.(type) {
	case nil, value.NullValue:
	case value.ListValue:
		count = x.Len()
	default:
		count = 1
	}
	if count < n.MinStrings() {
		return false
	}
	if max, ok := n.MaxStrings(); ok && count > max {
		return false
	}
	return n.matches(v)
}

func (n *ExtendedTextInteraction) Check(ctx *validation.Context) {
	n.check(ctx, n, value.Single, value.Multiple, value.Ordered, value.Record)
	if max, ok := n.MaxStrings(); ok && n.MinStrings() > max {
		ctx.Errorf(n, "minStrings %d is greater than maxStrings %d", n.MinStrings(), max)
	}
	if d := n.ResponseDeclaration(); d != nil && d.Cardinality() == value.Single && n.MinStrings() > 1 {
		ctx.Errorf(n, "minStrings %d cannot be met by single response variable %s", n.MinStrings(), d.Identifier())
	}
}
