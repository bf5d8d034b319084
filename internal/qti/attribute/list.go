package attribute

import "github.com/mind-engage/mindengage-qti/internal/qti/validation"

// List is the fixed, ordered attribute set of one node.
type List struct {
	attrs []Attribute
}

func NewList(attrs ...Attribute) *List {
	return &List{attrs: attrs}
}

// All returns the attributes in declaration order.
func (l *List) All() []Attribute {
	return append([]Attribute(nil), l.attrs...)
}

// Get finds a no-namespace attribute by local name.
func (l *List) Get(name string) (Attribute, bool) {
	return l.Lookup("", name)
}

// Lookup finds an attribute by namespace and local name.
func (l *List) Lookup(ns, name string) (Attribute, bool) {
	for _, a := range l.attrs {
		if a.LocalName() == name && a.Namespace() == ns {
			return a, true
		}
	}
	return nil, false
}

// Validate validates every attribute in order.
func (l *List) Validate(ctx *validation.Context, owner validation.Source) {
	for _, a := range l.attrs {
		a.Validate(ctx, owner)
	}
}
