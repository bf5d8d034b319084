// Package node implements the document tree of an assessment item: typed
// nodes with a fixed attribute set and fixed child groups, stored in a
// per-document arena. Children are owned through groups; the parent link is
// an arena handle used only for navigation.
package node

import (
	"strconv"

	"github.com/mind-engage/mindengage-qti/internal/qti/attribute"
	"github.com/mind-engage/mindengage-qti/internal/qti/validation"
)

// ID is a node's handle within its Document.
type ID int

// NoID is the parent handle of a root node.
const NoID ID = -1

// XMLNamespace is the namespace of xml:lang and friends.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// Node is implemented by every element of the tree.
type Node interface {
	ID() ID
	ClassTag() string
	Document() *Document
	// Parent is nil for the root.
	Parent() Node
	Attributes() *attribute.List
	// Groups lists the child groups in document order. Atomic nodes have none.
	Groups() []*Group
	// Children flattens the groups. Atomic nodes return nil.
	Children() []Node
	Path() string
}

// Checker is implemented by node kinds that have constraints beyond their
// own attributes and group arities.
type Checker interface {
	Check(ctx *validation.Context)
}

// TextHolder is implemented by nodes carrying character data.
type TextHolder interface {
	Text() string
	SetText(s string)
}

type base struct {
	doc    *Document
	id     ID
	parent ID
	class  string
	attrs  *attribute.List
	groups []*Group
}

func newBase(doc *Document, id, parent ID, class string) base {
	return base{doc: doc, id: id, parent: parent, class: class, attrs: attribute.NewList()}
}

func (b *base) ID() ID                      { return b.id }
func (b *base) ClassTag() string            { return b.class }
func (b *base) Document() *Document         { return b.doc }
func (b *base) Attributes() *attribute.List { return b.attrs }
func (b *base) Groups() []*Group            { return b.groups }

func (b *base) Parent() Node {
	return b.doc.Node(b.parent)
}

func (b *base) Children() []Node {
	if len(b.groups) == 0 {
		return nil
	}
	var out []Node
	for _, g := range b.groups {
		out = append(out, g.Children()...)
	}
	return out
}

// Group returns the child group with the given name, or nil.
func (b *base) Group(name string) *Group {
	for _, g := range b.groups {
		if g.name == name {
			return g
		}
	}
	return nil
}

// Path locates the node from the root, e.g. /assessmentItem/itemBody[3]/p[0].
func (b *base) Path() string {
	parent := b.Parent()
	if parent == nil {
		return "/" + b.class
	}
	idx := "?"
	for i, c := range parent.Children() {
		if c.ID() == b.id {
			idx = strconv.Itoa(i)
			break
		}
	}
	return parent.Path() + "/" + b.class + "[" + idx + "]"
}

func (b *base) addGroup(name string, min, max int, classes ...string) *Group {
	g := &Group{doc: b.doc, owner: b.id, name: name, min: min, max: max, supported: classes}
	b.groups = append(b.groups, g)
	return g
}

// Validate walks n depth-first, pre-order, left to right. It validates the
// attributes, the group arities and any node-specific rules, then recurses.
// It never stops early.
func Validate(n Node, ctx *validation.Context) {
	n.Attributes().Validate(ctx, n)
	for _, g := range n.Groups() {
		g.validate(ctx, n)
	}
	if c, ok := n.(Checker); ok {
		c.Check(ctx)
	}
	for _, child := range n.Children() {
		Validate(child, ctx)
	}
}
