package node

import (
	"fmt"

	"github.com/mind-engage/mindengage-qti/internal/qti/validation"
)

// Unbounded is the maximum arity of an open group.
const Unbounded = -1

// Group is an ordered, arity-constrained child container of one node. A
// group whose maximum is 1 is a single optional or mandatory slot.
type Group struct {
	doc       *Document
	owner     ID
	name      string
	min, max  int
	supported []string
	children  []ID
}

func (g *Group) Name() string { return g.name }
func (g *Group) Min() int     { return g.min }
func (g *Group) Max() int     { return g.max }
func (g *Group) Len() int     { return len(g.children) }

func (g *Group) Supports(class string) bool {
	for _, c := range g.supported {
		if c == class {
			return true
		}
	}
	return false
}

// Create builds a new node of the given class parented to the group owner.
// The node is not attached until passed to Add or Set.
func (g *Group) Create(class string) (Node, error) {
	if !g.Supports(class) {
		return nil, g.unsupported(class)
	}
	return g.doc.create(class, g.owner)
}

// Append creates a node of the given class and adds it.
func (g *Group) Append(class string) (Node, error) {
	n, err := g.Create(class)
	if err != nil {
		return nil, err
	}
	if err := g.Add(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Add attaches n after the existing children.
func (g *Group) Add(n Node) error {
	if err := g.accept(n); err != nil {
		return err
	}
	for _, id := range g.children {
		if id == n.ID() {
			return fmt.Errorf("group %s: node %s is already attached", g.name, n.ClassTag())
		}
	}
	if g.max != Unbounded && len(g.children) >= g.max {
		return &ArityError{Group: g.name, Max: g.max}
	}
	g.children = append(g.children, n.ID())
	return nil
}

// Set replaces every child with n. A nil n clears the group; setting the
// sole child again leaves the group unchanged.
func (g *Group) Set(n Node) error {
	if n == nil {
		g.Clear()
		return nil
	}
	if err := g.accept(n); err != nil {
		return err
	}
	g.children = append(g.children[:0], n.ID())
	return nil
}

// Get returns the first child, or nil when the group is empty.
func (g *Group) Get() Node {
	if len(g.children) == 0 {
		return nil
	}
	return g.doc.Node(g.children[0])
}

// Children returns the attached children in document order.
func (g *Group) Children() []Node {
	out := make([]Node, len(g.children))
	for i, id := range g.children {
		out[i] = g.doc.Node(id)
	}
	return out
}

// Clear detaches every child.
func (g *Group) Clear() {
	g.children = g.children[:0]
}

func (g *Group) accept(n Node) error {
	if n.Document() != g.doc {
		return fmt.Errorf("group %s: node %s belongs to another document", g.name, n.ClassTag())
	}
	if p := n.Parent(); p == nil || p.ID() != g.owner {
		return fmt.Errorf("group %s: node %s was not created for this parent", g.name, n.ClassTag())
	}
	if !g.Supports(n.ClassTag()) {
		return g.unsupported(n.ClassTag())
	}
	return nil
}

func (g *Group) unsupported(class string) error {
	parent := ""
	if owner := g.doc.Node(g.owner); owner != nil {
		parent = owner.ClassTag()
	}
	return &UnsupportedChildError{Parent: parent, Group: g.name, Class: class}
}

func (g *Group) validate(ctx *validation.Context, owner Node) {
	n := len(g.children)
	if n < g.min {
		ctx.Errorf(owner, "Expected at least %d %s children but found %d", g.min, g.name, n)
	}
	if g.max != Unbounded && n > g.max {
		ctx.Errorf(owner, "Expected at most %d %s children but found %d", g.max, g.name, n)
	}
}

// UnsupportedChildError reports a class tag a group does not accept.
type UnsupportedChildError struct {
	Parent string
	Group  string
	Class  string
}

func (e *UnsupportedChildError) Error() string {
	switch {
	case e.Parent == "":
		return fmt.Sprintf("unsupported node class %q", e.Class)
	case e.Group == "":
		return fmt.Sprintf("%s cannot have children, got %q", e.Parent, e.Class)
	}
	return fmt.Sprintf("%s does not accept %q in group %s", e.Parent, e.Class, e.Group)
}

// ArityError reports an Add on a full group.
type ArityError struct {
	Group string
	Max   int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("group %s already holds %d %s", e.Group, e.Max, plural(e.Max, "child", "children"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
