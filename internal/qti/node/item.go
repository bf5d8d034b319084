package node

import (
	"github.com/mind-engage/mindengage-qti/internal/qti/attribute"
	"github.com/mind-engage/mindengage-qti/internal/qti/validation"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

// AssessmentItem is the root of an item document. It owns the variable
// declarations and resolves them by identifier.
type AssessmentItem struct {
	base
	identifier    *attribute.Single[string]
	title         *attribute.Single[string]
	label         *attribute.Single[string]
	lang          *attribute.Single[string]
	adaptive      *attribute.Single[bool]
	timeDependent *attribute.Single[bool]
	toolName      *attribute.Single[string]
	toolVersion   *attribute.Single[string]

	responseDecls *Group
	outcomeDecls  *Group
	templateDecls *Group
	itemBody      *Group
	processing    *Group
}

func newAssessmentItem(doc *Document, id, parent ID) Node {
	n := &AssessmentItem{base: newBase(doc, id, parent, ClassAssessmentItem)}
	// the item identifier is an arbitrary string, not an Identifier
	n.identifier = attribute.NewString("identifier", true)
	n.title = attribute.NewString("title", true)
	n.label = attribute.NewString("label", false)
	n.lang = attribute.NewString("lang", false).WithNamespace(XMLNamespace)
	n.adaptive = attribute.NewBoolean("adaptive", true).WithDefault(false)
	n.timeDependent = attribute.NewBoolean("timeDependent", true)
	n.toolName = attribute.NewString("toolName", false)
	n.toolVersion = attribute.NewString("toolVersion", false)
	n.attrs = attribute.NewList(n.identifier, n.title, n.label, n.lang, n.adaptive,
		n.timeDependent, n.toolName, n.toolVersion)

	n.responseDecls = n.addGroup(ClassResponseDeclaration, 0, Unbounded, ClassResponseDeclaration)
	n.outcomeDecls = n.addGroup(ClassOutcomeDeclaration, 0, Unbounded, ClassOutcomeDeclaration)
	n.templateDecls = n.addGroup(ClassTemplateDeclaration, 0, Unbounded, ClassTemplateDeclaration)
	n.itemBody = n.addGroup(ClassItemBody, 0, 1, ClassItemBody)
	n.processing = n.addGroup(ClassResponseProcessing, 0, 1, ClassResponseProcessing)
	return n
}

func (n *AssessmentItem) Identifier() string      { return n.identifier.Get() }
func (n *AssessmentItem) SetIdentifier(s string)  { n.identifier.Set(s) }
func (n *AssessmentItem) Title() string           { return n.title.Get() }
func (n *AssessmentItem) SetTitle(s string)       { n.title.Set(s) }
func (n *AssessmentItem) Adaptive() bool          { return n.adaptive.Get() }
func (n *AssessmentItem) SetAdaptive(b bool)      { n.adaptive.Set(b) }
func (n *AssessmentItem) TimeDependent() bool     { return n.timeDependent.Get() }
func (n *AssessmentItem) SetTimeDependent(b bool) { n.timeDependent.Set(b) }

func (n *AssessmentItem) ResponseDeclarationGroup() *Group { return n.responseDecls }
func (n *AssessmentItem) OutcomeDeclarationGroup() *Group  { return n.outcomeDecls }
func (n *AssessmentItem) TemplateDeclarationGroup() *Group { return n.templateDecls }

// ItemBody returns the body, or nil when the item has none.
func (n *AssessmentItem) ItemBody() *ItemBody {
	b, _ := n.itemBody.Get().(*ItemBody)
	return b
}

// SetItemBody replaces the body; nil removes it.
func (n *AssessmentItem) SetItemBody(b *ItemBody) error {
	if b == nil {
		n.itemBody.Clear()
		return nil
	}
	return n.itemBody.Set(b)
}

// ResponseProcessing returns the processing node, or nil.
func (n *AssessmentItem) ResponseProcessing() *ResponseProcessing {
	rp, _ := n.processing.Get().(*ResponseProcessing)
	return rp
}

func (n *AssessmentItem) ItemBodyGroup() *Group           { return n.itemBody }
func (n *AssessmentItem) ResponseProcessingGroup() *Group { return n.processing }

func (n *AssessmentItem) ResponseDeclarations() []*ResponseDeclaration {
	return childrenAs[*ResponseDeclaration](n.responseDecls)
}

func (n *AssessmentItem) OutcomeDeclarations() []*OutcomeDeclaration {
	return childrenAs[*OutcomeDeclaration](n.outcomeDecls)
}

func (n *AssessmentItem) TemplateDeclarations() []*TemplateDeclaration {
	return childrenAs[*TemplateDeclaration](n.templateDecls)
}

// Declarations returns every variable declaration: responses, then outcomes,
// then templates.
func (n *AssessmentItem) Declarations() []Declaration {
	var out []Declaration
	for _, g := range []*Group{n.responseDecls, n.outcomeDecls, n.templateDecls} {
		out = append(out, childrenAs[Declaration](g)...)
	}
	return out
}

// Declaration finds any variable declaration by identifier. With duplicate
// identifiers the first in document order wins.
func (n *AssessmentItem) Declaration(id value.Identifier) Declaration {
	for _, d := range n.Declarations() {
		if d.Identifier() == id {
			return d
		}
	}
	return nil
}

func (n *AssessmentItem) ResponseDeclaration(id value.Identifier) *ResponseDeclaration {
	for _, d := range n.ResponseDeclarations() {
		if d.Identifier() == id {
			return d
		}
	}
	return nil
}

func (n *AssessmentItem) OutcomeDeclaration(id value.Identifier) *OutcomeDeclaration {
	for _, d := range n.OutcomeDeclarations() {
		if d.Identifier() == id {
			return d
		}
	}
	return nil
}

// Interactions lists every interaction in the body in document order.
func (n *AssessmentItem) Interactions() []Interaction {
	body := n.ItemBody()
	if body == nil {
		return nil
	}
	var out []Interaction
	var walk func(Node)
	walk = func(x Node) {
		if it, ok := x.(Interaction); ok {
			out = append(out, it)
		}
		for _, c := range x.Children() {
			walk(c)
		}
	}
	walk(body)
	return out
}

// Interaction returns the first interaction bound to the response variable.
func (n *AssessmentItem) Interaction(responseID value.Identifier) Interaction {
	for _, it := range n.Interactions() {
		if it.ResponseIdentifier() == responseID {
			return it
		}
	}
	return nil
}

func (n *AssessmentItem) Check(ctx *validation.Context) {
	seen := map[value.Identifier]bool{}
	for _, d := range n.Declarations() {
		id := d.Identifier()
		if id == "" {
			continue
		}
		if seen[id] {
			ctx.Errorf(d, "Duplicate variable identifier: %s", id)
		}
		seen[id] = true
	}
	bound := map[value.Identifier]int{}
	for _, it := range n.Interactions() {
		if id := it.ResponseIdentifier(); id != "" {
			bound[id]++
			if bound[id] == 2 {
				ctx.Warnf(it, "Response variable %s is bound to more than one interaction", id)
			}
		}
	}
}

func childrenAs[T any](g *Group) []T {
	var out []T
	for _, c := range g.Children() {
		if t, ok := c.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// rootItem returns the assessmentItem owning n, or nil.
func rootItem(n Node) *AssessmentItem {
	return n.Document().Item()
}
