package node

import (
	"github.com/mind-engage/mindengage-qti/internal/qti/attribute"
	"github.com/mind-engage/mindengage-qti/internal/qti/binding"
	"github.com/mind-engage/mindengage-qti/internal/qti/validation"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

// ResponseSink receives bound response values.
type ResponseSink interface {
	SetResponseValue(id value.Identifier, v value.Value)
}

// Interaction is a body element that collects a candidate response.
type Interaction interface {
	Node
	ResponseIdentifier() value.Identifier
	// ResponseDeclaration resolves the bound variable, or nil.
	ResponseDeclaration() *ResponseDeclaration
	// BindResponse converts raw tokens and stores the result in sink. On a
	// *binding.Error nothing is stored.
	BindResponse(sink ResponseSink, tokens []string) error
	// ValidateResponse applies the interaction's own constraints to a bound
	// value.
	ValidateResponse(v value.Value) bool
}

type interaction struct {
	base
	elementID          *attribute.Single[value.Identifier]
	styleClass         *attribute.Single[string]
	responseIdentifier *attribute.Single[value.Identifier]
}

func newInteraction(doc *Document, id, parent ID, class string) interaction {
	i := interaction{base: newBase(doc, id, parent, class)}
	i.elementID = attribute.NewIdentifier("id", false)
	i.styleClass = attribute.NewString("class", false)
	i.responseIdentifier = attribute.NewIdentifier("responseIdentifier", true)
	return i
}

func (i *interaction) ResponseIdentifier() value.Identifier      { return i.responseIdentifier.Get() }
func (i *interaction) SetResponseIdentifier(id value.Identifier) { i.responseIdentifier.Set(id) }

func (i *interaction) ResponseDeclaration() *ResponseDeclaration {
	item := rootItem(i)
	if item == nil {
		return nil
	}
	return item.ResponseDeclaration(i.ResponseIdentifier())
}

// resolve reports an unresolved response variable and returns the
// declaration otherwise.
func (i *interaction) resolve(ctx *validation.Context, owner Node) *ResponseDeclaration {
	id := i.ResponseIdentifier()
	if id == "" {
		return nil
	}
	d := i.ResponseDeclaration()
	if d == nil {
		ctx.Errorf(owner, "Cannot find responseDeclaration %s", id)
	}
	return d
}

func (i *interaction) unbound(tokens []string) error {
	return &binding.Error{
		Identifier: i.ResponseIdentifier(),
		Tokens:     tokens,
		Reason:     "no responseDeclaration for " + i.class,
	}
}

// ChoiceInteraction presents a set of simpleChoice options.
type ChoiceInteraction struct {
	interaction
	shuffle    *attribute.Single[bool]
	maxChoices *attribute.Single[int]
	minChoices *attribute.Single[int]
	prompt     *Group
	choices    *Group
}

func newChoiceInteraction(doc *Document, id, parent ID) Node {
	n := &ChoiceInteraction{interaction: newInteraction(doc, id, parent, ClassChoiceInteraction)}
	n.shuffle = attribute.NewBoolean("shuffle", true).WithDefault(false)
	n.maxChoices = attribute.NewInteger("maxChoices", true).WithDefault(1)
	n.minChoices = attribute.NewInteger("minChoices", false).WithDefault(0)
	n.attrs = attribute.NewList(n.elementID, n.styleClass, n.responseIdentifier,
		n.shuffle, n.maxChoices, n.minChoices)
	n.prompt = n.addGroup(ClassPrompt, 0, 1, ClassPrompt)
	n.choices = n.addGroup(ClassSimpleChoice, 1, Unbounded, ClassSimpleChoice)
	return n
}

func (n *ChoiceInteraction) Shuffle() bool       { return n.shuffle.Get() }
func (n *ChoiceInteraction) SetShuffle(b bool)   { n.shuffle.Set(b) }
func (n *ChoiceInteraction) MaxChoices() int     { return n.maxChoices.Get() }
func (n *ChoiceInteraction) SetMaxChoices(m int) { n.maxChoices.Set(m) }
func (n *ChoiceInteraction) MinChoices() int     { return n.minChoices.Get() }
func (n *ChoiceInteraction) SetMinChoices(m int) { n.minChoices.Set(m) }
func (n *ChoiceInteraction) PromptGroup() *Group { return n.prompt }
func (n *ChoiceInteraction) ChoiceGroup() *Group { return n.choices }
func (n *ChoiceInteraction) Choices() []*SimpleChoice {
	return childrenAs[*SimpleChoice](n.choices)
}

// Prompt returns the prompt, or nil.
func (n *ChoiceInteraction) Prompt() *Prompt {
	p, _ := n.prompt.Get().(*Prompt)
	return p
}

// AddChoice appends a simpleChoice with the given identifier and text.
func (n *ChoiceInteraction) AddChoice(id value.Identifier, text string) (*SimpleChoice, error) {
	c, err := n.choices.Append(ClassSimpleChoice)
	if err != nil {
		return nil, err
	}
	sc := c.(*SimpleChoice)
	sc.SetIdentifier(id)
	if text != "" {
		if _, err := sc.AppendText(text); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

// Choice finds an option by identifier.
func (n *ChoiceInteraction) Choice(id value.Identifier) *SimpleChoice {
	for _, c := range n.Choices() {
		if c.Identifier() == id {
			return c
		}
	}
	return nil
}

func (n *ChoiceInteraction) BindResponse(sink ResponseSink, tokens []string) error {
	d := n.ResponseDeclaration()
	if d == nil {
		return n.unbound(tokens)
	}
	v, err := binding.Bind(d, tokens)
	if err != nil {
		return err
	}
	sink.SetResponseValue(d.Identifier(), v)
	return nil
}

// ValidateResponse checks the selection count against minChoices and
// maxChoices (0 means unlimited) and that every selection names a choice.
func (n *ChoiceInteraction) ValidateResponse(v value.Value) bool {
	var selected []value.Scalar
	switch x := v.(type) {
	case nil, value.NullValue:
	case value.ListValue:
		selected = x.Items()
	case value.Scalar:
		selected = []value.Scalar{x}
	default:
		return false
	}
	if len(selected) < n.MinChoices() {
		return false
	}
	if max := n.MaxChoices(); max > 0 && len(selected) > max {
		return false
	}
	for _, s := range selected {
		id, ok := s.(value.IdentifierValue)
		if !ok || n.Choice(value.Identifier(id)) == nil {
			return false
		}
	}
	return true
}

func (n *ChoiceInteraction) Check(ctx *validation.Context) {
	if d := n.resolve(ctx, n); d != nil {
		if b := d.BaseType(); b != value.IdentifierType {
			ctx.Errorf(n, "Response variable %s must have identifier baseType but has %s", d.Identifier(), b)
		}
		switch c := d.Cardinality(); c {
		case value.Single:
			if n.MaxChoices() != 1 {
				ctx.Errorf(n, "Response variable %s has single cardinality so maxChoices must be 1", d.Identifier())
			}
		case value.Multiple:
		default:
			ctx.Errorf(n, "Response variable %s must have single or multiple cardinality but has %s", d.Identifier(), c)
		}
	}
	if n.MinChoices() < 0 {
		ctx.Errorf(n, "minChoices must not be negative")
	}
	if max := n.MaxChoices(); max < 0 {
		ctx.Errorf(n, "maxChoices must not be negative")
	} else if max > 0 && n.MinChoices() > max {
		ctx.Errorf(n, "minChoices %d is greater than maxChoices %d", n.MinChoices(), max)
	}
	seen := map[value.Identifier]bool{}
	for _, c := range n.Choices() {
		id := c.Identifier()
		if id == "" {
			continue
		}
		if seen[id] {
			ctx.Errorf(n, "Duplicate choice identifier: %s", id)
		}
		seen[id] = true
	}
}
