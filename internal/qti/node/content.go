package node

import (
	"github.com/mind-engage/mindengage-qti/internal/qti/attribute"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

// container is a body element with a single content group.
type container struct {
	base
	elementID  *attribute.Single[value.Identifier]
	styleClass *attribute.Single[string]
	content    *Group
}

func newContainer(doc *Document, id, parent ID, class string, min int, classes []string) container {
	c := container{base: newBase(doc, id, parent, class)}
	c.elementID = attribute.NewIdentifier("id", false)
	c.styleClass = attribute.NewString("class", false)
	c.attrs = attribute.NewList(c.elementID, c.styleClass)
	c.content = c.addGroup("content", min, Unbounded, classes...)
	return c
}

// Content returns the content group.
func (c *container) Content() *Group { return c.content }

// AppendText appends a text run to the content.
func (c *container) AppendText(s string) (*TextRun, error) {
	n, err := c.content.Append(ClassTextRun)
	if err != nil {
		return nil, err
	}
	t := n.(*TextRun)
	t.SetText(s)
	return t, nil
}

// Text concatenates the character data below the container.
func (c *container) Text() string {
	return textOf(c.Children())
}

func textOf(nodes []Node) string {
	var s string
	for _, n := range nodes {
		if t, ok := n.(TextHolder); ok {
			s += t.Text()
			continue
		}
		s += textOf(n.Children())
	}
	return s
}

type ItemBody struct{ container }

func newItemBody(doc *Document, id, parent ID) Node {
	return &ItemBody{container: newContainer(doc, id, parent, ClassItemBody, 0, blockClasses)}
}

type Div struct{ container }

func newDiv(doc *Document, id, parent ID) Node {
	return &Div{container: newContainer(doc, id, parent, ClassDiv, 0, flowClasses)}
}

type P struct{ container }

func newP(doc *Document, id, parent ID) Node {
	return &P{container: newContainer(doc, id, parent, ClassP, 0, inlineClasses)}
}

type Span struct{ container }

func newSpan(doc *Document, id, parent ID) Node {
	return &Span{container: newContainer(doc, id, parent, ClassSpan, 0, inlineClasses)}
}

type Prompt struct{ container }

func newPrompt(doc *Document, id, parent ID) Node {
	return &Prompt{container: newContainer(doc, id, parent, ClassPrompt, 0, inlineStaticClasses)}
}

// TextRun is a run of character data. It has no attributes or children.
type TextRun struct {
	base
	text string
}

func newTextRun(doc *Document, id, parent ID) Node {
	return &TextRun{base: newBase(doc, id, parent, ClassTextRun)}
}

func (n *TextRun) Text() string     { return n.text }
func (n *TextRun) SetText(s string) { n.text = s }

// SimpleChoice is one selectable option of a choiceInteraction.
type SimpleChoice struct {
	container
	identifier *attribute.Single[value.Identifier]
	fixed      *attribute.Single[bool]
}

func newSimpleChoice(doc *Document, id, parent ID) Node {
	n := &SimpleChoice{container: newContainer(doc, id, parent, ClassSimpleChoice, 0, inlineStaticClasses)}
	n.identifier = attribute.NewIdentifier("identifier", true)
	n.fixed = attribute.NewBoolean("fixed", false).WithDefault(false)
	n.attrs = attribute.NewList(n.elementID, n.styleClass, n.identifier, n.fixed)
	return n
}

func (n *SimpleChoice) Identifier() value.Identifier      { return n.identifier.Get() }
func (n *SimpleChoice) SetIdentifier(id value.Identifier) { n.identifier.Set(id) }
func (n *SimpleChoice) Fixed() bool                       { return n.fixed.Get() }
func (n *SimpleChoice) SetFixed(b bool)                   { n.fixed.Set(b) }

