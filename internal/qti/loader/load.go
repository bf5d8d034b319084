// Package loader reads assessment item XML into a node tree and writes it
// back, and opens IMS content packages holding item files.
package loader

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-qti/internal/qti/node"
)

// Namespace is the QTI 2.1 item namespace used when writing.
const Namespace = "http://www.imsglobal.org/xsd/imsqti_v2p1"

const (
	xmlnsPrefix  = "xmlns"
	xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"
)

// UnknownAttributeError reports an attribute the node kind does not declare.
type UnknownAttributeError struct {
	Class string
	Name  xml.Name
}

func (e *UnknownAttributeError) Error() string {
	if e.Name.Space != "" {
		return fmt.Sprintf("%s has no attribute {%s}%s", e.Class, e.Name.Space, e.Name.Local)
	}
	return fmt.Sprintf("%s has no attribute %s", e.Class, e.Name.Local)
}

// UnexpectedTextError reports character data inside an element that cannot
// hold text.
type UnexpectedTextError struct {
	Class string
	Text  string
}

func (e *UnexpectedTextError) Error() string {
	return fmt.Sprintf("%s cannot contain text %q", e.Class, e.Text)
}

type frame struct {
	n node.Node
}

// Load reads one item document. Structural problems such as unsupported
// children, unknown attributes and malformed attribute literals are returned
// in the error list and loading continues past them. Malformed XML or a
// foreign root element is fatal.
func Load(r io.Reader) (*node.Document, []error, error) {
	dec := xml.NewDecoder(r)
	var (
		doc   *node.Document
		stack []frame
		errs  []error
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs, errors.Wrap(err, "read item xml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if doc == nil {
				var root node.Node
				doc, root, err = node.NewDocument(t.Name.Local)
				if err != nil {
					return nil, nil, errors.Wrap(err, "read item xml")
				}
				errs = append(errs, applyAttributes(root, t.Attr)...)
				stack = append(stack, frame{n: root})
				continue
			}
			parent := stack[len(stack)-1].n
			child, err := attach(parent, t.Name.Local)
			if err != nil {
				errs = append(errs, errors.Wrapf(err, "%s", parent.Path()))
				if err := dec.Skip(); err != nil {
					return nil, errs, errors.Wrap(err, "read item xml")
				}
				continue
			}
			errs = append(errs, applyAttributes(child, t.Attr)...)
			stack = append(stack, frame{n: child})
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			if err := addText(stack[len(stack)-1].n, string(t)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if doc == nil {
		return nil, nil, errors.New("read item xml: no root element")
	}
	return doc, errs, nil
}

// attach creates a child of the given class in the first group of parent
// that accepts it.
func attach(parent node.Node, class string) (node.Node, error) {
	groups := parent.Groups()
	for _, g := range groups {
		if !g.Supports(class) {
			continue
		}
		n, err := g.Create(class)
		if err != nil {
			return nil, err
		}
		if err := g.Add(n); err != nil {
			return nil, err
		}
		return n, nil
	}
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name()
	}
	return nil, &node.UnsupportedChildError{Parent: parent.ClassTag(), Group: strings.Join(names, "|"), Class: class}
}

func applyAttributes(n node.Node, attrs []xml.Attr) []error {
	var errs []error
	for _, a := range attrs {
		if a.Name.Space == xmlnsPrefix || (a.Name.Space == "" && a.Name.Local == xmlnsPrefix) || a.Name.Space == xsiNamespace {
			continue
		}
		attr, ok := n.Attributes().Lookup(a.Name.Space, a.Name.Local)
		if !ok {
			errs = append(errs, errors.Wrapf(&UnknownAttributeError{Class: n.ClassTag(), Name: a.Name}, "%s", n.Path()))
			continue
		}
		if err := attr.Parse(a.Value); err != nil {
			errs = append(errs, errors.Wrapf(err, "%s", n.Path()))
		}
	}
	return errs
}

func addText(n node.Node, text string) error {
	if th, ok := n.(node.TextHolder); ok {
		th.SetText(th.Text() + text)
		return nil
	}
	for _, g := range n.Groups() {
		if !g.Supports(node.ClassTextRun) {
			continue
		}
		if strings.TrimSpace(text) == "" && g.Len() == 0 {
			return nil
		}
		// consecutive character data merges into one run
		if kids := g.Children(); len(kids) > 0 {
			if tr, ok := kids[len(kids)-1].(*node.TextRun); ok {
				tr.SetText(tr.Text() + text)
				return nil
			}
		}
		c, err := g.Append(node.ClassTextRun)
		if err != nil {
			return errors.Wrapf(err, "%s", n.Path())
		}
		c.(*node.TextRun).SetText(text)
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return errors.Wrapf(&UnexpectedTextError{Class: n.ClassTag(), Text: strings.TrimSpace(text)}, "%s", n.Path())
}
