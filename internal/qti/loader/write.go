package loader

import (
	"encoding/xml"
	"io"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-qti/internal/qti/node"
)

// Write serialises doc as XML. Attributes render in their literal form and
// unset attributes are omitted. Text runs become character data.
func Write(w io.Writer, doc *node.Document) error {
	root := doc.Root()
	if root == nil {
		return errors.New("write item xml: empty document")
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(err, "write item xml")
	}
	enc := xml.NewEncoder(w)
	if err := writeNode(enc, root, true); err != nil {
		return errors.Wrap(err, "write item xml")
	}
	return errors.Wrap(enc.Flush(), "write item xml")
}

func writeNode(enc *xml.Encoder, n node.Node, root bool) error {
	if tr, ok := n.(*node.TextRun); ok {
		return enc.EncodeToken(xml.CharData(tr.Text()))
	}
	start := xml.StartElement{Name: xml.Name{Local: n.ClassTag()}}
	if root {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: xmlnsPrefix}, Value: Namespace})
	}
	for _, a := range n.Attributes().All() {
		if !a.IsSet() {
			continue
		}
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Space: a.Namespace(), Local: a.LocalName()},
			Value: a.String(),
		})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if th, ok := n.(node.TextHolder); ok && th.Text() != "" {
		if err := enc.EncodeToken(xml.CharData(th.Text())); err != nil {
			return err
		}
	}
	for _, c := range n.Children() {
		if err := writeNode(enc, c, false); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
