package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-qti/internal/qti/node"
)

const (
	manifestName      = "imsmanifest.xml"
	manifestNamespace = "http://www.imsglobal.org/xsd/imscp_v1p1"
	itemResourceType  = "imsqti_item_xmlv2p1"
)

// BuildPackage writes docs into a content package zip with an
// imsmanifest.xml listing one item resource per document. Each item is
// stored as <identifier>.xml.
func BuildPackage(docs []*node.Document) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	mf := imsManifest{Xmlns: manifestNamespace, Resources: []imsResource{}}
	seen := map[string]bool{}
	for _, doc := range docs {
		item := doc.Item()
		if item == nil {
			return nil, errors.New("build package: document is not an assessmentItem")
		}
		id := item.Identifier()
		if id == "" || seen[id] {
			return nil, errors.Errorf("build package: missing or duplicate item identifier %q", id)
		}
		seen[id] = true
		href := id + ".xml"
		mf.Resources = append(mf.Resources, imsResource{
			Identifier: id,
			Type:       itemResourceType,
			Href:       href,
			Files:      []imsFile{{Href: href}},
		})
		w, err := zw.Create(href)
		if err != nil {
			return nil, errors.Wrapf(err, "build package: %s", href)
		}
		if err := Write(w, doc); err != nil {
			return nil, errors.Wrapf(err, "build package: %s", href)
		}
	}

	mfw, err := zw.Create(manifestName)
	if err != nil {
		return nil, errors.Wrap(err, "build package: manifest")
	}
	b, err := xml.MarshalIndent(mf, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "build package: manifest")
	}
	if _, err := mfw.Write(append([]byte(xml.Header), b...)); err != nil {
		return nil, errors.Wrap(err, "build package: manifest")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "build package")
	}
	return buf.Bytes(), nil
}
