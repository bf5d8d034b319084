package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-qti/internal/qti/node"
)

// Manifest is the resource list of an IMS content package.
type Manifest struct {
	Resources []Resource
}

type Resource struct {
	Identifier string
	Href       string
	Type       string
	Files      []string
}

// IsItem reports whether the resource is an assessment item.
func (r Resource) IsItem() bool {
	if strings.HasPrefix(r.Type, "imsqti_item") {
		return true
	}
	href := strings.ToLower(r.Href)
	return r.Type == "" && strings.HasSuffix(href, ".xml") && !strings.Contains(href, "manifest")
}

type imsManifest struct {
	XMLName   xml.Name      `xml:"manifest"`
	Xmlns     string        `xml:"xmlns,attr,omitempty"`
	Resources []imsResource `xml:"resources>resource"`
}

type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Href       string    `xml:"href,attr"`
	Type       string    `xml:"type,attr"`
	Files      []imsFile `xml:"file"`
}

type imsFile struct {
	Href string `xml:"href,attr"`
}

// Package is an opened content package. Files are read from the archive on
// demand; nothing is extracted to disk.
type Package struct {
	Manifest Manifest
	files    map[string]*zip.File
}

// OpenPackage reads the archive directory and its imsmanifest.xml.
func OpenPackage(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrap(err, "open package")
	}
	p := &Package{files: map[string]*zip.File{}}
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			p.files[path.Clean(f.Name)] = f
		}
	}
	var mf *zip.File
	for _, name := range []string{manifestName, "manifest.xml"} {
		if f, ok := p.files[name]; ok {
			mf = f
			break
		}
	}
	if mf == nil {
		return nil, errors.New("open package: imsmanifest.xml not found")
	}
	rc, err := mf.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open package manifest")
	}
	defer rc.Close()

	var raw imsManifest
	if err := xml.NewDecoder(rc).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parse package manifest")
	}
	for _, r := range raw.Resources {
		res := Resource{Identifier: r.Identifier, Href: r.Href, Type: r.Type}
		for _, f := range r.Files {
			res.Files = append(res.Files, f.Href)
		}
		p.Manifest.Resources = append(p.Manifest.Resources, res)
	}
	return p, nil
}

// OpenPackageBytes is OpenPackage over an in-memory archive.
func OpenPackageBytes(b []byte) (*Package, error) {
	return OpenPackage(bytes.NewReader(b), int64(len(b)))
}

// Items lists the hrefs of the item resources in manifest order.
func (p *Package) Items() []string {
	var out []string
	for _, r := range p.Manifest.Resources {
		if r.IsItem() && r.Href != "" {
			out = append(out, r.Href)
		}
	}
	return out
}

// Open returns the content of a package file. Paths that leave the package
// root are rejected.
func (p *Package) Open(href string) (io.ReadCloser, error) {
	clean := path.Clean(strings.TrimPrefix(href, "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return nil, errors.Errorf("package path %q escapes the package root", href)
	}
	f, ok := p.files[clean]
	if !ok {
		return nil, errors.Errorf("package file %q not found", href)
	}
	return f.Open()
}

// LoadItem opens and loads one item of the package.
func (p *Package) LoadItem(href string) (*node.Document, []error, error) {
	rc, err := p.Open(href)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()
	doc, errs, err := Load(rc)
	if err != nil {
		return nil, errs, errors.Wrapf(err, "item %s", href)
	}
	return doc, errs, nil
}
