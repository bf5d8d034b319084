package node

import (
	"path"
	"strings"

	"github.com/mind-engage/mindengage-qti/internal/qti/attribute"
	"github.com/mind-engage/mindengage-qti/internal/qti/validation"
)

// Standard response processing templates.
const (
	TemplateMatchCorrect = "http://www.imsglobal.org/question/qti_v2p1/rptemplates/match_correct"
	TemplateMapResponse  = "http://www.imsglobal.org/question/qti_v2p1/rptemplates/map_response"
)

// KnownTemplates lists the template names response processing can run.
var KnownTemplates = []string{"match_correct", "map_response"}

// TemplateName reduces a template URI to its short name, e.g.
// ".../rptemplates/match_correct.xml" to "match_correct".
func TemplateName(uri string) string {
	name := path.Base(strings.TrimSpace(uri))
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// ResponseProcessing selects the rules that turn responses into outcomes.
// Only template references are supported.
type ResponseProcessing struct {
	base
	template         *attribute.Single[string]
	templateLocation *attribute.Single[string]
}

func newResponseProcessing(doc *Document, id, parent ID) Node {
	n := &ResponseProcessing{base: newBase(doc, id, parent, ClassResponseProcessing)}
	n.template = attribute.NewString("template", false)
	n.templateLocation = attribute.NewString("templateLocation", false)
	n.attrs = attribute.NewList(n.template, n.templateLocation)
	return n
}

func (n *ResponseProcessing) Template() string         { return n.template.Get() }
func (n *ResponseProcessing) SetTemplate(uri string)   { n.template.Set(uri) }
func (n *ResponseProcessing) TemplateLocation() string { return n.templateLocation.Get() }

func (n *ResponseProcessing) Check(ctx *validation.Context) {
	t := n.Template()
	if t == "" {
		ctx.Warnf(n, "responseProcessing has no template; outcomes keep their defaults")
		return
	}
	name := TemplateName(t)
	for _, k := range KnownTemplates {
		if k == name {
			return
		}
	}
	ctx.Warnf(n, "Unsupported response processing template: %s", t)
}
