// Package validation accumulates diagnostics produced while walking a
// document tree. Nothing here aborts a walk: every check appends and returns.
package validation

import (
	"encoding/json"
	"fmt"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Source is the node a diagnostic is about.
type Source interface {
	ClassTag() string
	Path() string
}

// Diagnostic is one validation finding.
type Diagnostic struct {
	Source   Source
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	if d.Source == nil {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s at %s", d.Severity, d.Message, d.Source.Path())
}

func (d Diagnostic) MarshalJSON() ([]byte, error) {
	out := struct {
		Severity Severity `json:"severity"`
		Class    string   `json:"class,omitempty"`
		Path     string   `json:"path,omitempty"`
		Message  string   `json:"message"`
	}{Severity: d.Severity, Message: d.Message}
	if d.Source != nil {
		out.Class = d.Source.ClassTag()
		out.Path = d.Source.Path()
	}
	return json.Marshal(out)
}

// Context collects diagnostics for one validation walk. A Context must not be
// shared between concurrent walks.
type Context struct {
	diagnostics []Diagnostic
}

func NewContext() *Context { return &Context{} }

// Add appends d.
func (c *Context) Add(d Diagnostic) {
	c.diagnostics = append(c.diagnostics, d)
}

// Errorf appends an error about src.
func (c *Context) Errorf(src Source, format string, args ...any) {
	c.Add(Diagnostic{Source: src, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a warning about src.
func (c *Context) Warnf(src Source, format string, args ...any) {
	c.Add(Diagnostic{Source: src, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// Diagnostics returns every finding in the order it was added.
func (c *Context) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.diagnostics...)
}

func (c *Context) Errors() []Diagnostic   { return c.filter(SeverityError) }
func (c *Context) Warnings() []Diagnostic { return c.filter(SeverityWarning) }

// Valid is true when no errors were recorded. Warnings do not count.
func (c *Context) Valid() bool {
	for _, d := range c.diagnostics {
		if d.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (c *Context) filter(s Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}
