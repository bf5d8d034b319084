// Package attribute provides typed, named attribute slots owned by document
// nodes. Each slot knows how to parse its literal form and render it back,
// and falls back to a default when no value was given.
package attribute

import (
	"fmt"

	"github.com/mind-engage/mindengage-qti/internal/qti/validation"
)

// Attribute is the type-erased view of a slot used by loaders, writers and
// the validation walk.
type Attribute interface {
	LocalName() string
	Namespace() string
	Required() bool
	// IsSet is true when an explicit value is present (defaults do not count).
	IsSet() bool
	// Parse replaces the value from its literal form. On failure the previous
	// value is kept, the literal is remembered for Validate and a
	// *BindingError is returned.
	Parse(raw string) error
	// String renders the explicit value, or "" when unset.
	String() string
	Clear()
	Validate(ctx *validation.Context, owner validation.Source)
}

// Codec converts between a value type and its literal form.
type Codec[V any] struct {
	Parse  func(string) (V, error)
	Format func(V) string
	// Check, when set, is applied to explicit values during validation. It
	// catches values that were set programmatically rather than parsed.
	Check func(V) error
}

// Single is a slot holding at most one value of type V.
type Single[V any] struct {
	name     string
	ns       string
	required bool
	codec    Codec[V]

	value    V
	hasValue bool
	def      V
	hasDef   bool

	rejected    string
	hasRejected bool
}

func New[V any](name string, required bool, codec Codec[V]) *Single[V] {
	return &Single[V]{name: name, required: required, codec: codec}
}

// WithDefault sets the default value and returns a.
func (a *Single[V]) WithDefault(v V) *Single[V] {
	a.def, a.hasDef = v, true
	return a
}

// WithNamespace sets the namespace URI and returns a.
func (a *Single[V]) WithNamespace(ns string) *Single[V] {
	a.ns = ns
	return a
}

func (a *Single[V]) LocalName() string { return a.name }
func (a *Single[V]) Namespace() string { return a.ns }
func (a *Single[V]) Required() bool    { return a.required }
func (a *Single[V]) IsSet() bool       { return a.hasValue }

// Value returns the explicit value.
func (a *Single[V]) Value() (V, bool) { return a.value, a.hasValue }

// Default returns the default value.
func (a *Single[V]) Default() (V, bool) { return a.def, a.hasDef }

// Computed returns the explicit value if present, else the default.
func (a *Single[V]) Computed() (V, bool) {
	if a.hasValue {
		return a.value, true
	}
	return a.def, a.hasDef
}

// Get is Computed without the presence flag; absent yields the zero value.
func (a *Single[V]) Get() V {
	v, _ := a.Computed()
	return v
}

// Rejected returns the last literal Parse could not accept, if it has not
// been superseded by a later Set, Parse or Clear.
func (a *Single[V]) Rejected() (string, bool) { return a.rejected, a.hasRejected }

func (a *Single[V]) Set(v V) {
	a.value, a.hasValue = v, true
	a.rejected, a.hasRejected = "", false
}

func (a *Single[V]) Clear() {
	var zero V
	a.value, a.hasValue = zero, false
	a.rejected, a.hasRejected = "", false
}

func (a *Single[V]) Parse(raw string) error {
	v, err := a.codec.Parse(raw)
	if err != nil {
		a.rejected, a.hasRejected = raw, true
		return &BindingError{Name: a.name, Text: raw, Err: err}
	}
	a.Set(v)
	return nil
}

func (a *Single[V]) String() string {
	if !a.hasValue {
		return ""
	}
	return a.codec.Format(a.value)
}

func (a *Single[V]) Validate(ctx *validation.Context, owner validation.Source) {
	if a.hasRejected {
		ctx.Errorf(owner, "Invalid value %q for attribute %s", a.rejected, a.name)
		return
	}
	if !a.hasValue {
		if a.required && !a.hasDef {
			ctx.Errorf(owner, "Required attribute is not defined: %s", a.name)
		}
		return
	}
	if a.codec.Check != nil {
		if err := a.codec.Check(a.value); err != nil {
			ctx.Errorf(owner, "Invalid value %q for attribute %s: %v", a.codec.Format(a.value), a.name, err)
		}
	}
}

// BindingError reports a literal that could not be parsed for an attribute.
type BindingError struct {
	Name string
	Text string
	Err  error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("attribute %s: cannot parse %q: %v", e.Name, e.Text, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }
