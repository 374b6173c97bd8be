package layout

import (
	"bytes"
	"strings"
)

// Renderer produces the output text of one template placeholder.
// Implementations must be safe for concurrent Render calls against
// different events once handed to a compiled template.
//
// The three declaration methods are the thread-affinity contract the whole
// engine is built on. They describe the renderer type, they are not inferred:
//
//   - Agnostic: output does not depend on which goroutine evaluates it
//     (it reads only the event, not ambient goroutine state).
//   - AgnosticImmutable: agnostic, and re-evaluating against the same event
//     yields identical output, so the result may be cached on the event.
//   - ConstantOutput: output does not depend on any event at all, so the
//     placeholder can be folded to a literal at compile time.
//
// Embed one of the Affinity values to satisfy the declaration methods.
type Renderer interface {
	Render(buf *bytes.Buffer, e *Event) error

	Agnostic() bool
	AgnosticImmutable() bool
	ConstantOutput() bool
}

// Wrapper post-processes the output of an inner renderer (case changes,
// padding, truncation...). Wrappers are resolved from parameter names not
// matching any property of the base renderer, and stack in discovery order
// with the last discovered wrapper applied outermost.
type Wrapper interface {
	Transform(s string, e *Event) (string, error)

	Agnostic() bool
	AgnosticImmutable() bool
	ConstantOutput() bool
}

// RawValuer is implemented by renderers which can expose their value in its
// original type instead of text, for use by Template.RenderValue and by
// literal folding.
type RawValuer interface {
	RawValue(e *Event) (interface{}, error)
}

// Affinity is an embeddable thread-affinity declaration.
type Affinity struct {
	agnostic  bool
	immutable bool
	constant  bool
}

// The affinity declarations, weakest to strongest. Each implies the previous.
var (
	// AffinityThreadBound output depends on the evaluating goroutine.
	AffinityThreadBound = Affinity{}
	// AffinityAgnostic output is goroutine-independent but may differ
	// between two evaluations of the same event.
	AffinityAgnostic = Affinity{agnostic: true}
	// AffinityImmutable output is goroutine-independent and stable per event.
	AffinityImmutable = Affinity{agnostic: true, immutable: true}
	// AffinityConstant output is independent of any event.
	AffinityConstant = Affinity{agnostic: true, immutable: true, constant: true}
)

func (a Affinity) Agnostic() bool          { return a.agnostic }
func (a Affinity) AgnosticImmutable() bool { return a.immutable }
func (a Affinity) ConstantOutput() bool    { return a.constant }

// PropertyKind tells the parser how to interpret a parameter value assigned
// to a property: as a plain (escape-decoded) string, as a nested template,
// or as a condition expression.
type PropertyKind int

const (
	KindString PropertyKind = iota
	KindTemplate
	KindCondition
	KindOther
)

// Property is one settable parameter of a renderer or wrapper instance.
// Set receives a string for KindString/KindOther, a *Template for
// KindTemplate and a *Condition for KindCondition, and performs the typed
// assignment on the instance it was obtained from.
type Property struct {
	Name string
	Kind PropertyKind
	Set  func(value interface{}) error
}

// RendererInstance is a freshly constructed renderer exposing its settable
// parameters. The parser assigns parsed parameter values through the
// property table; after parsing the instance is never modified again.
type RendererInstance interface {
	Renderer

	// Properties returns the settable parameters, setters bound to this
	// instance.
	Properties() []Property

	// DefaultProperty names the property receiving a bare parameter value
	// with no "name=". Empty when the renderer has none.
	DefaultProperty() string
}

// WrapperInstance is the wrapper counterpart of RendererInstance.
type WrapperInstance interface {
	Wrapper

	Properties() []Property
	DefaultProperty() string
}

// findProperty resolves a parameter name case-insensitively against a
// property table.
func findProperty(props []Property, name string) (Property, bool) {
	for _, p := range props {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Property{}, false
}

// A compiled template is an ordered list of nodes.

type node interface {
	isNode()
}

// literalNode is fixed output text, optionally carrying the precomputed
// typed value of a folded constant renderer.
type literalNode struct {
	text   string
	raw    interface{}
	hasRaw bool
}

// placeholderNode is a parameterized renderer plus its ambient wrapper
// chain in discovery order. Immutable once the parser returns it.
type placeholderNode struct {
	typeName string
	renderer RendererInstance
	wrappers []WrapperInstance
}

func (*literalNode) isNode()     {}
func (*placeholderNode) isNode() {}

// constant reports whether the whole subtree (renderer and wrappers) is
// declared independent of any event, making it eligible for folding.
func (ph *placeholderNode) constant() bool {
	if !ph.renderer.ConstantOutput() {
		return false
	}
	for _, w := range ph.wrappers {
		if !w.ConstantOutput() {
			return false
		}
	}
	return true
}

// renderFunc adapts a function to a property-less RendererInstance.
type renderFunc struct {
	Affinity
	fn func(buf *bytes.Buffer, e *Event) error
}

// RenderFunc makes a RendererInstance without parameters from a function
// and an affinity declaration. Useful for application-defined renderers
// which need no configuration.
func RenderFunc(a Affinity, fn func(buf *bytes.Buffer, e *Event) error) RendererInstance {
	return &renderFunc{Affinity: a, fn: fn}
}

func (r *renderFunc) Render(buf *bytes.Buffer, e *Event) error { return r.fn(buf, e) }
func (r *renderFunc) Properties() []Property                   { return nil }
func (r *renderFunc) DefaultProperty() string                  { return "" }

// noopRenderer stands in for an unknown renderer type in lenient mode.
// Declared constant, so folding erases it from the node list entirely.
type noopRenderer struct{}

func (noopRenderer) Render(buf *bytes.Buffer, e *Event) error { return nil }
func (noopRenderer) Agnostic() bool                           { return true }
func (noopRenderer) AgnosticImmutable() bool                  { return true }
func (noopRenderer) ConstantOutput() bool                     { return true }
func (noopRenderer) Properties() []Property                   { return nil }
func (noopRenderer) DefaultProperty() string                  { return "" }
