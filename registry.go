package layout

import (
	"strings"
)

// RendererFactory constructs a fresh renderer instance for one placeholder.
type RendererFactory func() RendererInstance

// WrapperFactory constructs a fresh ambient wrapper instance.
type WrapperFactory func() WrapperInstance

// MethodFunc is a pure function callable from condition expressions as
// name(arg, ...). It must be safe for concurrent use and must not retain
// its arguments.
type MethodFunc func(args ...interface{}) (interface{}, error)

// Registry maps renderer type names, ambient wrapper parameter names and
// condition method names to their implementations. It replaces any notion
// of a global factory: the registry consulted is always the one passed to
// Compile (or DefaultRegistry if none was).
//
// Register everything before handing the registry to Compile; lookups are
// not synchronized, mirroring the construct-then-share discipline of the
// rest of the package.
type Registry struct {
	renderers map[string]RendererFactory
	wrappers  map[string]wrapperEntry
	methods   map[string]MethodFunc
}

// wrapperEntry associates an ambient parameter name with the wrapper type
// owning it. Several parameter names (padding, padCharacter, ...) can map to
// one wrapper type; the parser materializes that type at most once per
// placeholder.
type wrapperEntry struct {
	typeName string
	factory  WrapperFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]RendererFactory),
		wrappers:  make(map[string]wrapperEntry),
		methods:   make(map[string]MethodFunc),
	}
}

// RegisterRenderer registers a renderer type under a placeholder name.
// Names are case-insensitive. Later registrations win, so applications can
// shadow built-ins.
func (r *Registry) RegisterRenderer(name string, f RendererFactory) {
	r.renderers[strings.ToLower(name)] = f
}

// RegisterWrapper registers an ambient wrapper type and the parameter names
// which resolve to it.
func (r *Registry) RegisterWrapper(typeName string, f WrapperFactory, paramNames ...string) {
	e := wrapperEntry{typeName: strings.ToLower(typeName), factory: f}
	for _, n := range paramNames {
		r.wrappers[strings.ToLower(n)] = e
	}
}

// RegisterMethod registers a condition method.
func (r *Registry) RegisterMethod(name string, fn MethodFunc) {
	r.methods[strings.ToLower(name)] = fn
}

// Renderer looks up a renderer factory by placeholder type name.
func (r *Registry) Renderer(name string) (RendererFactory, bool) {
	f, ok := r.renderers[strings.ToLower(name)]
	return f, ok
}

// Wrapper looks up an ambient wrapper by parameter name, returning the
// wrapper's type name (the reuse key) and its factory.
func (r *Registry) Wrapper(paramName string) (string, WrapperFactory, bool) {
	e, ok := r.wrappers[strings.ToLower(paramName)]
	return e.typeName, e.factory, ok
}

// Method looks up a condition method by name.
func (r *Registry) Method(name string) (MethodFunc, bool) {
	fn, ok := r.methods[strings.ToLower(name)]
	return fn, ok
}
