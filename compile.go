package layout

// Template is a compiled template: an ordered sequence of renderer nodes
// plus the thread-affinity classification computed over them.
// A Template is immutable once Compile returns it and is freely shared
// across any number of goroutines without locking.
type Template struct {
	text  string
	nodes []node

	agnostic          bool
	agnosticImmutable bool

	warn func(error)
}

// Text returns the original template string.
func (t *Template) Text() string { return t.text }

// IsAgnostic reports whether the rendered output is independent of which
// goroutine evaluates the template.
func (t *Template) IsAgnostic() bool { return t.agnostic }

// IsAgnosticImmutable reports whether, additionally, rendering the same
// event twice is guaranteed to produce identical output. Only then may the
// result be cached on the event, and only then is Precalculate unnecessary
// before the event crosses a goroutine boundary.
func (t *Template) IsAgnosticImmutable() bool { return t.agnosticImmutable }

// config carries the compile-time policy through the parser.
type config struct {
	strict   bool
	registry *Registry
	warn     func(error)
}

// Option configures a Compile or ParseCondition call.
type Option func(*config)

// Strict makes parse problems abort compilation instead of degrading to
// warned no-ops. Meant for configuration validation; production loads
// usually stay lenient so one bad template cannot take down logging.
func Strict() Option {
	return func(c *config) { c.strict = true }
}

// WithRegistry selects the registry used to resolve renderer type names,
// ambient wrapper parameters and condition methods.
func WithRegistry(r *Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithWarnings installs a sink receiving the errors lenient mode downgrades
// (unknown renderer types, unassignable parameters, render failures).
// The default sink discards them; a logging front-end typically forwards
// them to its internal error channel.
func WithWarnings(fn func(error)) Option {
	return func(c *config) { c.warn = fn }
}

func newConfig(opts []Option) *config {
	c := &config{
		registry: DefaultRegistry(),
		warn:     func(error) {},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Compile parses a template string into a Template.
// In strict mode any malformed construct returns a *ParseError (or a
// *ConditionParseError for a bad condition-typed parameter). In the default
// lenient mode only structural failures (an unterminated placeholder, a
// duplicated parameter) are errors; everything else degrades to a warning
// and a no-op.
func Compile(text string, opts ...Option) (*Template, error) {
	return compileWith(text, newConfig(opts))
}

// compileWith is the shared entry for Compile and for templates embedded in
// condition expressions, which inherit the outer compile's config.
func compileWith(text string, cfg *config) (*Template, error) {
	p := &parser{cur: newCursor(text), cfg: cfg, template: text}
	nodes, err := p.parseNodes(false)
	if err != nil {
		return nil, err
	}
	return finishTemplate(text, nodes, cfg), nil
}

// MustCompile is Compile for statically known templates; it panics on error.
func MustCompile(text string, opts ...Option) *Template {
	t, err := Compile(text, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// finishTemplate runs the post-parse passes shared by Compile and nested
// sub-template parses: literal folding, then affinity classification.
func finishTemplate(text string, nodes []node, cfg *config) *Template {
	nodes = optimize(nodes, cfg)
	agnostic, immutable := classify(nodes)
	return &Template{
		text:              text,
		nodes:             nodes,
		agnostic:          agnostic,
		agnosticImmutable: immutable,
		warn:              cfg.warn,
	}
}
