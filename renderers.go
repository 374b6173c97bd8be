package layout

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultRegistry returns a fresh registry populated with the built-in
// renderers, wrappers and condition methods. Each call returns a new
// registry, so applications can extend or shadow entries without affecting
// anyone else.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterRenderer("message", func() RendererInstance { return &messageRenderer{} })
	r.RegisterRenderer("level", func() RendererInstance { return &levelRenderer{} })
	r.RegisterRenderer("logger", func() RendererInstance { return &loggerRenderer{} })
	r.RegisterRenderer("longdate", func() RendererInstance { return &dateRenderer{format: "2006-01-02 15:04:05.0000"} })
	r.RegisterRenderer("shortdate", func() RendererInstance { return &dateRenderer{format: "2006-01-02"} })
	r.RegisterRenderer("time", func() RendererInstance { return &dateRenderer{format: "15:04:05.0000"} })
	r.RegisterRenderer("date", func() RendererInstance { return &dateRenderer{format: "2006-01-02 15:04:05", settable: true} })
	r.RegisterRenderer("event-property", func() RendererInstance { return &eventPropertyRenderer{} })
	r.RegisterRenderer("env", func() RendererInstance { return &envRenderer{} })
	r.RegisterRenderer("literal", func() RendererInstance { return &literalRenderer{} })
	r.RegisterRenderer("newline", func() RendererInstance { return &newlineRenderer{} })
	r.RegisterRenderer("callsite", func() RendererInstance { return &callsiteRenderer{} })
	r.RegisterRenderer("goroutine", func() RendererInstance { return &goroutineRenderer{} })
	r.RegisterRenderer("threadname", func() RendererInstance { return &goroutineRenderer{} })
	r.RegisterRenderer("counter", func() RendererInstance { return &counterRenderer{step: 1, init: 1} })
	r.RegisterRenderer("when", func() RendererInstance { return &whenRenderer{} })

	r.RegisterWrapper("case", func() WrapperInstance { return &caseWrapper{} },
		"uppercase", "lowercase", "capitalize")
	r.RegisterWrapper("pad", func() WrapperInstance { return &padWrapper{padChar: " "} },
		"padding", "padCharacter", "fixedLength")
	r.RegisterWrapper("truncate", func() WrapperInstance { return &truncateWrapper{} },
		"truncate")
	r.RegisterWrapper("trim", func() WrapperInstance { return &trimWrapper{} },
		"trim")
	r.RegisterWrapper("replace", func() WrapperInstance { return &replaceWrapper{} },
		"searchFor", "replaceWith")
	r.RegisterWrapper("whenempty", func() WrapperInstance { return &whenEmptyWrapper{} },
		"default")

	r.RegisterMethod("length", methodLength)
	r.RegisterMethod("contains", methodContains)
	r.RegisterMethod("starts-with", methodStartsWith)
	r.RegisterMethod("ends-with", methodEndsWith)
	r.RegisterMethod("equals", methodEquals)
	r.RegisterMethod("upper", methodUpper)
	r.RegisterMethod("lower", methodLower)

	return r
}

// ---- renderers ----

// messageRenderer emits the event message.
type messageRenderer struct{}

func (r *messageRenderer) Render(buf *bytes.Buffer, e *Event) error {
	if e != nil {
		buf.WriteString(e.Msg)
	}
	return nil
}

func (r *messageRenderer) RawValue(e *Event) (interface{}, error) {
	if e == nil {
		return "", nil
	}
	return e.Msg, nil
}

func (r *messageRenderer) Agnostic() bool          { return true }
func (r *messageRenderer) AgnosticImmutable() bool { return true }
func (r *messageRenderer) ConstantOutput() bool    { return false }
func (r *messageRenderer) Properties() []Property  { return nil }
func (r *messageRenderer) DefaultProperty() string { return "" }

// levelRenderer emits the canonical level name.
type levelRenderer struct{}

func (r *levelRenderer) Render(buf *bytes.Buffer, e *Event) error {
	if e != nil {
		buf.WriteString(e.Lvl.String())
	}
	return nil
}

func (r *levelRenderer) RawValue(e *Event) (interface{}, error) {
	if e == nil {
		return nil, nil
	}
	return e.Lvl, nil
}

func (r *levelRenderer) Agnostic() bool          { return true }
func (r *levelRenderer) AgnosticImmutable() bool { return true }
func (r *levelRenderer) ConstantOutput() bool    { return false }
func (r *levelRenderer) Properties() []Property  { return nil }
func (r *levelRenderer) DefaultProperty() string { return "" }

// loggerRenderer emits the logger name.
type loggerRenderer struct{}

func (r *loggerRenderer) Render(buf *bytes.Buffer, e *Event) error {
	if e != nil {
		buf.WriteString(e.Name)
	}
	return nil
}

func (r *loggerRenderer) Agnostic() bool          { return true }
func (r *loggerRenderer) AgnosticImmutable() bool { return true }
func (r *loggerRenderer) ConstantOutput() bool    { return false }
func (r *loggerRenderer) Properties() []Property  { return nil }
func (r *loggerRenderer) DefaultProperty() string { return "" }

// dateRenderer emits the event timestamp. Events are stamped on creation,
// so repeated renders of one event agree.
type dateRenderer struct {
	format   string
	settable bool // only ${date} exposes the format property
}

func (r *dateRenderer) Render(buf *bytes.Buffer, e *Event) error {
	if e == nil {
		return nil
	}
	buf.WriteString(e.Time().Format(r.format))
	return nil
}

func (r *dateRenderer) RawValue(e *Event) (interface{}, error) {
	if e == nil {
		return nil, nil
	}
	return e.Time(), nil
}

func (r *dateRenderer) Agnostic() bool          { return true }
func (r *dateRenderer) AgnosticImmutable() bool { return true }
func (r *dateRenderer) ConstantOutput() bool    { return false }

func (r *dateRenderer) Properties() []Property {
	if !r.settable {
		return nil
	}
	return []Property{
		{Name: "format", Kind: KindString, Set: func(v interface{}) error {
			s, err := cast.ToStringE(v)
			if err == nil {
				r.format = s
			}
			return err
		}},
	}
}

func (r *dateRenderer) DefaultProperty() string {
	if r.settable {
		return "format"
	}
	return ""
}

// eventPropertyRenderer emits one value from the event's structured data.
type eventPropertyRenderer struct {
	name string
}

func (r *eventPropertyRenderer) Render(buf *bytes.Buffer, e *Event) error {
	if v, ok := e.Value(r.name); ok {
		buf.WriteString(cast.ToString(v))
	}
	return nil
}

func (r *eventPropertyRenderer) RawValue(e *Event) (interface{}, error) {
	v, _ := e.Value(r.name)
	return v, nil
}

func (r *eventPropertyRenderer) Agnostic() bool          { return true }
func (r *eventPropertyRenderer) AgnosticImmutable() bool { return true }
func (r *eventPropertyRenderer) ConstantOutput() bool    { return false }

func (r *eventPropertyRenderer) Properties() []Property {
	return []Property{
		{Name: "name", Kind: KindString, Set: func(v interface{}) error {
			s, err := cast.ToStringE(v)
			if err == nil {
				r.name = s
			}
			return err
		}},
	}
}

func (r *eventPropertyRenderer) DefaultProperty() string { return "name" }

// envRenderer emits an environment variable. Constant output: the lookup
// happens once, at fold time, not per event.
type envRenderer struct {
	variable string
}

func (r *envRenderer) Render(buf *bytes.Buffer, e *Event) error {
	buf.WriteString(os.Getenv(r.variable))
	return nil
}

func (r *envRenderer) Agnostic() bool          { return true }
func (r *envRenderer) AgnosticImmutable() bool { return true }
func (r *envRenderer) ConstantOutput() bool    { return true }

func (r *envRenderer) Properties() []Property {
	return []Property{
		{Name: "var", Kind: KindString, Set: func(v interface{}) error {
			s, err := cast.ToStringE(v)
			if err == nil {
				r.variable = s
			}
			return err
		}},
	}
}

func (r *envRenderer) DefaultProperty() string { return "var" }

// literalRenderer emits fixed text, keeping it available as a typed raw
// value for the folding pass.
type literalRenderer struct {
	text string
}

func (r *literalRenderer) Render(buf *bytes.Buffer, e *Event) error {
	buf.WriteString(r.text)
	return nil
}

func (r *literalRenderer) RawValue(e *Event) (interface{}, error) {
	return r.text, nil
}

func (r *literalRenderer) Agnostic() bool          { return true }
func (r *literalRenderer) AgnosticImmutable() bool { return true }
func (r *literalRenderer) ConstantOutput() bool    { return true }

func (r *literalRenderer) Properties() []Property {
	return []Property{
		{Name: "text", Kind: KindString, Set: func(v interface{}) error {
			s, err := cast.ToStringE(v)
			if err == nil {
				r.text = s
			}
			return err
		}},
	}
}

func (r *literalRenderer) DefaultProperty() string { return "text" }

// newlineRenderer emits a line break.
type newlineRenderer struct{}

func (r *newlineRenderer) Render(buf *bytes.Buffer, e *Event) error {
	buf.WriteByte('\n')
	return nil
}

func (r *newlineRenderer) Agnostic() bool          { return true }
func (r *newlineRenderer) AgnosticImmutable() bool { return true }
func (r *newlineRenderer) ConstantOutput() bool    { return true }
func (r *newlineRenderer) Properties() []Property  { return nil }
func (r *newlineRenderer) DefaultProperty() string { return "" }

// callsiteRenderer emits file:line recorded on the event by the front-end.
type callsiteRenderer struct{}

func (r *callsiteRenderer) Render(buf *bytes.Buffer, e *Event) error {
	if e == nil {
		return nil
	}
	if file, line, ok := e.FileInfo(); ok {
		fmt.Fprintf(buf, "%s:%d", file, line)
	}
	return nil
}

func (r *callsiteRenderer) Agnostic() bool          { return true }
func (r *callsiteRenderer) AgnosticImmutable() bool { return true }
func (r *callsiteRenderer) ConstantOutput() bool    { return false }
func (r *callsiteRenderer) Properties() []Property  { return nil }
func (r *callsiteRenderer) DefaultProperty() string { return "" }

// goroutineRenderer emits the id of the evaluating goroutine. By nature not
// thread-agnostic: this is the renderer asynchronous writers must
// precalculate before queueing an event.
type goroutineRenderer struct{}

func (r *goroutineRenderer) Render(buf *bytes.Buffer, e *Event) error {
	buf.WriteString(goroutineID())
	return nil
}

func (r *goroutineRenderer) Agnostic() bool          { return false }
func (r *goroutineRenderer) AgnosticImmutable() bool { return false }
func (r *goroutineRenderer) ConstantOutput() bool    { return false }
func (r *goroutineRenderer) Properties() []Property  { return nil }
func (r *goroutineRenderer) DefaultProperty() string { return "" }

// goroutineID parses the current goroutine id out of the stack header
// ("goroutine 123 [running]:"). Slow, but this renderer is for debugging.
func goroutineID() string {
	var b [64]byte
	n := runtime.Stack(b[:], false)
	fields := strings.Fields(string(b[:n]))
	if len(fields) >= 2 {
		return fields[1]
	}
	return "?"
}

// counterRenderer emits an increasing sequence number. Goroutine-agnostic,
// but two renders of the same event yield different numbers, so its output
// must never be cached: the classic agnostic-but-mutable renderer.
type counterRenderer struct {
	n    atomic.Int64
	step int64
	init int64
}

func (r *counterRenderer) Render(buf *bytes.Buffer, e *Event) error {
	v := r.n.Add(r.step) - r.step + r.init
	fmt.Fprintf(buf, "%d", v)
	return nil
}

func (r *counterRenderer) Agnostic() bool          { return true }
func (r *counterRenderer) AgnosticImmutable() bool { return false }
func (r *counterRenderer) ConstantOutput() bool    { return false }

func (r *counterRenderer) Properties() []Property {
	return []Property{
		{Name: "increment", Kind: KindString, Set: func(v interface{}) error {
			n, err := cast.ToInt64E(v)
			if err == nil {
				r.step = n
			}
			return err
		}},
		{Name: "value", Kind: KindString, Set: func(v interface{}) error {
			n, err := cast.ToInt64E(v)
			if err == nil {
				r.init = n
			}
			return err
		}},
	}
}

func (r *counterRenderer) DefaultProperty() string { return "" }

// whenRenderer renders its inner template only when a condition holds,
// otherwise an optional alternative. The condition-typed property is what
// exercises the condition parser from within template syntax.
type whenRenderer struct {
	when      *Condition
	inner     *Template
	otherwise *Template
}

func (r *whenRenderer) Render(buf *bytes.Buffer, e *Event) error {
	tpl := r.otherwise
	if r.when == nil || r.when.EvaluateBool(e) {
		tpl = r.inner
	}
	if tpl != nil {
		buf.WriteString(tpl.Render(e))
	}
	return nil
}

func (r *whenRenderer) Agnostic() bool {
	ok := r.when == nil || r.when.agnostic()
	ok = ok && (r.inner == nil || r.inner.IsAgnostic())
	return ok && (r.otherwise == nil || r.otherwise.IsAgnostic())
}

func (r *whenRenderer) AgnosticImmutable() bool {
	ok := r.when == nil || r.when.immutable()
	ok = ok && (r.inner == nil || r.inner.IsAgnosticImmutable())
	return ok && (r.otherwise == nil || r.otherwise.IsAgnosticImmutable())
}

func (r *whenRenderer) ConstantOutput() bool { return false }

func (r *whenRenderer) Properties() []Property {
	return []Property{
		{Name: "when", Kind: KindCondition, Set: func(v interface{}) error {
			c, ok := v.(*Condition)
			if !ok {
				return fmt.Errorf("expected condition, got %T", v)
			}
			r.when = c
			return nil
		}},
		{Name: "inner", Kind: KindTemplate, Set: func(v interface{}) error {
			t, ok := v.(*Template)
			if !ok {
				return fmt.Errorf("expected template, got %T", v)
			}
			r.inner = t
			return nil
		}},
		{Name: "else", Kind: KindTemplate, Set: func(v interface{}) error {
			t, ok := v.(*Template)
			if !ok {
				return fmt.Errorf("expected template, got %T", v)
			}
			r.otherwise = t
			return nil
		}},
	}
}

func (r *whenRenderer) DefaultProperty() string { return "inner" }

// ---- ambient wrappers ----

// caseWrapper changes the letter case of the inner text.
type caseWrapper struct {
	upper, lower, capitalize bool
}

func (w *caseWrapper) Transform(s string, e *Event) (string, error) {
	if w.upper {
		s = strings.ToUpper(s)
	}
	if w.lower {
		s = strings.ToLower(s)
	}
	if w.capitalize {
		s = cases.Title(language.Und).String(s)
	}
	return s, nil
}

func (w *caseWrapper) Agnostic() bool          { return true }
func (w *caseWrapper) AgnosticImmutable() bool { return true }
func (w *caseWrapper) ConstantOutput() bool    { return true }

func (w *caseWrapper) Properties() []Property {
	return []Property{
		{Name: "uppercase", Kind: KindString, Set: boolSetter(&w.upper)},
		{Name: "lowercase", Kind: KindString, Set: boolSetter(&w.lower)},
		{Name: "capitalize", Kind: KindString, Set: boolSetter(&w.capitalize)},
	}
}

func (w *caseWrapper) DefaultProperty() string { return "" }

// padWrapper pads the inner text to a fixed width. A positive width pads
// left (right-aligns), a negative width pads right. With fixedLength the
// text is also truncated to the width.
type padWrapper struct {
	width   int
	padChar string
	fixed   bool
}

func (w *padWrapper) Transform(s string, e *Event) (string, error) {
	width := w.width
	if width < 0 {
		width = -width
	}
	pc := w.padChar
	if pc == "" {
		pc = " "
	}
	if n := width - len(s); n > 0 {
		pad := strings.Repeat(pc, n)
		if w.width < 0 {
			s += pad
		} else {
			s = pad + s
		}
	}
	if w.fixed && len(s) > width {
		s = s[:width]
	}
	return s, nil
}

func (w *padWrapper) Agnostic() bool          { return true }
func (w *padWrapper) AgnosticImmutable() bool { return true }
func (w *padWrapper) ConstantOutput() bool    { return true }

func (w *padWrapper) Properties() []Property {
	return []Property{
		{Name: "padding", Kind: KindString, Set: func(v interface{}) error {
			n, err := cast.ToIntE(v)
			if err == nil {
				w.width = n
			}
			return err
		}},
		{Name: "padCharacter", Kind: KindString, Set: func(v interface{}) error {
			s, err := cast.ToStringE(v)
			if err == nil && s != "" {
				w.padChar = s[:1]
			}
			return err
		}},
		{Name: "fixedLength", Kind: KindString, Set: boolSetter(&w.fixed)},
	}
}

func (w *padWrapper) DefaultProperty() string { return "" }

// truncateWrapper caps the inner text length.
type truncateWrapper struct {
	max int
}

func (w *truncateWrapper) Transform(s string, e *Event) (string, error) {
	if w.max > 0 && len(s) > w.max {
		return s[:w.max], nil
	}
	return s, nil
}

func (w *truncateWrapper) Agnostic() bool          { return true }
func (w *truncateWrapper) AgnosticImmutable() bool { return true }
func (w *truncateWrapper) ConstantOutput() bool    { return true }

func (w *truncateWrapper) Properties() []Property {
	return []Property{
		{Name: "truncate", Kind: KindString, Set: func(v interface{}) error {
			n, err := cast.ToIntE(v)
			if err == nil {
				w.max = n
			}
			return err
		}},
	}
}

func (w *truncateWrapper) DefaultProperty() string { return "" }

// trimWrapper strips surrounding whitespace.
type trimWrapper struct {
	on bool
}

func (w *trimWrapper) Transform(s string, e *Event) (string, error) {
	if w.on {
		return strings.TrimSpace(s), nil
	}
	return s, nil
}

func (w *trimWrapper) Agnostic() bool          { return true }
func (w *trimWrapper) AgnosticImmutable() bool { return true }
func (w *trimWrapper) ConstantOutput() bool    { return true }

func (w *trimWrapper) Properties() []Property {
	return []Property{
		{Name: "trim", Kind: KindString, Set: boolSetter(&w.on)},
	}
}

func (w *trimWrapper) DefaultProperty() string { return "" }

// replaceWrapper substitutes all occurrences of a substring.
type replaceWrapper struct {
	search, replace string
}

func (w *replaceWrapper) Transform(s string, e *Event) (string, error) {
	if w.search == "" {
		return s, nil
	}
	return strings.ReplaceAll(s, w.search, w.replace), nil
}

func (w *replaceWrapper) Agnostic() bool          { return true }
func (w *replaceWrapper) AgnosticImmutable() bool { return true }
func (w *replaceWrapper) ConstantOutput() bool    { return true }

func (w *replaceWrapper) Properties() []Property {
	return []Property{
		{Name: "searchFor", Kind: KindString, Set: func(v interface{}) error {
			s, err := cast.ToStringE(v)
			if err == nil {
				w.search = s
			}
			return err
		}},
		{Name: "replaceWith", Kind: KindString, Set: func(v interface{}) error {
			s, err := cast.ToStringE(v)
			if err == nil {
				w.replace = s
			}
			return err
		}},
	}
}

func (w *replaceWrapper) DefaultProperty() string { return "" }

// whenEmptyWrapper substitutes a fallback template when the inner text is
// empty.
type whenEmptyWrapper struct {
	fallback *Template
}

func (w *whenEmptyWrapper) Transform(s string, e *Event) (string, error) {
	if s == "" && w.fallback != nil {
		return w.fallback.Render(e), nil
	}
	return s, nil
}

func (w *whenEmptyWrapper) Agnostic() bool {
	return w.fallback == nil || w.fallback.IsAgnostic()
}

func (w *whenEmptyWrapper) AgnosticImmutable() bool {
	return w.fallback == nil || w.fallback.IsAgnosticImmutable()
}

func (w *whenEmptyWrapper) ConstantOutput() bool { return false }

func (w *whenEmptyWrapper) Properties() []Property {
	return []Property{
		{Name: "default", Kind: KindTemplate, Set: func(v interface{}) error {
			t, ok := v.(*Template)
			if !ok {
				return fmt.Errorf("expected template, got %T", v)
			}
			w.fallback = t
			return nil
		}},
	}
}

func (w *whenEmptyWrapper) DefaultProperty() string { return "" }

func boolSetter(dst *bool) func(interface{}) error {
	return func(v interface{}) error {
		b, err := cast.ToBoolE(v)
		if err == nil {
			*dst = b
		}
		return err
	}
}

// ---- condition methods ----

func methodLength(args ...interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("length takes 1 argument, got %d", len(args))
	}
	return int64(len(cast.ToString(args[0]))), nil
}

func methodContains(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("contains takes 2 arguments, got %d", len(args))
	}
	return strings.Contains(cast.ToString(args[0]), cast.ToString(args[1])), nil
}

func methodStartsWith(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("starts-with takes 2 arguments, got %d", len(args))
	}
	return strings.HasPrefix(cast.ToString(args[0]), cast.ToString(args[1])), nil
}

func methodEndsWith(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("ends-with takes 2 arguments, got %d", len(args))
	}
	return strings.HasSuffix(cast.ToString(args[0]), cast.ToString(args[1])), nil
}

func methodEquals(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("equals takes 2 arguments, got %d", len(args))
	}
	return compareValues("==", args[0], args[1]), nil
}

func methodUpper(args ...interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("upper takes 1 argument, got %d", len(args))
	}
	return strings.ToUpper(cast.ToString(args[0])), nil
}

func methodLower(args ...interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("lower takes 1 argument, got %d", len(args))
	}
	return strings.ToLower(cast.ToString(args[0])), nil
}
