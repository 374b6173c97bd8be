package layout

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// Render evaluates the template against an event and returns the output
// text. It never fails: a renderer erroring (or panicking) contributes
// empty output for its own segment, is reported to the warning sink, and
// the rest of the line renders normally.
//
// A previously cached or precalculated value for this event wins. A fresh
// result is cached on the event unless the template is agnostic but not
// immutable: such output is goroutine-independent yet not guaranteed equal
// across evaluations, so recording one evaluation as "the" value would be
// wrong (and recomputation is cheap).
func (t *Template) Render(e *Event) string {
	if s, ok := e.cachedRender(t); ok {
		return s
	}
	s := t.renderNodes(e)
	if !(t.agnostic && !t.agnosticImmutable) {
		e.storeRender(t, s)
	}
	return s
}

// Precalculate forces evaluation and cache population now, on the calling
// goroutine. An asynchronous writer must call this for every template that
// is not agnostic-immutable before handing the event to another goroutine;
// afterwards Render returns the captured value no matter where it runs.
// Agnostic-immutable templates never need precalculation and are skipped.
func (t *Template) Precalculate(e *Event) {
	if e == nil || t.agnosticImmutable {
		return
	}
	e.storeRender(t, t.renderNodes(e))
}

// RenderValue returns the template's value in its original type when the
// template is a single placeholder whose renderer exposes one (or a folded
// constant carrying its raw value); otherwise it returns the rendered text.
func (t *Template) RenderValue(e *Event) (interface{}, error) {
	if len(t.nodes) == 1 {
		switch n := t.nodes[0].(type) {
		case *literalNode:
			if n.hasRaw {
				return n.raw, nil
			}
		case *placeholderNode:
			if rv, ok := n.renderer.(RawValuer); ok && len(n.wrappers) == 0 {
				raw, err := rv.RawValue(e)
				if err != nil {
					return nil, &RenderError{Renderer: n.typeName, Err: err}
				}
				return raw, nil
			}
		}
	}
	return t.Render(e), nil
}

// Typed render variants in the style of configuration value getters.
// Conversions go through the same coercions as condition evaluation.

// RenderInt renders and coerces to an int.
func (t *Template) RenderInt(e *Event) (int, error) {
	v, err := t.RenderValue(e)
	if err != nil {
		return 0, err
	}
	return cast.ToIntE(v)
}

// RenderBool renders and coerces to a bool.
func (t *Template) RenderBool(e *Event) (bool, error) {
	v, err := t.RenderValue(e)
	if err != nil {
		return false, err
	}
	return cast.ToBoolE(v)
}

// RenderFloat renders and coerces to a float64.
func (t *Template) RenderFloat(e *Event) (float64, error) {
	v, err := t.RenderValue(e)
	if err != nil {
		return 0, err
	}
	return cast.ToFloat64E(v)
}

// RenderTime renders and coerces to a time.Time.
func (t *Template) RenderTime(e *Event) (time.Time, error) {
	v, err := t.RenderValue(e)
	if err != nil {
		return time.Time{}, err
	}
	return cast.ToTimeE(v)
}

// renderNodes evaluates the node list with no cache involvement.
func (t *Template) renderNodes(e *Event) string {
	var buf bytes.Buffer
	buf.Grow(len(t.text) + 16)
	for _, n := range t.nodes {
		switch x := n.(type) {
		case *literalNode:
			buf.WriteString(x.text)
		case *placeholderNode:
			s, err := x.renderText(e)
			if err != nil {
				t.warn(&RenderError{Renderer: x.typeName, Err: err})
				continue
			}
			buf.WriteString(s)
		}
	}
	return buf.String()
}

// renderText renders the base renderer and applies the wrapper chain in
// discovery order, so the last discovered wrapper transforms last
// (outermost). A panicking renderer is contained here; logging must never
// crash the logging application.
func (ph *placeholderNode) renderText(e *Event) (s string, err error) {
	defer func() {
		if p := recover(); p != nil {
			s = ""
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	var buf bytes.Buffer
	if err = ph.renderer.Render(&buf, e); err != nil {
		return "", err
	}
	s = buf.String()
	for _, w := range ph.wrappers {
		if s, err = w.Transform(s, e); err != nil {
			return "", err
		}
	}
	return s, nil
}
