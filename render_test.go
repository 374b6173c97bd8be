package layout

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/One-com/gone/layout/syslog"
)

// countingRenderer counts invocations, for cache behavior assertions.
type countingRenderer struct {
	Affinity
	calls *int32
	out   string
}

func (r *countingRenderer) Render(buf *bytes.Buffer, e *Event) error {
	atomic.AddInt32(r.calls, 1)
	buf.WriteString(r.out)
	return nil
}

func (r *countingRenderer) Properties() []Property  { return nil }
func (r *countingRenderer) DefaultProperty() string { return "" }

func countingRegistry(a Affinity, out string) (*Registry, *int32) {
	calls := new(int32)
	reg := DefaultRegistry()
	reg.RegisterRenderer("probe", func() RendererInstance {
		return &countingRenderer{Affinity: a, calls: calls, out: out}
	})
	return reg, calls
}

func TestRenderIdempotenceAndCaching(t *testing.T) {
	reg, calls := countingRegistry(AffinityImmutable, "v")
	tpl, err := Compile("[${probe}]", WithRegistry(reg))
	require.NoError(t, err)
	require.True(t, tpl.IsAgnosticImmutable())

	e := NewEvent(syslog.LOG_INFO, "m")
	first := tpl.Render(e)
	second := tpl.Render(e)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "second render must be a cache hit")

	// a different event renders afresh
	e2 := NewEvent(syslog.LOG_INFO, "m")
	tpl.Render(e2)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestAgnosticMutableSkipsCache(t *testing.T) {
	tpl, err := Compile("${counter}")
	require.NoError(t, err)
	require.True(t, tpl.IsAgnostic())
	require.False(t, tpl.IsAgnosticImmutable())

	e := NewEvent(syslog.LOG_INFO, "m")
	a := tpl.Render(e)
	b := tpl.Render(e)
	assert.NotEqual(t, a, b, "agnostic-but-mutable output must not be cached")
}

func TestPrecalculateCapturesValue(t *testing.T) {
	tpl, err := Compile("${goroutine}")
	require.NoError(t, err)
	require.False(t, tpl.IsAgnosticImmutable())

	e := NewEvent(syslog.LOG_INFO, "m")
	tpl.Precalculate(e)
	want := tpl.Render(e)

	got := make(chan string)
	go func() { got <- tpl.Render(e) }()
	assert.Equal(t, want, <-got, "a precalculated event renders the captured value on any goroutine")
}

func TestPrecalculateForcesCacheForMutableTemplates(t *testing.T) {
	tpl, err := Compile("${counter}")
	require.NoError(t, err)

	e := NewEvent(syslog.LOG_INFO, "m")
	tpl.Precalculate(e)
	a := tpl.Render(e)
	b := tpl.Render(e)
	assert.Equal(t, a, b, "precalculation pins the value for the event's remaining lifetime")
}

func TestPrecalculateSkipsImmutableTemplates(t *testing.T) {
	reg, calls := countingRegistry(AffinityImmutable, "v")
	tpl, err := Compile("${probe}", WithRegistry(reg))
	require.NoError(t, err)

	e := NewEvent(syslog.LOG_INFO, "m")
	tpl.Precalculate(e)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls), "agnostic-immutable templates never need precalculation")
}

func TestRenderErrorDegradesToEmptySegment(t *testing.T) {
	var warned error
	reg := DefaultRegistry()
	reg.RegisterRenderer("bad", func() RendererInstance {
		return RenderFunc(AffinityImmutable, func(buf *bytes.Buffer, e *Event) error {
			return errors.New("boom")
		})
	})
	tpl, err := Compile("a${bad}b", WithRegistry(reg), WithWarnings(func(e error) { warned = e }))
	require.NoError(t, err)

	assert.Equal(t, "ab", tpl.Render(NewEvent(syslog.LOG_INFO, "m")))
	var rerr *RenderError
	require.ErrorAs(t, warned, &rerr)
	assert.Equal(t, "bad", rerr.Renderer)
}

func TestRenderPanicIsContained(t *testing.T) {
	var warned error
	reg := DefaultRegistry()
	reg.RegisterRenderer("explode", func() RendererInstance {
		return RenderFunc(AffinityImmutable, func(buf *bytes.Buffer, e *Event) error {
			panic("kaboom")
		})
	})
	tpl, err := Compile("a${explode}b", WithRegistry(reg), WithWarnings(func(e error) { warned = e }))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		assert.Equal(t, "ab", tpl.Render(NewEvent(syslog.LOG_INFO, "m")))
	})
	var rerr *RenderError
	require.ErrorAs(t, warned, &rerr)
}

func TestRenderTypedValues(t *testing.T) {
	e := NewEvent(syslog.LOG_INFO, "m", "n", 42, "ok", true, "ratio", 1.5)

	tpl := MustCompile("${event-property:n}")
	n, err := tpl.RenderInt(e)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	tpl = MustCompile("${event-property:ok}")
	b, err := tpl.RenderBool(e)
	require.NoError(t, err)
	assert.True(t, b)

	tpl = MustCompile("${event-property:ratio}")
	f, err := tpl.RenderFloat(e)
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	// a multi-node template falls back to its rendered text
	tpl = MustCompile("${event-property:n}!")
	v, err := tpl.RenderValue(e)
	require.NoError(t, err)
	assert.Equal(t, "42!", v)
}

func TestConcurrentRenderOfSharedTemplate(t *testing.T) {
	tpl := MustCompile("${level}|${message}")
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				e := NewEvent(syslog.LOG_INFO, fmt.Sprintf("m%d", i))
				if got := tpl.Render(e); got != fmt.Sprintf("info|m%d", i) {
					t.Errorf("unexpected render %q", got)
					return
				}
				e.Free()
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestConcurrentRenderOfOneEvent(t *testing.T) {
	tpl := MustCompile("${longdate}|${message}")
	e := NewEvent(syslog.LOG_INFO, "shared")
	want := tpl.Render(e)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				if got := tpl.Render(e); got != want {
					t.Errorf("render of one event diverged: %q != %q", got, want)
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
