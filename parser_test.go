package layout

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/One-com/gone/layout/syslog"
)

func testEvent(msg string) *Event {
	return NewEvent(syslog.LOG_INFO, msg)
}

func TestLiteralOnlyTemplate(t *testing.T) {
	tpl, err := Compile("just some text")
	require.NoError(t, err)
	require.Len(t, tpl.nodes, 1)
	lit, ok := tpl.nodes[0].(*literalNode)
	require.True(t, ok)
	assert.Equal(t, "just some text", lit.text)
	assert.Equal(t, "just some text", tpl.Render(testEvent("x")))
	assert.True(t, tpl.IsAgnostic())
	assert.True(t, tpl.IsAgnosticImmutable())
}

func TestTopLevelBackslashIsLiteral(t *testing.T) {
	tpl, err := Compile(`C:\temp\n`)
	require.NoError(t, err)
	assert.Equal(t, `C:\temp\n`, tpl.Render(nil))
}

func TestPlaceholderBasics(t *testing.T) {
	tpl, err := Compile("<${message}>")
	require.NoError(t, err)
	assert.Equal(t, "<hello>", tpl.Render(testEvent("hello")))
}

func TestParameterAssignment(t *testing.T) {
	tpl, err := Compile("${event-property:name=user}")
	require.NoError(t, err)
	e := NewEvent(syslog.LOG_INFO, "m", "user", "alice")
	assert.Equal(t, "alice", tpl.Render(e))
}

func TestBareValueGoesToDefaultProperty(t *testing.T) {
	tpl, err := Compile("${event-property:user}")
	require.NoError(t, err)
	e := NewEvent(syslog.LOG_INFO, "m", "user", "bob")
	assert.Equal(t, "bob", tpl.Render(e))
}

func TestBareValueWithoutDefaultProperty(t *testing.T) {
	_, err := Compile("${message:xyzzy}", Strict())
	var perr *ParseError
	require.ErrorAs(t, err, &perr)

	// lenient: warned, ignored
	var warned error
	tpl, err := Compile("${message:xyzzy}", WithWarnings(func(e error) { warned = e }))
	require.NoError(t, err)
	assert.Error(t, warned)
	assert.Equal(t, "hi", tpl.Render(testEvent("hi")))
}

func TestNestedTemplateValue(t *testing.T) {
	tpl, err := Compile("${when:when=level >= LogLevel.Warn:inner=${message}!:else=-}")
	require.NoError(t, err)

	warn := NewEvent(syslog.LOG_WARNING, "look out")
	info := NewEvent(syslog.LOG_INFO, "calm")
	assert.Equal(t, "look out!", tpl.Render(warn))
	assert.Equal(t, "-", tpl.Render(info))
}

func TestEscapesInParameterValues(t *testing.T) {
	tpl, err := Compile(`${literal:text=\{literal\}}`)
	require.NoError(t, err)
	assert.Equal(t, "{literal}", tpl.Render(nil))

	tpl, err = Compile(`${literal:text=\u0041}`)
	require.NoError(t, err)
	assert.Equal(t, "A", tpl.Render(nil))

	// an escaped ':' does not separate parameters
	tpl, err = Compile(`${literal:text=a\:b}`)
	require.NoError(t, err)
	assert.Equal(t, "a:b", tpl.Render(nil))
}

func TestWrapperOrdering(t *testing.T) {
	// padding discovered first, uppercase second: the last discovered
	// wrapper is outermost, so the pad characters get uppercased too.
	tpl, err := Compile("${message:padding=5:padCharacter=x:uppercase=true}")
	require.NoError(t, err)
	assert.Equal(t, "XXXAB", tpl.Render(testEvent("ab")))

	// the reverse discovery order nests the other way round
	tpl, err = Compile("${message:uppercase=true:padding=5:padCharacter=x}")
	require.NoError(t, err)
	assert.Equal(t, "xxxAB", tpl.Render(testEvent("ab")))
}

func TestWrapperReusePerPlaceholder(t *testing.T) {
	tpl, err := Compile("${message:padding=4:padCharacter=_:fixedLength=true}")
	require.NoError(t, err)
	require.Len(t, tpl.nodes, 1)
	ph := tpl.nodes[0].(*placeholderNode)
	assert.Len(t, ph.wrappers, 1, "padding, padCharacter and fixedLength configure one pad wrapper")
	assert.Equal(t, "__hi", tpl.Render(testEvent("hi")))
	assert.Equal(t, "long", tpl.Render(testEvent("longer")))
}

func TestDuplicateParameterIsError(t *testing.T) {
	_, err := Compile("${event-property:name=a:name=b}")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)

	_, err = Compile("${message:padding=1:padding=2}", Strict())
	require.ErrorAs(t, err, &perr)
}

func TestUnterminatedPlaceholder(t *testing.T) {
	for _, in := range []string{"${message", "${message:padding=3", "${"} {
		_, err := Compile(in)
		var perr *ParseError
		require.ErrorAs(t, err, &perr, "input %q", in)
	}
}

func TestUnknownRendererType(t *testing.T) {
	_, err := Compile("${unknown-type-xyz}", Strict())
	var perr *ParseError
	require.ErrorAs(t, err, &perr)

	var warned error
	tpl, err := Compile("${unknown-type-xyz}", WithWarnings(func(e error) { warned = e }))
	require.NoError(t, err)
	require.Error(t, warned)
	assert.Equal(t, "", tpl.Render(testEvent("ignored")))
}

func TestUnassignableParameter(t *testing.T) {
	_, err := Compile("${message:frobnicate=9}", Strict())
	var perr *ParseError
	require.ErrorAs(t, err, &perr)

	var warned error
	tpl, err := Compile("${message:frobnicate=9}", WithWarnings(func(e error) { warned = e }))
	require.NoError(t, err)
	assert.Error(t, warned)
	assert.Equal(t, "still here", tpl.Render(testEvent("still here")))
}

func TestBadConditionValueKeepsItsErrorKind(t *testing.T) {
	_, err := Compile("${when:when=level >>:inner=x}", Strict())
	var cerr *ConditionParseError
	require.ErrorAs(t, err, &cerr, "condition syntax blame must be attributable")
	var perr *ParseError
	assert.False(t, errors.As(err, &perr))

	// lenient: the condition degrades to never-matching
	var warned error
	tpl, err := Compile("${when:when=level >>:inner=x:else=n}", WithWarnings(func(e error) { warned = e }))
	require.NoError(t, err)
	require.ErrorAs(t, warned, &cerr)
	assert.Equal(t, "n", tpl.Render(testEvent("m")))
}

func TestCustomRegistry(t *testing.T) {
	reg := DefaultRegistry()
	reg.RegisterRenderer("shout", func() RendererInstance {
		return RenderFunc(AffinityImmutable, func(buf *bytes.Buffer, e *Event) error {
			buf.WriteString("HEY")
			return nil
		})
	})
	tpl, err := Compile("${shout}", WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, "HEY", tpl.Render(testEvent("x")))
}
