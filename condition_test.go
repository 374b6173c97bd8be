package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/One-com/gone/layout/syslog"
)

func evalBool(t *testing.T, src string, e *Event) bool {
	t.Helper()
	cond, err := ParseCondition(src)
	require.NoError(t, err, "condition %q", src)
	return cond.EvaluateBool(e)
}

func TestConditionSpecExample(t *testing.T) {
	src := `level >= LogLevel.Warn and message like "err*"`

	errEvent := NewEvent(syslog.LOG_ERR, "error occurred")
	infoEvent := NewEvent(syslog.LOG_INFO, "error occurred")

	assert.True(t, evalBool(t, src, errEvent))
	assert.False(t, evalBool(t, src, infoEvent))
}

func TestConditionLevels(t *testing.T) {
	warn := NewEvent(syslog.LOG_WARNING, "")
	cases := []struct {
		src  string
		want bool
	}{
		{"level == LogLevel.Warn", true},
		{"level == warning", true},
		{"level != warning", false},
		{"level >= info", true},
		{"level > error", false},
		{"level < error", true},
		{"level <= LogLevel.Warn", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, evalBool(t, c.src, warn), "condition %q", c.src)
	}
}

func TestConditionBooleanOperators(t *testing.T) {
	e := NewEvent(syslog.LOG_INFO, "hello")
	cases := []struct {
		src  string
		want bool
	}{
		{"true", true},
		{"false", false},
		{"not false", true},
		{"not not true", true},
		{"true and false", false},
		{"true or false", true},
		{"false or false or true", true},
		// precedence: or binds loosest
		{"true or false and false", true},
		{"(true or false) and false", false},
		{"not (true and false)", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, evalBool(t, c.src, e), "condition %q", c.src)
	}
}

func TestConditionComparisons(t *testing.T) {
	e := NewEvent(syslog.LOG_INFO, "hello")
	cases := []struct {
		src  string
		want bool
	}{
		{"1 < 2", true},
		{"2.5 >= 2", true},
		{"-1 < 0", true},
		{"'abc' < 'abd'", true},
		{"'a' == 'a'", true},
		{"'a' <> 'b'", true},
		{"'5' == 5", true}, // numeric string coerces against a number
		{"message == 'hello'", true},
		{"message != 'goodbye'", true},
		// incompatible types never order, == is false, != is true
		{"'x' == true", false},
		{"'x' != true", true},
		{"'x' > true", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, evalBool(t, c.src, e), "condition %q", c.src)
	}
}

func TestConditionLike(t *testing.T) {
	e := NewEvent(syslog.LOG_INFO, "Error Occurred")
	assert.True(t, evalBool(t, `message like "err*"`, e), "like is case-insensitive")
	assert.True(t, evalBool(t, `message like "*occur*"`, e))
	assert.False(t, evalBool(t, `message like "warn*"`, e))
}

func TestConditionMethods(t *testing.T) {
	e := NewEvent(syslog.LOG_INFO, "hello world")
	cases := []struct {
		src  string
		want bool
	}{
		{"length(message) == 11", true},
		{"contains(message, 'wor')", true},
		{"starts-with(message, 'hello')", true},
		{"ends-with(message, 'world')", true},
		{"equals(upper(message), 'HELLO WORLD')", true},
		{"lower('ABC') == 'abc'", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, evalBool(t, c.src, e), "condition %q", c.src)
	}
}

func TestConditionLayoutLiteral(t *testing.T) {
	e := NewEvent(syslog.LOG_INFO, "m")
	e.Name = "db/conn"

	assert.True(t, evalBool(t, "${logger} == 'db/conn'", e))
	assert.True(t, evalBool(t, "'${logger}' == 'db/conn'", e), "a quoted string embedding ${...} is a layout literal")
	assert.True(t, evalBool(t, "logger == 'db/conn'", e))
}

func TestConditionParseErrors(t *testing.T) {
	for _, src := range []string{
		"level >>",
		"and true",
		"(true",
		"length(message",
		"'unterminated",
		"frobnicate(1)",
		"wibble",
		"!",
	} {
		_, err := ParseCondition(src)
		var cerr *ConditionParseError
		require.ErrorAs(t, err, &cerr, "condition %q", src)
	}
}

func TestConditionEvaluationIsRepeatable(t *testing.T) {
	cond, err := ParseCondition("level >= warning and contains(message, 'x')")
	require.NoError(t, err)
	e := NewEvent(syslog.LOG_ERR, "axe")
	for i := 0; i < 3; i++ {
		assert.True(t, cond.EvaluateBool(e))
	}
}

func TestConditionMethodErrorNeverEscapesEvaluateBool(t *testing.T) {
	cond, err := ParseCondition("length(message, message) == 1")
	require.NoError(t, err)
	e := NewEvent(syslog.LOG_INFO, "m")
	_, everr := cond.Evaluate(e)
	assert.Error(t, everr, "wrong arity surfaces from Evaluate")
	assert.False(t, cond.EvaluateBool(e), "but EvaluateBool just fails the match")
}
