package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeEscapes(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{`plain`, `plain`},
		{`a\nb`, "a\nb"},
		{`a\tb`, "a\tb"},
		{`\0\a\b\f\r\v`, "\x00\a\b\f\r\v"},
		{`\{literal\}`, `{literal}`},
		{`\:`, `:`},
		{`\\`, `\`},
		{`\'\"`, `'"`},
		{`\u0041`, "A"},
		{`\u00e6`, "æ"},
		{`\U0001F600`, "😀"},
		{`\x41`, "A"},
		{`\x0041`, "A"},
		// lenient fall-through: backslash dropped, char kept
		{`\q`, `q`},
		// malformed hex escapes emit the introducer verbatim
		{`\uZZ`, `uZZ`},
		{`\x`, `x`},
		// trailing backslash survives
		{`tail\`, `tail\`},
	}
	for _, c := range cases {
		assert.Equal(t, c.out, decodeEscapes(c.in), "input %q", c.in)
	}
}

func TestReadUntil(t *testing.T) {
	c := newCursor("abc:def")
	got := c.readUntil(func(b byte) bool { return b == ':' })
	assert.Equal(t, "abc", got)
	assert.Equal(t, byte(':'), c.peek(), "cursor must stop before the matching character")

	rest := c.readUntil(func(b byte) bool { return false })
	assert.Equal(t, ":def", rest)
	assert.True(t, c.eof())
}
