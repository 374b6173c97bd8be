package layout

import (
	"strings"
)

// cursor is a rune cursor over a template (or condition) string.
// One cursor instance is passed down through nested parses, so position
// information stays consistent for error reporting.
type cursor struct {
	src string
	pos int // byte offset of the next rune
}

func newCursor(s string) *cursor {
	return &cursor{src: s}
}

// eof reports whether the cursor is exhausted.
func (c *cursor) eof() bool {
	return c.pos >= len(c.src)
}

// peek returns the next byte without consuming it, or 0 at end of input.
// The template grammar is structural on ASCII characters only, so byte
// granularity is fine; multi-byte runes just pass through literal runs.
func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.pos]
}

// read consumes and returns the next byte.
func (c *cursor) read() byte {
	b := c.peek()
	if !c.eof() {
		c.pos++
	}
	return b
}

// readUntil returns the longest prefix whose bytes do not satisfy stop,
// leaving the cursor positioned before the first byte that does.
func (c *cursor) readUntil(stop func(byte) bool) string {
	start := c.pos
	for !c.eof() && !stop(c.src[c.pos]) {
		c.pos++
	}
	return c.src[start:c.pos]
}

// hasPrefix reports whether the remaining input starts with s.
func (c *cursor) hasPrefix(s string) bool {
	return strings.HasPrefix(c.src[c.pos:], s)
}

// skipSpace advances past ASCII whitespace.
func (c *cursor) skipSpace() {
	for !c.eof() {
		switch c.src[c.pos] {
		case ' ', '\t', '\r', '\n':
			c.pos++
		default:
			return
		}
	}
}

func isHexDigit(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}

func hexVal(b byte) rune {
	switch {
	case b >= '0' && b <= '9':
		return rune(b - '0')
	case b >= 'a' && b <= 'f':
		return rune(b-'a') + 10
	default:
		return rune(b-'A') + 10
	}
}

// readEscape decodes one escape sequence, the cursor standing just after the
// backslash. Unknown sequences fall through leniently: the backslash is
// dropped and the following character kept verbatim. This is a policy, not
// an error; template authors routinely over-escape.
func (c *cursor) readEscape() string {
	if c.eof() {
		return "\\"
	}
	b := c.read()
	switch b {
	case '0':
		return "\x00"
	case 'a':
		return "\a"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'n':
		return "\n"
	case 'r':
		return "\r"
	case 't':
		return "\t"
	case 'v':
		return "\v"
	case 'u':
		return c.readHex(4, 4, b)
	case 'U':
		return c.readHex(8, 8, b)
	case 'x':
		return c.readHex(1, 4, b)
	default:
		// covers \{ \} \: \\ \' \" and anything unknown
		return string(b)
	}
}

// readHex reads between min and max hex digits and returns the decoded rune.
// Fewer than min digits means the escape is malformed; per the lenient
// policy the introducing character is emitted verbatim instead.
func (c *cursor) readHex(min, max int, intro byte) string {
	var v rune
	var n int
	for n < max && isHexDigit(c.peek()) {
		v = v<<4 | hexVal(c.read())
		n++
	}
	if n < min {
		return string(intro)
	}
	return string(v)
}

// decodeEscapes expands backslash escapes in a parameter value using the
// C-style escape table.
func decodeEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	c := newCursor(s)
	for !c.eof() {
		b := c.read()
		if b == '\\' {
			sb.WriteString(c.readEscape())
		} else {
			sb.WriteByte(b)
		}
	}
	return sb.String()
}
