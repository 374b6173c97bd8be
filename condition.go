package layout

import (
	"strconv"
	"strings"

	"github.com/gobwas/glob"

	"github.com/One-com/gone/layout/syslog"
)

// Condition is a compiled condition expression, used by condition-typed
// placeholder parameters and by filters built on top of this package.
// Like Template it is immutable after parse and safe for concurrent
// evaluation against different events (and repeatedly against the same
// event; evaluation is a pure tree walk).
type Condition struct {
	src  string
	expr condExpr
}

// ParseCondition compiles a condition expression such as
//
//	level >= LogLevel.Warn and message like "err*"
//
// A malformed expression returns a *ConditionParseError, never a
// *ParseError, so bad filter syntax is attributable as such.
func ParseCondition(src string, opts ...Option) (*Condition, error) {
	return parseConditionSource(src, newConfig(opts))
}

// Source returns the original expression text.
func (c *Condition) Source() string { return c.src }

// Evaluate runs the expression against an event and returns its value.
// Only a failing condition method can produce an error.
func (c *Condition) Evaluate(e *Event) (interface{}, error) {
	return c.expr.eval(e)
}

// EvaluateBool evaluates and coerces to a boolean. It never returns an
// error: an evaluation failure or a non-boolean result is false, so a
// broken filter condition simply never matches.
func (c *Condition) EvaluateBool(e *Event) bool {
	v, err := c.expr.eval(e)
	if err != nil {
		return false
	}
	return truthy(v)
}

// agnostic/immutable report the combined thread-affinity of the expression,
// for renderers embedding conditions.
func (c *Condition) agnostic() bool {
	a, _ := c.expr.affine()
	return a
}

func (c *Condition) immutable() bool {
	_, i := c.expr.affine()
	return i
}

// neverCondition is what a malformed condition degrades to in lenient mode.
func neverCondition(src string) *Condition {
	return &Condition{src: src, expr: condLiteral{val: false}}
}

func parseConditionSource(src string, cfg *config) (*Condition, error) {
	cp := &condParser{
		lex: condLexer{cur: newCursor(src), src: src, cfg: cfg},
	}
	if err := cp.lex.next(); err != nil {
		return nil, err
	}
	expr, err := cp.parseOr()
	if err != nil {
		return nil, err
	}
	if cp.lex.tok.kind != tkEOF {
		return nil, condErrorf(src, cp.lex.tok.pos, "unexpected %q", cp.lex.tok.text)
	}
	return &Condition{src: src, expr: expr}, nil
}

// ---- expression tree ----

type condExpr interface {
	eval(e *Event) (interface{}, error)
	affine() (agnostic, immutable bool)
}

type condLiteral struct{ val interface{} }

type condLayout struct{ tpl *Template }

type condField int

const (
	fieldLevel condField = iota
	fieldMessage
	fieldLogger
)

type condNot struct{ x condExpr }

type condAnd struct{ l, r condExpr }

type condOr struct{ l, r condExpr }

type condRelation struct {
	op   string
	l, r condExpr
	// pattern is precompiled when op is "like" and the right side is a
	// string literal; otherwise the pattern compiles per evaluation
	pattern glob.Glob
}

type condMethod struct {
	name string
	fn   MethodFunc
	args []condExpr
}

// ---- tokenizer ----

type condTokenKind int

const (
	tkEOF condTokenKind = iota
	tkIdent
	tkNumber
	tkString
	tkOp
	tkLParen
	tkRParen
	tkComma
	tkLayout
)

type condToken struct {
	kind condTokenKind
	text string
	tpl  *Template // for tkLayout and strings containing ${...}
	pos  int
}

type condLexer struct {
	cur *cursor
	src string
	cfg *config
	tok condToken
}

func (lx *condLexer) next() error {
	lx.cur.skipSpace()
	pos := lx.cur.pos
	if lx.cur.eof() {
		lx.tok = condToken{kind: tkEOF, pos: pos}
		return nil
	}
	b := lx.cur.peek()
	switch {
	case b == '(':
		lx.cur.read()
		lx.tok = condToken{kind: tkLParen, text: "(", pos: pos}
	case b == ')':
		lx.cur.read()
		lx.tok = condToken{kind: tkRParen, text: ")", pos: pos}
	case b == ',':
		lx.cur.read()
		lx.tok = condToken{kind: tkComma, text: ",", pos: pos}
	case b == '\'' || b == '"':
		return lx.scanString(b, pos)
	case b >= '0' && b <= '9':
		return lx.scanNumber(pos)
	case b == '-' && len(lx.cur.src) > pos+1 && lx.cur.src[pos+1] >= '0' && lx.cur.src[pos+1] <= '9':
		return lx.scanNumber(pos)
	case b == '$' && lx.cur.hasPrefix("${"):
		return lx.scanLayout(pos)
	case b == '=' || b == '!' || b == '<' || b == '>':
		return lx.scanOperator(pos)
	case isIdentByte(b) || b == '.':
		name := lx.cur.readUntil(func(c byte) bool { return !isIdentByte(c) && c != '.' })
		lx.tok = condToken{kind: tkIdent, text: name, pos: pos}
	default:
		return condErrorf(lx.src, pos, "unexpected character %q", string(b))
	}
	return nil
}

func (lx *condLexer) scanOperator(pos int) error {
	a := lx.cur.read()
	b := lx.cur.peek()
	op := string(a)
	switch {
	case a == '=' && b == '=':
		lx.cur.read()
		op = "=="
	case a == '!' && b == '=':
		lx.cur.read()
		op = "!="
	case a == '<' && b == '>':
		lx.cur.read()
		op = "!="
	case a == '<' && b == '=':
		lx.cur.read()
		op = "<="
	case a == '>' && b == '=':
		lx.cur.read()
		op = ">="
	case a == '=':
		op = "==" // single '=' reads naturally as equality
	case a == '!':
		return condErrorf(lx.src, pos, "unexpected '!'")
	}
	lx.tok = condToken{kind: tkOp, text: op, pos: pos}
	return nil
}

func (lx *condLexer) scanNumber(pos int) error {
	if lx.cur.peek() == '-' {
		lx.cur.read()
	}
	lx.cur.readUntil(func(c byte) bool { return !(c >= '0' && c <= '9' || c == '.') })
	lx.tok = condToken{kind: tkNumber, text: lx.cur.src[pos:lx.cur.pos], pos: pos}
	return nil
}

// scanString reads a quoted string. A doubled quote escapes itself, and
// backslash escapes are expanded. If the decoded text embeds ${...} the
// string is a layout literal rather than a plain string.
func (lx *condLexer) scanString(quote byte, pos int) error {
	lx.cur.read()
	var sb strings.Builder
	for {
		if lx.cur.eof() {
			return condErrorf(lx.src, pos, "unterminated string")
		}
		b := lx.cur.read()
		switch {
		case b == quote && lx.cur.peek() == quote:
			lx.cur.read()
			sb.WriteByte(quote)
		case b == quote:
			text := sb.String()
			tok := condToken{kind: tkString, text: text, pos: pos}
			if strings.Contains(text, "${") {
				tpl, err := compileWith(text, lx.cfg)
				if err != nil {
					return condErrorf(lx.src, pos, "bad embedded layout: %v", err)
				}
				tok.tpl = tpl
			}
			lx.tok = tok
			return nil
		case b == '\\':
			sb.WriteString(lx.cur.readEscape())
		default:
			sb.WriteByte(b)
		}
	}
}

// scanLayout reads a bare ${...} group, brace-balanced and escape-aware,
// and compiles it as a template.
func (lx *condLexer) scanLayout(pos int) error {
	start := lx.cur.pos
	lx.cur.pos += 2
	depth := 1
	for depth > 0 {
		if lx.cur.eof() {
			return condErrorf(lx.src, pos, "unterminated layout literal")
		}
		switch {
		case lx.cur.peek() == '\\':
			lx.cur.read()
			lx.cur.read()
		case lx.cur.hasPrefix("${"):
			lx.cur.pos += 2
			depth++
		case lx.cur.peek() == '}':
			lx.cur.read()
			depth--
		default:
			lx.cur.read()
		}
	}
	raw := lx.cur.src[start:lx.cur.pos]
	tpl, err := compileWith(raw, lx.cfg)
	if err != nil {
		return condErrorf(lx.src, pos, "bad layout literal: %v", err)
	}
	lx.tok = condToken{kind: tkLayout, text: raw, tpl: tpl, pos: pos}
	return nil
}

// ---- recursive descent ----

type condParser struct {
	lex condLexer
}

func (p *condParser) atKeyword(kw string) bool {
	return p.lex.tok.kind == tkIdent && strings.EqualFold(p.lex.tok.text, kw)
}

func (p *condParser) parseOr() (condExpr, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("or") {
		if err := p.lex.next(); err != nil {
			return nil, err
		}
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = condOr{l: l, r: r}
	}
	return l, nil
}

func (p *condParser) parseAnd() (condExpr, error) {
	l, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("and") {
		if err := p.lex.next(); err != nil {
			return nil, err
		}
		r, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		l = condAnd{l: l, r: r}
	}
	return l, nil
}

func (p *condParser) parseNot() (condExpr, error) {
	if p.atKeyword("not") {
		if err := p.lex.next(); err != nil {
			return nil, err
		}
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return condNot{x: x}, nil
	}
	return p.parseRelation()
}

// parseRelation parses "primary [op primary]" where op is a relational
// operator or the word operator "like". Relations do not associate.
func (p *condParser) parseRelation() (condExpr, error) {
	l, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	var op string
	switch {
	case p.lex.tok.kind == tkOp:
		op = p.lex.tok.text
	case p.atKeyword("like"):
		op = "like"
	default:
		return l, nil
	}
	if err := p.lex.next(); err != nil {
		return nil, err
	}
	r, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	rel := condRelation{op: op, l: l, r: r}
	if op == "like" {
		if lit, ok := r.(condLiteral); ok {
			if s, ok := lit.val.(string); ok {
				g, err := glob.Compile(strings.ToLower(s))
				if err != nil {
					return nil, condErrorf(p.lex.src, p.lex.tok.pos, "bad like pattern %q: %v", s, err)
				}
				rel.pattern = g
			}
		}
	}
	return rel, nil
}

func (p *condParser) parsePrimary() (condExpr, error) {
	tok := p.lex.tok
	switch tok.kind {
	case tkNumber:
		if err := p.lex.next(); err != nil {
			return nil, err
		}
		return condLiteral{val: parseNumber(tok.text)}, nil
	case tkString:
		if err := p.lex.next(); err != nil {
			return nil, err
		}
		if tok.tpl != nil {
			return condLayout{tpl: tok.tpl}, nil
		}
		return condLiteral{val: tok.text}, nil
	case tkLayout:
		if err := p.lex.next(); err != nil {
			return nil, err
		}
		return condLayout{tpl: tok.tpl}, nil
	case tkLParen:
		if err := p.lex.next(); err != nil {
			return nil, err
		}
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.lex.tok.kind != tkRParen {
			return nil, condErrorf(p.lex.src, p.lex.tok.pos, "expected ')'")
		}
		return x, p.lex.next()
	case tkIdent:
		return p.parseIdent(tok)
	default:
		return nil, condErrorf(p.lex.src, tok.pos, "unexpected %q", tok.text)
	}
}

func (p *condParser) parseIdent(tok condToken) (condExpr, error) {
	name := strings.ToLower(tok.text)
	if err := p.lex.next(); err != nil {
		return nil, err
	}
	// a call?
	if p.lex.tok.kind == tkLParen {
		return p.parseCall(tok)
	}
	switch name {
	case "true":
		return condLiteral{val: true}, nil
	case "false":
		return condLiteral{val: false}, nil
	case "level":
		return fieldLevel, nil
	case "message":
		return fieldMessage, nil
	case "logger", "loggername":
		return fieldLogger, nil
	case "and", "or", "not", "like":
		return nil, condErrorf(p.lex.src, tok.pos, "unexpected keyword %q", tok.text)
	}
	if lvl, err := syslog.ParseLevel(name); err == nil {
		return condLiteral{val: lvl}, nil
	}
	return nil, condErrorf(p.lex.src, tok.pos, "unknown identifier %q", tok.text)
}

func (p *condParser) parseCall(nameTok condToken) (condExpr, error) {
	fn, ok := p.lex.cfg.registry.Method(nameTok.text)
	if !ok {
		return nil, condErrorf(p.lex.src, nameTok.pos, "unknown condition method %q", nameTok.text)
	}
	if err := p.lex.next(); err != nil { // consume '('
		return nil, err
	}
	var args []condExpr
	if p.lex.tok.kind != tkRParen {
		for {
			a, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.lex.tok.kind != tkComma {
				break
			}
			if err := p.lex.next(); err != nil {
				return nil, err
			}
		}
	}
	if p.lex.tok.kind != tkRParen {
		return nil, condErrorf(p.lex.src, p.lex.tok.pos, "expected ')' after arguments of %q", nameTok.text)
	}
	return condMethod{name: nameTok.text, fn: fn, args: args}, p.lex.next()
}

func parseNumber(s string) interface{} {
	if strings.ContainsRune(s, '.') {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	} else if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
