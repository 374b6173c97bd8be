package layout

import (
	"strings"
)

// parser is the recursive-descent template parser. One parser (and one
// cursor) is shared across nested sub-template parses so positions in
// errors always refer to the outermost template string.
type parser struct {
	cur      *cursor
	cfg      *config
	template string
}

// parseNodes scans literal runs and placeholders until end of input, or,
// when nested (parsing a parameter value that is itself a sub-template),
// until an unescaped '}' or ':' which is left unconsumed for the caller.
//
// At the top level a backslash is plain text; only inside a nested parse
// does it escape the structural characters (and expands the usual C-style
// escapes, so A works inside nested values too).
func (p *parser) parseNodes(nested bool) ([]node, error) {
	var nodes []node
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			nodes = append(nodes, &literalNode{text: lit.String()})
			lit.Reset()
		}
	}

	for !p.cur.eof() {
		b := p.cur.peek()
		switch {
		case nested && (b == '}' || b == ':'):
			flush()
			return nodes, nil
		case b == '$' && p.cur.hasPrefix("${"):
			p.cur.pos += 2
			flush()
			ph, err := p.parsePlaceholder()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, ph)
		case b == '\\' && nested:
			p.cur.read()
			lit.WriteString(p.cur.readEscape())
		default:
			lit.WriteByte(p.cur.read())
		}
	}
	flush()
	return nodes, nil
}

// parsePlaceholder parses the inside of a ${...}, the cursor standing just
// after the opening "${".
func (p *parser) parsePlaceholder() (node, error) {
	start := p.cur.pos
	name := p.cur.readUntil(func(b byte) bool { return b == '}' || b == ':' || b == '=' })
	if p.cur.eof() {
		return nil, parseErrorf(p.template, start, "unterminated placeholder ${%s", name)
	}
	if p.cur.peek() == '=' {
		return nil, parseErrorf(p.template, p.cur.pos, "unexpected '=' after renderer type %q", name)
	}
	if name == "" {
		return nil, parseErrorf(p.template, start, "empty renderer type name")
	}

	var inst RendererInstance
	if factory, ok := p.cfg.registry.Renderer(name); ok {
		inst = factory()
	} else {
		err := parseErrorf(p.template, start, "unknown renderer type %q", name)
		if p.cfg.strict {
			return nil, err
		}
		p.cfg.warn(err)
		inst = noopRenderer{}
	}

	ph := &placeholderNode{typeName: name, renderer: inst}
	assigned := make(map[string]bool)
	materialized := make(map[string]WrapperInstance)

	for p.cur.peek() == ':' {
		p.cur.read()
		if err := p.parseParameter(ph, assigned, materialized); err != nil {
			return nil, err
		}
	}
	if p.cur.peek() != '}' {
		return nil, parseErrorf(p.template, start, "unterminated placeholder ${%s", name)
	}
	p.cur.read()
	return ph, nil
}

// parseParameter parses one "name=value" pair or bare default-property
// value after a ':' separator.
func (p *parser) parseParameter(ph *placeholderNode, assigned map[string]bool, materialized map[string]WrapperInstance) error {
	start := p.cur.pos
	name, named := p.scanParamName()
	if !named {
		// a bare value; rewind and feed it to the default property
		p.cur.pos = start
		return p.parseBareValue(ph, assigned)
	}

	prop, ok := findProperty(ph.renderer.Properties(), name)
	if !ok {
		// Not a property of the base renderer: try to resolve the name as
		// an ambient wrapper. A wrapper type already materialized for this
		// placeholder is reused, so padding and padCharacter configure one
		// pad wrapper rather than two.
		if typeName, factory, found := p.cfg.registry.Wrapper(name); found {
			w, exists := materialized[typeName]
			if !exists {
				w = factory()
				materialized[typeName] = w
				ph.wrappers = append(ph.wrappers, w)
			}
			prop, ok = findProperty(w.Properties(), name)
		}
	}
	if !ok {
		err := parseErrorf(p.template, start, "parameter %q not settable on ${%s}", name, ph.typeName)
		if p.cfg.strict {
			return err
		}
		p.cfg.warn(err)
		p.scanRawValue() // consume and discard the value
		return nil
	}

	key := strings.ToLower(name)
	if assigned[key] {
		return parseErrorf(p.template, start, "parameter %q assigned twice on ${%s}", name, ph.typeName)
	}
	assigned[key] = true

	return p.parseValueInto(prop, start)
}

// parseBareValue assigns a value with no "name=" to the renderer's default
// property.
func (p *parser) parseBareValue(ph *placeholderNode, assigned map[string]bool) error {
	start := p.cur.pos
	def := ph.renderer.DefaultProperty()
	if def == "" {
		err := parseErrorf(p.template, start, "${%s} takes no bare value", ph.typeName)
		if p.cfg.strict {
			return err
		}
		p.cfg.warn(err)
		p.scanRawValue()
		return nil
	}
	prop, ok := findProperty(ph.renderer.Properties(), def)
	if !ok {
		// the renderer declared a default property it does not expose
		return parseErrorf(p.template, start, "${%s}: default property %q not found", ph.typeName, def)
	}
	key := strings.ToLower(def)
	if assigned[key] {
		return parseErrorf(p.template, start, "parameter %q assigned twice on ${%s}", def, ph.typeName)
	}
	assigned[key] = true

	return p.parseValueInto(prop, start)
}

// parseValueInto parses a parameter value according to the declared kind of
// the receiving property and performs the typed assignment.
func (p *parser) parseValueInto(prop Property, start int) error {
	switch prop.Kind {
	case KindTemplate:
		sub, err := p.parseNested()
		if err != nil {
			return err
		}
		return p.assign(prop, sub, start)
	case KindCondition:
		src := p.scanConditionSource()
		cond, err := parseConditionSource(src, p.cfg)
		if err != nil {
			if p.cfg.strict {
				return err
			}
			// degrade to a never-matching condition, but keep the error
			// kind visible to operators
			p.cfg.warn(err)
			cond = neverCondition(src)
		}
		return p.assign(prop, cond, start)
	default:
		return p.assign(prop, p.scanRawValue(), start)
	}
}

// assign runs a property setter, converting its failure (a value of the
// wrong shape, like padding=x) into the configured error policy.
func (p *parser) assign(prop Property, v interface{}, start int) error {
	if err := prop.Set(v); err != nil {
		perr := parseErrorf(p.template, start, "parameter %q: %v", prop.Name, err)
		if p.cfg.strict {
			return perr
		}
		p.cfg.warn(perr)
	}
	return nil
}

// parseNested re-enters the node parser for a parameter value that is
// itself a template, terminating at the enclosing placeholder's ':' or '}'.
func (p *parser) parseNested() (*Template, error) {
	start := p.cur.pos
	nodes, err := p.parseNodes(true)
	if err != nil {
		return nil, err
	}
	return finishTemplate(p.cur.src[start:p.cur.pos], nodes, p.cfg), nil
}

// scanParamName tries to read an identifier followed by '='. On success the
// '=' is consumed and (name, true) returned. Anything else means the token
// is a bare value; the caller rewinds.
func (p *parser) scanParamName() (string, bool) {
	name := p.cur.readUntil(func(b byte) bool { return !isIdentByte(b) })
	if name != "" && p.cur.peek() == '=' {
		p.cur.read()
		return name, true
	}
	return "", false
}

func isIdentByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' ||
		b >= '0' && b <= '9' || b == '-' || b == '_'
}

// scanRawValue reads a plain parameter value up to an unescaped ':' or '}'
// at the current nesting level, decoding escapes as it goes. A nested
// ${...} group inside the value is kept verbatim (it only means something
// to properties of template kind, which never come through here).
func (p *parser) scanRawValue() string {
	var sb strings.Builder
	depth := 0
	for !p.cur.eof() {
		b := p.cur.peek()
		switch {
		case b == '\\':
			p.cur.read()
			sb.WriteString(p.cur.readEscape())
		case b == '$' && p.cur.hasPrefix("${"):
			p.cur.pos += 2
			sb.WriteString("${")
			depth++
		case b == '}':
			if depth == 0 {
				return sb.String()
			}
			depth--
			sb.WriteByte(p.cur.read())
		case b == ':' && depth == 0:
			return sb.String()
		default:
			sb.WriteByte(p.cur.read())
		}
	}
	return sb.String()
}

// scanConditionSource reads a condition-typed parameter value up to an
// unescaped ':' or '}' at depth zero, leaving quoted strings, parenthesized
// groups and embedded ${...} layouts intact for the condition parser.
func (p *parser) scanConditionSource() string {
	start := p.cur.pos
	var braces, parens int
	var quote byte
	for !p.cur.eof() {
		b := p.cur.peek()
		if quote != 0 {
			p.cur.read()
			if b == quote {
				quote = 0
			}
			continue
		}
		switch {
		case b == '\'' || b == '"':
			quote = b
			p.cur.read()
		case b == '(':
			parens++
			p.cur.read()
		case b == ')':
			parens--
			p.cur.read()
		case b == '$' && p.cur.hasPrefix("${"):
			braces++
			p.cur.pos += 2
		case b == '}':
			if braces == 0 {
				return p.cur.src[start:p.cur.pos]
			}
			braces--
			p.cur.read()
		case b == ':' && braces == 0 && parens == 0:
			return p.cur.src[start:p.cur.pos]
		default:
			p.cur.read()
		}
	}
	return p.cur.src[start:p.cur.pos]
}
