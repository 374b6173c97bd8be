package layout

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/cast"

	"github.com/One-com/gone/layout/syslog"
)

// Evaluation is a pure tree walk. No node mutates anything, so one compiled
// Condition can be evaluated from any number of goroutines at once.

func (c condLiteral) eval(e *Event) (interface{}, error) {
	return c.val, nil
}

func (c condLiteral) affine() (bool, bool) { return true, true }

func (c condLayout) eval(e *Event) (interface{}, error) {
	return c.tpl.Render(e), nil
}

func (c condLayout) affine() (bool, bool) {
	return c.tpl.IsAgnostic(), c.tpl.IsAgnosticImmutable()
}

func (f condField) eval(e *Event) (interface{}, error) {
	if e == nil {
		return nil, nil
	}
	switch f {
	case fieldLevel:
		return e.Lvl, nil
	case fieldMessage:
		return e.Msg, nil
	default:
		return e.Name, nil
	}
}

func (f condField) affine() (bool, bool) { return true, true }

func (c condNot) eval(e *Event) (interface{}, error) {
	v, err := c.x.eval(e)
	if err != nil {
		return nil, err
	}
	return !truthy(v), nil
}

func (c condNot) affine() (bool, bool) { return c.x.affine() }

func (c condAnd) eval(e *Event) (interface{}, error) {
	l, err := c.l.eval(e)
	if err != nil {
		return nil, err
	}
	if !truthy(l) {
		return false, nil
	}
	r, err := c.r.eval(e)
	if err != nil {
		return nil, err
	}
	return truthy(r), nil
}

func (c condAnd) affine() (bool, bool) { return combineAffine(c.l, c.r) }

func (c condOr) eval(e *Event) (interface{}, error) {
	l, err := c.l.eval(e)
	if err != nil {
		return nil, err
	}
	if truthy(l) {
		return true, nil
	}
	r, err := c.r.eval(e)
	if err != nil {
		return nil, err
	}
	return truthy(r), nil
}

func (c condOr) affine() (bool, bool) { return combineAffine(c.l, c.r) }

func (c condRelation) eval(e *Event) (interface{}, error) {
	l, err := c.l.eval(e)
	if err != nil {
		return nil, err
	}
	r, err := c.r.eval(e)
	if err != nil {
		return nil, err
	}
	if c.op == "like" {
		return c.like(l, r), nil
	}
	return compareValues(c.op, l, r), nil
}

func (c condRelation) affine() (bool, bool) { return combineAffine(c.l, c.r) }

func (c condRelation) like(l, r interface{}) bool {
	subject := strings.ToLower(cast.ToString(l))
	g := c.pattern
	if g == nil {
		var err error
		g, err = glob.Compile(strings.ToLower(cast.ToString(r)))
		if err != nil {
			return false
		}
	}
	return g.Match(subject)
}

func (c condMethod) eval(e *Event) (interface{}, error) {
	args := make([]interface{}, len(c.args))
	for i, a := range c.args {
		v, err := a.eval(e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	v, err := c.fn(args...)
	if err != nil {
		return nil, fmt.Errorf("condition method %s: %w", c.name, err)
	}
	return v, nil
}

func (c condMethod) affine() (agnostic, immutable bool) {
	// methods are pure functions of their arguments
	agnostic, immutable = true, true
	for _, a := range c.args {
		ag, im := a.affine()
		agnostic = agnostic && ag
		immutable = immutable && im
	}
	return
}

func combineAffine(l, r condExpr) (bool, bool) {
	la, li := l.affine()
	ra, ri := r.affine()
	return la && ra, li && ri
}

// truthy is the boolean coercion used by and/or/not and EvaluateBool.
// Anything cast can read as a bool counts; everything else is false.
func truthy(v interface{}) bool {
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false
	}
	return b
}

// compareValues implements the relational operators with the lenient
// cross-type policy: values of incompatible types are simply unequal
// (== false, != true) and never ordered; they do not error.
//
// Log levels compare by severity, numbers numerically (with numeric
// strings coerced), strings ordinally, booleans only for equality.
func compareValues(op string, l, r interface{}) bool {
	if lp, ok := l.(syslog.Priority); ok {
		if rp, ok := toLevel(r); ok {
			return compareInts(op, lp.Severity(), rp.Severity())
		}
		return incompatible(op)
	}
	if rp, ok := r.(syslog.Priority); ok {
		if lp, ok := toLevel(l); ok {
			return compareInts(op, lp.Severity(), rp.Severity())
		}
		return incompatible(op)
	}
	if lb, ok := l.(bool); ok {
		rb, ok := r.(bool)
		if !ok {
			return incompatible(op)
		}
		switch op {
		case "==":
			return lb == rb
		case "!=":
			return lb != rb
		}
		return false
	}
	if _, ok := r.(bool); ok {
		return incompatible(op)
	}
	if isNumber(l) || isNumber(r) {
		lf, lerr := cast.ToFloat64E(l)
		rf, rerr := cast.ToFloat64E(r)
		if lerr != nil || rerr != nil {
			return incompatible(op)
		}
		return compareFloats(op, lf, rf)
	}
	ls, lerr := cast.ToStringE(l)
	rs, rerr := cast.ToStringE(r)
	if lerr != nil || rerr != nil {
		return incompatible(op)
	}
	return compareInts(op, strings.Compare(ls, rs), 0)
}

func incompatible(op string) bool {
	return op == "!="
}

func toLevel(v interface{}) (syslog.Priority, bool) {
	switch x := v.(type) {
	case syslog.Priority:
		return x, true
	case string:
		p, err := syslog.ParseLevel(x)
		return p, err == nil
	case int, int8, int16, int32, int64:
		return syslog.Priority(cast.ToInt(x)), true
	default:
		return 0, false
	}
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

func compareInts(op string, l, r int) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	return false
}

func compareFloats(op string, l, r float64) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	return false
}
