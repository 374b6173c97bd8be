package layout

import (
	"fmt"
)

// ParseError is returned by Compile when a template string is malformed:
// an unterminated placeholder, an unknown renderer type, a duplicated
// parameter or a bare value with no default property to receive it.
// In lenient mode most of these are downgraded to warnings instead.
type ParseError struct {
	Template string // the template text being parsed
	Pos      int    // byte offset of the offending construct
	Msg      string
}

// Error returns the formatted parse error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("layout: parse error at %d in %q: %s", e.Pos, e.Template, e.Msg)
}

// ConditionParseError is returned when a condition expression is malformed.
// It is deliberately a distinct type from ParseError so a bad filter
// condition can be told apart from a bad template, even when lenient mode
// reduces the failure to a never-matching condition.
type ConditionParseError struct {
	Condition string
	Pos       int
	Msg       string
}

// Error returns the formatted condition parse error.
func (e *ConditionParseError) Error() string {
	return fmt.Sprintf("layout: condition error at %d in %q: %s", e.Pos, e.Condition, e.Msg)
}

// RenderError wraps a failure (error return or panic) of one renderer during
// evaluation. It is never returned from Template.Render; the failing node
// contributes empty output and the error goes to the warning sink.
type RenderError struct {
	Renderer string // placeholder type name
	Err      error
}

// Error returns the formatted render error.
func (e *RenderError) Error() string {
	return fmt.Sprintf("layout: renderer %q failed: %v", e.Renderer, e.Err)
}

// Unwrap makes RenderError transparent to errors.Is/As.
func (e *RenderError) Unwrap() error { return e.Err }

func parseErrorf(template string, pos int, format string, args ...interface{}) *ParseError {
	return &ParseError{Template: template, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func condErrorf(cond string, pos int, format string, args ...interface{}) *ConditionParseError {
	return &ConditionParseError{Condition: cond, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
