/*
Package layout compiles log line template strings into renderers and renders
them against log events, fast enough to sit on the hot path of a logging
library and safe to share across any number of goroutines.

A template is a mix of literal text and ${...} placeholders:

	${longdate}|${level:uppercase=true}|${message}

Compile parses the template once, at configuration time, into an immutable
Template which is then rendered per event:

	tpl, err := layout.Compile("${longdate}|${level}|${message}")
	if err != nil { ... }
	line := tpl.Render(event)

Placeholders take parameters after a ':' separator. A parameter either matches
a declared property of the renderer (its value parsed as a plain string, a
nested sub-template or a condition expression, depending on the property), or
it resolves to an ambient wrapper which post-processes the renderer's output:

	${message:padding=10:uppercase=true}

Wrappers stack; the last wrapper discovered is applied outermost.

Condition expressions are a small infix language used by condition-typed
properties (and by filters built on top of this package):

	level >= LogLevel.Warn and message like "err*"

Compiled templates classify themselves as thread-agnostic and/or
agnostic-immutable. An agnostic-immutable template renders to the same text
for a given event no matter which goroutine evaluates it or when, so its
result can be cached on the event. Anything else must be precalculated with
Template.Precalculate before the event is handed across a goroutine or queue
boundary by an asynchronous writer.

Renderers are looked up in an explicit Registry. DefaultRegistry returns one
populated with the built-in renderer and wrapper set; applications register
their own renderers next to them. There is no global mutable state: the
registry in use is the one passed to Compile.

Errors during Compile are typed (ParseError, ConditionParseError) and only
returned in strict mode. The default mode is lenient: unknown renderers and
unassignable parameters degrade to no-ops reported through an optional
warning sink, and a renderer failing during Render contributes empty output
for its own segment without disturbing the rest of the line. Logging must
never break the application doing the logging.
*/
package layout
