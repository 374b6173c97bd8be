package layout

import (
	"runtime"
	"sync"
	"time"

	"github.com/One-com/gone/layout/syslog"
)

// Event is one log event as seen by the rendering engine.
// Exported fields allow the logging front-end and external renderers to
// access event data. An Event is meant to be immutable once created; the
// only mutable part is the attached render-value cache, which is guarded
// internally.
type Event struct {
	Lvl  syslog.Priority // Level this event was logged at.
	Msg  string          // Basic log message.
	Data []interface{}   // Key/value structured data unique for this event.
	Name string          // Name of the logger generating this event.

	// Time is stamped on creation so repeated renders agree.
	tok  bool
	time time.Time

	// file/line information, when the front-end recorded it
	fok  bool
	file string
	line int

	// Render-value cache, keyed by compiled template identity.
	// Created lazily on first store, valid only for the lifetime of this
	// event, never shared between events.
	mu    sync.Mutex
	cache map[*Template]string
}

var evpool = &sync.Pool{New: func() interface{} { return new(Event) }}

// NewEvent creates a timestamped log event from a pool.
// kv is a flat list of alternating keys and values.
// Call Free when the event will not be rendered again.
func NewEvent(level syslog.Priority, msg string, kv ...interface{}) *Event {
	e := evpool.Get().(*Event)
	e.Lvl = level
	e.Msg = msg
	e.Data = kv
	e.time = time.Now()
	e.tok = true
	return e
}

// Free returns the event to the pool. The render cache dies with it:
// the map allocation is reused, its contents never are.
func (e *Event) Free() {
	e.mu.Lock()
	for k := range e.cache {
		delete(e.cache, k)
	}
	e.mu.Unlock()
	e.Lvl, e.Msg, e.Name = 0, "", ""
	e.Data = nil
	e.tok, e.fok = false, false
	e.time = time.Time{}
	e.file, e.line = "", 0
	evpool.Put(e)
}

// WithTime returns the event with its timestamp overridden.
func (e *Event) WithTime(t time.Time) *Event {
	e.time = t
	e.tok = true
	return e
}

// Time returns the timestamp of the event.
func (e *Event) Time() time.Time {
	if e.tok {
		return e.time
	}
	return time.Now()
}

// SetCaller records file/line information on the event.
// calldepth is the number of stack frames to ascend, counted as in
// runtime.Caller: 1 is the caller of SetCaller.
func (e *Event) SetCaller(calldepth int) {
	_, file, line, ok := runtime.Caller(calldepth)
	if ok {
		e.file = file
		e.line = line
		e.fok = true
	}
}

// FileInfo returns recorded file and line number of the log call, if any.
func (e *Event) FileInfo() (string, int, bool) {
	return e.file, e.line, e.fok
}

// Value looks up a key in the event's structured data.
// Data is scanned as alternating key/value pairs; the first match wins.
func (e *Event) Value(key string) (interface{}, bool) {
	if e == nil {
		return nil, false
	}
	for i := 0; i+1 < len(e.Data); i += 2 {
		if k, ok := e.Data[i].(string); ok && k == key {
			return e.Data[i+1], true
		}
	}
	return nil, false
}

// cachedRender returns the cached render text for a template, if present.
func (e *Event) cachedRender(t *Template) (string, bool) {
	if e == nil {
		return "", false
	}
	e.mu.Lock()
	s, ok := e.cache[t]
	e.mu.Unlock()
	return s, ok
}

// storeRender caches rendered text for a template on this event.
func (e *Event) storeRender(t *Template, s string) {
	if e == nil {
		return
	}
	e.mu.Lock()
	if e.cache == nil {
		e.cache = make(map[*Template]string, 4)
	}
	e.cache[t] = s
	e.mu.Unlock()
}
