// Package syslog provides the log level constants used by gone/layout,
// source code compatible with the standard library "log/syslog" levels.
package syslog

import (
	"fmt"
	"strings"
)

// Priority is a syslog severity level. Lower values are more severe.
type Priority int

const (
	LOG_EMERG Priority = iota
	LOG_ALERT
	LOG_CRIT
	LOG_ERR
	LOG_WARNING
	LOG_NOTICE
	LOG_INFO
	LOG_DEBUG
)

// aliases

const (
	LOG_ERROR Priority = LOG_ERR
	LOG_WARN  Priority = LOG_WARNING
)

var names = [...]string{
	LOG_EMERG:   "emergency",
	LOG_ALERT:   "alert",
	LOG_CRIT:    "critical",
	LOG_ERR:     "error",
	LOG_WARNING: "warning",
	LOG_NOTICE:  "notice",
	LOG_INFO:    "info",
	LOG_DEBUG:   "debug",
}

// String returns the canonical lowercase name of the level.
func (p Priority) String() string {
	if p < LOG_EMERG || p > LOG_DEBUG {
		return fmt.Sprintf("level(%d)", int(p))
	}
	return names[p]
}

// Severity returns an integer which increases with the severity of the level,
// so more severe levels compare greater. Syslog priorities are numerically
// inverted (LOG_EMERG is 0), which makes them awkward to compare directly.
func (p Priority) Severity() int {
	return int(LOG_DEBUG - p)
}

var byName = map[string]Priority{
	"emerg":     LOG_EMERG,
	"emergency": LOG_EMERG,
	"fatal":     LOG_EMERG,
	"alert":     LOG_ALERT,
	"crit":      LOG_CRIT,
	"critical":  LOG_CRIT,
	"err":       LOG_ERR,
	"error":     LOG_ERR,
	"warn":      LOG_WARNING,
	"warning":   LOG_WARNING,
	"notice":    LOG_NOTICE,
	"info":      LOG_INFO,
	"debug":     LOG_DEBUG,
	"trace":     LOG_DEBUG,
}

// ParseLevel resolves a level name to a Priority. Case-insensitive.
// A "LogLevel." prefix is accepted and ignored, so condition expressions
// can spell levels the way other logging systems do.
func ParseLevel(name string) (Priority, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, "loglevel.")
	if p, ok := byName[key]; ok {
		return p, nil
	}
	return LOG_INFO, fmt.Errorf("unknown log level: %q", name)
}
