// Package logging implements the portal's log pipeline: leveled entries
// with free-form metadata fanned out to a local sink, persistent
// storage, an error-tracking service and an alert webhook.
package logging

import (
	"fmt"
	"strings"
)

// Level is the severity of a log entry. Ordering is
// error > warn > info > http > debug.
type Level int8

// Log levels.
const (
	LevelDebug Level = iota
	LevelHTTP
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelHTTP:
		return "http"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int8(l))
	}
}

// ParseLevel parses a level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "http":
		return LevelHTTP, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelDebug, fmt.Errorf("unknown log level: %q", s)
	}
}

// AtLeast reports whether the level is at or above min.
func (l Level) AtLeast(min Level) bool {
	return l >= min
}
