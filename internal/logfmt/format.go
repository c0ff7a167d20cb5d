// Package logfmt detects well-known log line formats and parses them into
// structured entries.
package logfmt

import "time"

// Format identifies a recognized log line format.
type Format int

const (
	Unknown Format = iota
	Java
	Rust
	Go
	Nginx
)

// String returns the lowercase format name, used verbatim as the event
// sourcetype.
func (f Format) String() string {
	switch f {
	case Java:
		return "java"
	case Rust:
		return "rust"
	case Go:
		return "go"
	case Nginx:
		return "nginx"
	default:
		return "unknown"
	}
}

// Entry is one parsed log record with whatever structured fields the format
// carries.
type Entry struct {
	Timestamp  time.Time
	Level      string
	Message    string
	Stacktrace string
	Fields     map[string]any
}
