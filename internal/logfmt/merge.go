package logfmt

import (
	"strings"
	"time"
)

// Merge folds raw lines into log entries, gluing multi-line records (Java
// stack traces) onto the entry they belong to.
//
// A continuation line is accumulated into the current entry's stack trace.
// Any other line parses as a new entry; on parse failure it is appended to
// the previous entry's message, or synthesized as an INFO entry at "now"
// when there is no previous entry.
func Merge(lines []string, format Format) []Entry {
	var entries []Entry
	var current *Entry
	var stacktrace []string

	flush := func() {
		if current == nil {
			return
		}
		if len(stacktrace) > 0 {
			joined := strings.Join(stacktrace, "\n")
			current.Stacktrace = joined
			if current.Fields == nil {
				current.Fields = map[string]any{}
			}
			current.Fields["stacktrace"] = joined
			stacktrace = stacktrace[:0]
		}
		entries = append(entries, *current)
		current = nil
	}

	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r\n")
		if line == "" {
			continue
		}

		if format == Java && javaStacktraceRe.MatchString(line) {
			stacktrace = append(stacktrace, line)
			continue
		}

		var parsed *Entry
		var ok bool
		switch format {
		case Java:
			parsed, ok = ParseJavaLine(line)
		case Rust:
			parsed, ok = ParseRustLine(line)
		case Go:
			parsed, ok = ParseGoLine(line)
		}

		if ok {
			flush()
			current = parsed
			continue
		}

		if current != nil {
			current.Message += "\n" + line
			continue
		}
		current = &Entry{
			Timestamp: time.Now().UTC(),
			Level:     "INFO",
			Message:   line,
			Fields:    map[string]any{},
		}
	}

	flush()
	return entries
}
