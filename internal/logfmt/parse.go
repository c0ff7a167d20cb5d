package logfmt

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"
)

var (
	// Java log pattern: "2024-02-09 22:30:15.123 ERROR [main] com.example.App - Message"
	javaLogRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}[.,]\d{3})\s+(ERROR|WARN|INFO|DEBUG|TRACE)\s+\[([^\]]+)\]\s+(\S+)\s+-\s+(.+)$`)

	// Rust env_logger: "[2024-02-09T14:30:15Z ERROR my_app] Message"
	rustLogRe = regexp.MustCompile(`^\[(\S+)\s+(ERROR|WARN|INFO|DEBUG|TRACE)\s+([^\]]+)\]\s+(.+)$`)

	// Go standard log: "2024/02/09 22:30:15 [ERROR] main.go:42: Message"
	// Level and caller are both optional; the detection threshold compensates
	// for the permissiveness.
	goLogRe = regexp.MustCompile(`^(\d{4}/\d{2}/\d{2}\s+\d{2}:\d{2}:\d{2})\s+\[?(ERROR|WARN|INFO|DEBUG|TRACE)?\]?\s*([^:]+)?:?\s*(.+)$`)

	// Nginx access log: IP address at start.
	nginxLogRe = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

	// Java exception stack trace continuations.
	javaStacktraceRe = regexp.MustCompile(`^\s+(at |Caused by:|\.\.\. \d+ more)`)
)

// Detect scores the first up to 10 non-empty lines against each format's
// anchor pattern and declares a format once it clears ceil(0.6 * sampled).
// Ties resolve Java, Rust, Go, Nginx.
func Detect(lines []string) Format {
	var sample []string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		sample = append(sample, strings.TrimSpace(l))
		if len(sample) == 10 {
			break
		}
	}
	if len(sample) == 0 {
		return Unknown
	}

	var javaScore, rustScore, goScore, nginxScore int
	for _, line := range sample {
		if javaLogRe.MatchString(line) {
			javaScore++
		}
		if rustLogRe.MatchString(line) {
			rustScore++
		}
		if goLogRe.MatchString(line) {
			goScore++
		}
		if nginxLogRe.MatchString(line) {
			nginxScore++
		}
	}

	threshold := int(math.Ceil(0.6 * float64(len(sample))))
	switch {
	case javaScore >= threshold:
		return Java
	case rustScore >= threshold:
		return Rust
	case goScore >= threshold:
		return Go
	case nginxScore >= threshold:
		return Nginx
	default:
		return Unknown
	}
}

// timestamp layouts, attempted in order. First success wins.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05.000",
	"2006/01/02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	// Log4j writes the millisecond separator as a comma.
	normalized := strings.Replace(s, ",", ".", 1)
	for _, layout := range timestampLayouts[1:] {
		if t, err := time.ParseInLocation(layout, normalized, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseJavaLine parses a single Java (logback/log4j) application log line.
func ParseJavaLine(line string) (*Entry, bool) {
	caps := javaLogRe.FindStringSubmatch(line)
	if caps == nil {
		return nil, false
	}
	ts, ok := parseTimestamp(caps[1])
	if !ok {
		return nil, false
	}
	return &Entry{
		Timestamp: ts,
		Level:     caps[2],
		Message:   caps[5],
		Fields: map[string]any{
			"thread": caps[3],
			"logger": caps[4],
		},
	}, true
}

// ParseRustLine parses a single Rust env_logger line.
func ParseRustLine(line string) (*Entry, bool) {
	caps := rustLogRe.FindStringSubmatch(line)
	if caps == nil {
		return nil, false
	}
	ts, ok := parseTimestamp(caps[1])
	if !ok {
		return nil, false
	}
	return &Entry{
		Timestamp: ts,
		Level:     caps[2],
		Message:   caps[4],
		Fields: map[string]any{
			"module": caps[3],
		},
	}, true
}

// ParseGoLine parses a single Go log line: structured JSON output (zap,
// logrus) first, then the standard library's plain format.
func ParseGoLine(line string) (*Entry, bool) {
	if strings.HasPrefix(strings.TrimSpace(line), "{") {
		if e, ok := parseGoJSONLine(line); ok {
			return e, true
		}
	}

	caps := goLogRe.FindStringSubmatch(line)
	if caps == nil {
		return nil, false
	}
	ts, ok := parseTimestamp(caps[1])
	if !ok {
		return nil, false
	}
	level := caps[2]
	if level == "" {
		level = "INFO"
	}
	fields := map[string]any{}
	if caller := strings.TrimSpace(caps[3]); caller != "" {
		fields["caller"] = caller
	}
	return &Entry{
		Timestamp: ts,
		Level:     level,
		Message:   caps[4],
		Fields:    fields,
	}, true
}

func parseGoJSONLine(line string) (*Entry, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return nil, false
	}

	level := "INFO"
	if v, ok := firstString(obj, "level", "Level"); ok {
		level = strings.ToUpper(v)
	}
	message, _ := firstString(obj, "msg", "message", "Message")

	var ts time.Time
	var ok bool
	for _, key := range []string{"ts", "time", "timestamp"} {
		v, present := obj[key]
		if !present {
			continue
		}
		switch tv := v.(type) {
		case string:
			ts, ok = parseTimestamp(tv)
		case float64:
			secs := int64(tv)
			nsecs := int64((tv - float64(secs)) * 1e9)
			ts, ok = time.Unix(secs, nsecs).UTC(), true
		}
		break
	}
	if !ok {
		return nil, false
	}

	return &Entry{
		Timestamp: ts,
		Level:     level,
		Message:   message,
		Fields:    obj,
	}, true
}

func firstString(obj map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := obj[k].(string); ok {
			return v, true
		}
	}
	return "", false
}

// ParseNginxAccessLine extracts the message and structured fields from a
// single nginx access log line.
func ParseNginxAccessLine(line string) (message string, fields map[string]any, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, false
	}
	remoteAddr, _, _ := strings.Cut(line, " ")
	return line, map[string]any{"remote_addr": remoteAddr}, true
}
