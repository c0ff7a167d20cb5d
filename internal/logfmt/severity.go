package logfmt

import "strings"

// LevelToSeverity maps a log level label to its syslog severity. The second
// return is false for labels outside the documented set.
func LevelToSeverity(level string) (int, bool) {
	switch strings.ToUpper(level) {
	case "FATAL", "ERROR":
		return 3, true
	case "WARN", "WARNING":
		return 4, true
	case "INFO":
		return 6, true
	case "DEBUG", "TRACE":
		return 7, true
	default:
		return 0, false
	}
}
