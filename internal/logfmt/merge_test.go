package logfmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeJavaStacktrace(t *testing.T) {
	lines := []string{
		"2024-02-09 22:30:15.123 ERROR [main] com.example.App - boom",
		"    at com.example.App.run(App.java:10)",
		"    at com.example.Main.main(Main.java:5)",
		"    ... 3 more",
		"2024-02-09 22:30:16.000 INFO [main] com.example.App - recovered",
	}

	entries := Merge(lines, Java)
	require.Len(t, entries, 2)

	boom := entries[0]
	assert.Equal(t, "ERROR", boom.Level)
	assert.Equal(t, "boom", boom.Message)
	wantTrace := strings.Join(lines[1:4], "\n")
	assert.Equal(t, wantTrace, boom.Stacktrace)
	assert.Equal(t, wantTrace, boom.Fields["stacktrace"])

	assert.Equal(t, "recovered", entries[1].Message)
	assert.Empty(t, entries[1].Stacktrace)
}

func TestMergeCausedByContinuation(t *testing.T) {
	lines := []string{
		"2024-02-09 22:30:15.123 ERROR [main] com.example.App - boom",
		"Caused by: java.io.IOException: broken pipe",
		"    at com.example.Net.send(Net.java:33)",
	}

	entries := Merge(lines, Java)
	require.Len(t, entries, 1)
	// An unindented "Caused by:" is not a continuation; it folds into the message.
	assert.Equal(t, "boom\nCaused by: java.io.IOException: broken pipe", entries[0].Message)
	assert.Equal(t, "    at com.example.Net.send(Net.java:33)", entries[0].Stacktrace)
}

func TestMergeUnparsableAppendsToPrevious(t *testing.T) {
	lines := []string{
		"[2024-02-09T14:30:15Z INFO my_app] starting",
		"free-form detail line",
	}

	entries := Merge(lines, Rust)
	require.Len(t, entries, 1)
	assert.Equal(t, "starting\nfree-form detail line", entries[0].Message)
}

func TestMergeSynthesizesLeadingText(t *testing.T) {
	entries := Merge([]string{"banner text", "more banner"}, Rust)
	require.Len(t, entries, 1)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "banner text\nmore banner", entries[0].Message)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestMergeSkipsBlankLines(t *testing.T) {
	lines := []string{
		"[2024-02-09T14:30:15Z INFO my_app] one",
		"",
		"   ",
		"[2024-02-09T14:30:16Z INFO my_app] two",
	}
	entries := Merge(lines, Rust)
	require.Len(t, entries, 2)
	assert.Equal(t, "one", entries[0].Message)
	assert.Equal(t, "two", entries[1].Message)
}
