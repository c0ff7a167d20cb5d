package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/edirooss/loglite-server/internal/domain/event"
	"github.com/edirooss/loglite-server/internal/domain/source"
	"github.com/edirooss/loglite-server/internal/logfmt"
	"github.com/edirooss/loglite-server/internal/metrics"
	"go.uber.org/zap"
)

// maxLineBytes bounds a single tailed line.
const maxLineBytes = 1 << 20

// Tailer turns byte offsets in watched files into idempotent ingests.
//
// Each tick reloads the enabled tail sources, so adding or disabling a
// source needs no restart. Offsets advance monotonically except for the
// reset-on-truncation transition (stored offset past the current file size).
// A crash after ingest but before the offset write re-ingests the last batch
// with fresh ids on the next tick; that duplication is the accepted design
// point.
type Tailer struct {
	log      *zap.Logger
	sources  TailSourceStore
	offsets  OffsetStore
	ingest   *IngestService
	interval time.Duration
}

// NewTailer wires the file-tail loop.
func NewTailer(log *zap.Logger, sources TailSourceStore, offsets OffsetStore, ingest *IngestService, interval time.Duration) *Tailer {
	return &Tailer{
		log:      log.Named("tailer"),
		sources:  sources,
		offsets:  offsets,
		ingest:   ingest,
		interval: interval,
	}
}

// Run ticks until the context is canceled. Per-source and per-file failures
// are logged and skipped; a tick never aborts the loop.
func (t *Tailer) Run(ctx context.Context) {
	t.log.Info("tailer started", zap.Duration("interval", t.interval))

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.Tick(ctx); err != nil {
				t.log.Error("tail tick failed", zap.Error(err))
			}
		}
	}
}

// Tick reloads the source list and tails every candidate file once.
func (t *Tailer) Tick(ctx context.Context) error {
	sources, err := t.sources.EnabledTail(ctx)
	if err != nil {
		return fmt.Errorf("load tail sources: %w", err)
	}

	for _, src := range sources {
		if err := t.tailSource(ctx, src); err != nil {
			t.log.Error("tail source failed",
				zap.Int64("source_id", src.ID),
				zap.String("path", src.Path),
				zap.Error(err))
		}
	}
	return nil
}

func (t *Tailer) tailSource(ctx context.Context, src *source.Source) error {
	files, err := collectFiles(src)
	if err != nil {
		return fmt.Errorf("collect files: %w", err)
	}

	for _, path := range files {
		if err := t.tailFile(ctx, src, path); err != nil {
			t.log.Error("tail file failed", zap.String("file", path), zap.Error(err))
		}
	}
	return nil
}

// collectFiles resolves the source path into the candidate file list. A file
// path is itself the only candidate; a directory is walked (recursively or
// depth-1) with include/exclude globs applied to regular files.
func collectFiles(src *source.Source) ([]string, error) {
	info, err := os.Stat(src.Path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{src.Path}, nil
	}

	keep := func(path string) bool {
		if src.IncludeGlob != nil && !globMatch(*src.IncludeGlob, path) {
			return false
		}
		if src.ExcludeGlob != nil && globMatch(*src.ExcludeGlob, path) {
			return false
		}
		return true
	}

	var files []string
	if src.Recursive {
		err = filepath.WalkDir(src.Path, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entry, skip
			}
			if d.Type().IsRegular() && keep(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return files, nil
	}

	entries, err := os.ReadDir(src.Path)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		path := filepath.Join(src.Path, e.Name())
		if e.Type().IsRegular() && keep(path) {
			files = append(files, path)
		}
	}
	return files, nil
}

// globMatch tests the pattern against the full slash path and, as a
// convenience for bare patterns like "*.log", against the base name.
func globMatch(pattern, path string) bool {
	if ok, err := doublestar.Match(pattern, filepath.ToSlash(path)); err == nil && ok {
		return true
	}
	ok, err := doublestar.Match(pattern, filepath.Base(path))
	return err == nil && ok
}

func (t *Tailer) tailFile(ctx context.Context, src *source.Source, path string) error {
	offset, _, err := t.offsets.Get(ctx, src.ID, path)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if offset > info.Size() {
		// Truncated since the last read; start over.
		t.log.Warn("offset beyond file size, resetting",
			zap.String("file", path),
			zap.Int64("offset", offset),
			zap.Int64("size", info.Size()))
		offset = 0
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	var lines []string
	newOffset := offset

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := sc.Text()
		newOffset += int64(len(line)) + 1 // +1 for newline
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		// Keep what was read cleanly; the rest is retried next tick.
		t.log.Error("read error while tailing", zap.String("file", path), zap.Error(err))
	}

	if len(lines) == 0 {
		return nil
	}
	metrics.TailLinesRead.Add(float64(len(lines)))

	format := logfmt.Detect(lines)

	var entries []logfmt.Entry
	if format == logfmt.Unknown {
		// Plain text: one entry per line.
		now := time.Now().UTC()
		entries = make([]logfmt.Entry, 0, len(lines))
		for _, line := range lines {
			entries = append(entries, logfmt.Entry{
				Timestamp: now,
				Level:     "INFO",
				Message:   line,
				Fields:    map[string]any{},
			})
		}
	} else {
		entries = logfmt.Merge(lines, format)
	}

	events := entriesToEvents(entries, filepath.Base(path), format)
	if len(events) > 0 {
		if _, err := t.ingest.Ingest(ctx, src.AppID, events); err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
	}

	return t.offsets.Upsert(ctx, src.ID, path, newOffset)
}

// entriesToEvents converts parsed entries into ingest events: the file name
// becomes the source, the detected format the sourcetype, and the level maps
// to syslog severity.
func entriesToEvents(entries []logfmt.Entry, fileName string, format logfmt.Format) []event.IngestEvent {
	sourcetype := format.String()

	events := make([]event.IngestEvent, 0, len(entries))
	for _, entry := range entries {
		var severity *int
		if sev, ok := logfmt.LevelToSeverity(entry.Level); ok {
			severity = &sev
		}

		fields := json.RawMessage("{}")
		if len(entry.Fields) > 0 {
			if raw, err := json.Marshal(entry.Fields); err == nil {
				fields = raw
			}
		}

		events = append(events, event.IngestEvent{
			TS:         entry.Timestamp,
			Source:     fileName,
			Sourcetype: &sourcetype,
			Severity:   severity,
			Message:    entry.Message,
			Fields:     fields,
		})
	}
	return events
}
