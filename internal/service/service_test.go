package service

import (
	"context"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/edirooss/loglite-server/internal/domain/event"
	"github.com/edirooss/loglite-server/internal/domain/source"
	"github.com/edirooss/loglite-server/internal/search"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeEventStore is an in-memory EventStore mirroring the primary store's
// filter and ordering semantics.
type fakeEventStore struct {
	mu     sync.Mutex
	events []*event.Event

	insertErr error
}

func (s *fakeEventStore) Insert(ctx context.Context, e *event.Event) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.events = append(s.events, &cp)
	return nil
}

func (s *fakeEventStore) Count(ctx context.Context, f event.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, e := range s.events {
		if matches(f, e) {
			n++
		}
	}
	return n, nil
}

func (s *fakeEventStore) Page(ctx context.Context, f event.Filter, limit int) ([]*event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*event.Event
	for _, e := range s.events {
		if matches(f, e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TS.After(out[j].TS) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeEventStore) IDsOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, e := range s.events {
		if e.TS.Before(cutoff) {
			ids = append(ids, e.ID)
			if len(ids) == limit {
				break
			}
		}
	}
	return ids, nil
}

func (s *fakeEventStore) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*event.Event
	var deleted int64
	for _, e := range s.events {
		if slices.Contains(ids, e.ID) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return deleted, nil
}

func matches(f event.Filter, e *event.Event) bool {
	if e.AppID != f.AppID {
		return false
	}
	if len(f.Sources) > 0 && !slices.Contains(f.Sources, e.Source) {
		return false
	}
	if len(f.Hosts) > 0 && !slices.Contains(f.Hosts, e.Host) {
		return false
	}
	if len(f.Severities) > 0 && (e.Severity == nil || !slices.Contains(f.Severities, *e.Severity)) {
		return false
	}
	if f.StartTS != nil && e.TS.Before(*f.StartTS) {
		return false
	}
	if f.EndTS != nil && e.TS.After(*f.EndTS) {
		return false
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, e.ID) {
		return false
	}
	return true
}

type fakeSourceStore struct {
	sources []*source.Source
}

func (s *fakeSourceStore) EnabledTail(ctx context.Context) ([]*source.Source, error) {
	return s.sources, nil
}

type fakeOffsetStore struct {
	mu      sync.Mutex
	offsets map[string]int64
}

func newFakeOffsetStore() *fakeOffsetStore {
	return &fakeOffsetStore{offsets: map[string]int64{}}
}

func offsetKey(sourceID int64, filePath string) string {
	return strconv.FormatInt(sourceID, 10) + "#" + filePath
}

func (s *fakeOffsetStore) Get(ctx context.Context, sourceID int64, filePath string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	off, ok := s.offsets[offsetKey(sourceID, filePath)]
	return off, ok, nil
}

func (s *fakeOffsetStore) Upsert(ctx context.Context, sourceID int64, filePath string, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets[offsetKey(sourceID, filePath)] = offset
	return nil
}

func testIndex(t *testing.T) *search.Index {
	t.Helper()
	idx, err := search.Open(zap.NewNop(), filepath.Join(t.TempDir(), "idx"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}
