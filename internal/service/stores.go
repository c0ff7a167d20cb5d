package service

import (
	"context"
	"time"

	"github.com/edirooss/loglite-server/internal/domain/event"
	"github.com/edirooss/loglite-server/internal/domain/source"
)

// EventStore is the slice of the primary store the engine writes and reads.
// Implemented by postgres.EventRepository.
type EventStore interface {
	Insert(ctx context.Context, e *event.Event) error
	Count(ctx context.Context, f event.Filter) (int64, error)
	Page(ctx context.Context, f event.Filter, limit int) ([]*event.Event, error)
	IDsOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

// TailSourceStore yields the tail sources active for the current tick.
// Implemented by postgres.SourceRepository.
type TailSourceStore interface {
	EnabledTail(ctx context.Context) ([]*source.Source, error)
}

// OffsetStore persists per-file read positions.
// Implemented by postgres.TailOffsetRepository.
type OffsetStore interface {
	Get(ctx context.Context, sourceID int64, filePath string) (offset int64, found bool, err error)
	Upsert(ctx context.Context, sourceID int64, filePath string, offset int64) error
}
