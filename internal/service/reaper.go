package service

import (
	"context"
	"fmt"
	"time"

	"github.com/edirooss/loglite-server/internal/metrics"
	"github.com/edirooss/loglite-server/internal/search"
	"go.uber.org/zap"
)

// reapBatchSize caps how many expired events one tick removes.
const reapBatchSize = 10_000

// Reaper evicts events older than the retention window from both stores.
//
// Primary is deleted before the index: a crash between the two leaves stale
// index entries only, which queries never surface (they join to primary) and
// the next cycle's idempotent delete cleans up.
type Reaper struct {
	log       *zap.Logger
	events    EventStore
	index     *search.Index
	retention time.Duration
	interval  time.Duration
}

// NewReaper builds the TTL loop. retentionDays <= 0 disables reaping.
func NewReaper(log *zap.Logger, events EventStore, index *search.Index, retentionDays int, interval time.Duration) *Reaper {
	return &Reaper{
		log:       log.Named("reaper"),
		events:    events,
		index:     index,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
	}
}

// Run ticks until the context is canceled. Tick errors are logged and the
// loop continues; nothing here is fatal to the process.
func (r *Reaper) Run(ctx context.Context) {
	if r.retention <= 0 {
		r.log.Info("retention disabled, reaper idle")
		return
	}
	r.log.Info("reaper started",
		zap.Duration("retention", r.retention),
		zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Tick(ctx); err != nil {
				r.log.Error("reap tick failed", zap.Error(err))
			}
		}
	}
}

// Tick removes one batch of expired events: select ids past the cutoff,
// delete from primary, then delete from the index.
func (r *Reaper) Tick(ctx context.Context) error {
	cutoff := time.Now().Add(-r.retention)

	ids, err := r.events.IDsOlderThan(ctx, cutoff, reapBatchSize)
	if err != nil {
		return fmt.Errorf("select expired: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	deleted, err := r.events.DeleteByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("delete primary: %w", err)
	}
	if err := r.index.DeleteIDs(ids); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}

	metrics.EventsReaped.Add(float64(deleted))
	r.log.Info("reaped expired events",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff))
	return nil
}
