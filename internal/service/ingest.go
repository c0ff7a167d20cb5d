// Package service hosts the ingest/search engine and its background loops.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edirooss/loglite-server/internal/domain/event"
	"github.com/edirooss/loglite-server/internal/idgen"
	"github.com/edirooss/loglite-server/internal/metrics"
	"github.com/edirooss/loglite-server/internal/search"
	"go.uber.org/zap"
)

// IngestService writes a batch of events through the dual-store pipeline.
//
// Contract
//   - Each event gets a fresh snowflake id and lands in Postgres first.
//   - The searchable projection of the whole batch is then published to the
//     index as one atomic batch, so a successful return implies
//     read-your-writes for the caller.
//   - Partial failure keeps the inserted prefix: a Postgres error aborts the
//     batch without rolling back earlier rows, and retries obtain fresh ids.
//     A row inserted but not yet indexed is published by the next successful
//     batch or reaped on expiry; it never corrupts either store.
type IngestService struct {
	log    *zap.Logger
	events EventStore
	index  *search.Index
	ids    *idgen.Snowflake
}

// NewIngestService wires the ingest pipeline.
func NewIngestService(log *zap.Logger, events EventStore, index *search.Index, ids *idgen.Snowflake) *IngestService {
	return &IngestService{
		log:    log.Named("ingest"),
		events: events,
		index:  index,
		ids:    ids,
	}
}

// Ingest persists the events for one application, in input order, and
// returns the number accepted. An empty batch touches neither store.
func (s *IngestService) Ingest(ctx context.Context, appID string, events []event.IngestEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	docs := make([]search.Document, 0, len(events))
	for i := range events {
		e := &events[i]

		ts := e.TS
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		fields := e.Fields
		if len(fields) == 0 {
			fields = json.RawMessage("{}")
		}

		row := &event.Event{
			ID:         s.ids.NextID(),
			AppID:      appID,
			TS:         ts,
			Host:       e.Host,
			Source:     e.Source,
			Sourcetype: e.Sourcetype,
			Severity:   e.Severity,
			Message:    e.Message,
			Fields:     fields,
		}
		if err := s.events.Insert(ctx, row); err != nil {
			return 0, fmt.Errorf("insert event: %w", err)
		}

		docs = append(docs, search.Document{
			AppID:     row.AppID,
			EventID:   row.ID,
			TSEpochMs: row.TS.UnixMilli(),
			Host:      row.Host,
			Source:    row.Source,
			Message:   row.Message,
		})
	}

	if err := s.index.IndexEvents(docs); err != nil {
		return 0, fmt.Errorf("index events: %w", err)
	}

	metrics.EventsIngested.Add(float64(len(events)))
	return len(events), nil
}
