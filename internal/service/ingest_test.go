package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/edirooss/loglite-server/internal/domain/event"
	"github.com/edirooss/loglite-server/internal/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIngestAssignsIDsAndDefaults(t *testing.T) {
	store := &fakeEventStore{}
	idx := testIndex(t)
	svc := NewIngestService(zap.NewNop(), store, idx, idgen.New(1))

	before := time.Now().UTC()
	n, err := svc.Ingest(context.Background(), "web-1", []event.IngestEvent{
		{Message: "no timestamp, no fields"},
		{TS: time.Date(2024, 2, 9, 12, 0, 0, 0, time.UTC), Message: "explicit timestamp", Fields: json.RawMessage(`{"k":"v"}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, store.events, 2)

	first := store.events[0]
	assert.Positive(t, first.ID)
	assert.Equal(t, "web-1", first.AppID)
	assert.False(t, first.TS.Before(before))
	assert.Equal(t, json.RawMessage("{}"), first.Fields)

	second := store.events[1]
	assert.Equal(t, time.Date(2024, 2, 9, 12, 0, 0, 0, time.UTC), second.TS)
	assert.Equal(t, json.RawMessage(`{"k":"v"}`), second.Fields)
	assert.Greater(t, second.ID, first.ID)
}

func TestIngestPublishesToIndex(t *testing.T) {
	store := &fakeEventStore{}
	idx := testIndex(t)
	svc := NewIngestService(zap.NewNop(), store, idx, idgen.New(1))

	_, err := svc.Ingest(context.Background(), "web-1", []event.IngestEvent{
		{Message: "checkout failed with timeout"},
	})
	require.NoError(t, err)

	// A successful ingest is immediately searchable.
	ids, err := idx.SearchIDs("web-1", "checkout", 10)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, store.events[0].ID, ids[0])
}

func TestIngestEmptyBatch(t *testing.T) {
	store := &fakeEventStore{}
	svc := NewIngestService(zap.NewNop(), store, testIndex(t), idgen.New(1))

	n, err := svc.Ingest(context.Background(), "web-1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.events)
}

func TestIngestStoreError(t *testing.T) {
	store := &fakeEventStore{insertErr: errors.New("disk on fire")}
	svc := NewIngestService(zap.NewNop(), store, testIndex(t), idgen.New(1))

	_, err := svc.Ingest(context.Background(), "web-1", []event.IngestEvent{{Message: "x"}})
	require.Error(t, err)
	assert.ErrorContains(t, err, "insert event")
}
