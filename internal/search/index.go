// Package search wraps the on-disk inverted index over the searchable
// projection of events.
//
// Consistency model
//   - The primary store is authoritative; this index only yields candidate
//     event ids that queries join back to Postgres.
//   - A single logical writer: every add/delete sequence is staged into one
//     batch under the writer mutex, and the batch apply is the atomic
//     publication point. Readers never observe a partial batch, and a caller
//     that applied a batch observes its own writes immediately.
//   - Dangling index entries (event deleted from primary, crash before the
//     index delete) are benign: the join to primary filters them out and the
//     next reaper cycle's delete is idempotent.
package search

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"
)

// ErrBadQuery marks unparseable user query strings (HTTP 400 territory).
var ErrBadQuery = errors.New("bad search query")

// Document is the searchable projection of one event. The document id is the
// decimal event id, which doubles as the delete-by-id term.
type Document struct {
	AppID     string
	EventID   int64
	TSEpochMs int64
	Host      string
	Source    string
	Message   string
}

// Index is the process-wide handle to the bleve index.
type Index struct {
	log *zap.Logger
	idx bleve.Index

	mu sync.Mutex // serializes writers; see package comment
}

// Open opens the index directory, creating a fresh index with the canonical
// schema when none exists yet.
func Open(log *zap.Logger, dir string) (*Index, error) {
	log = log.Named("search")

	idx, err := bleve.Open(dir)
	if err != nil {
		if !errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			return nil, fmt.Errorf("open index: %w", err)
		}
		log.Info("no index found, creating", zap.String("dir", dir))
		idx, err = bleve.New(dir, buildMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	}

	return &Index{log: log, idx: idx}, nil
}

// buildMapping defines the exact indexed schema:
//
//	app_id       keyword (term-matchable), stored
//	event_id     numeric, stored (retrieval happens via the document id)
//	ts_epoch_ms  numeric, stored, not indexed
//	host         text, tokenized, stored
//	source       text, tokenized, stored
//	message      text, tokenized, stored
//
// Only host, source and message contribute to the composite field bare query
// terms match against, which realizes the default-fields contract.
func buildMapping() mapping.IndexMapping {
	appID := bleve.NewTextFieldMapping()
	appID.Analyzer = keyword.Name
	appID.Store = true
	appID.IncludeInAll = false

	eventID := bleve.NewNumericFieldMapping()
	eventID.Store = true
	eventID.IncludeInAll = false

	ts := bleve.NewNumericFieldMapping()
	ts.Store = true
	ts.Index = false
	ts.IncludeInAll = false

	text := func() *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Store = true
		return fm
	}

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("app_id", appID)
	doc.AddFieldMappingsAt("event_id", eventID)
	doc.AddFieldMappingsAt("ts_epoch_ms", ts)
	doc.AddFieldMappingsAt("host", text())
	doc.AddFieldMappingsAt("source", text())
	doc.AddFieldMappingsAt("message", text())

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// IndexEvents stages the documents in order into one batch and applies it.
func (x *Index) IndexEvents(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	batch := x.idx.NewBatch()
	for _, d := range docs {
		err := batch.Index(strconv.FormatInt(d.EventID, 10), map[string]any{
			"app_id":      d.AppID,
			"event_id":    d.EventID,
			"ts_epoch_ms": d.TSEpochMs,
			"host":        d.Host,
			"source":      d.Source,
			"message":     d.Message,
		})
		if err != nil {
			return fmt.Errorf("stage document: %w", err)
		}
	}
	if err := x.idx.Batch(batch); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	return nil
}

// DeleteIDs removes the documents for the given event ids in one batch.
// Deleting an id that was never indexed is a no-op.
func (x *Index) DeleteIDs(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	batch := x.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(strconv.FormatInt(id, 10))
	}
	if err := x.idx.Batch(batch); err != nil {
		return fmt.Errorf("apply delete batch: %w", err)
	}
	return nil
}

// SearchIDs parses the user query against the default text fields, scopes it
// to the application, and returns up to topK matching event ids. The ids are
// a candidate set only; callers derive ordering from the primary store.
func (x *Index) SearchIDs(appID, userQuery string, topK int) ([]int64, error) {
	qs := bleve.NewQueryStringQuery(strings.TrimSpace(userQuery))
	parsed, err := qs.Parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}

	appFilter := bleve.NewTermQuery(appID)
	appFilter.SetField("app_id")

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(appFilter, parsed), topK, 0, false)
	res, err := x.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ids := make([]int64, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			x.log.Warn("non-numeric document id in index", zap.String("doc_id", hit.ID))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Close releases the index files.
func (x *Index) Close() error {
	return x.idx.Close()
}
