// Package event holds the canonical log event model and its query types.
package event

import (
	"encoding/json"
	"time"
)

// Event is the canonical stored log record. Events are immutable once
// written; only the TTL reaper removes them.
type Event struct {
	ID         int64           `json:"id"`
	AppID      string          `json:"app_id"`
	TS         time.Time       `json:"ts"`
	Host       string          `json:"host"`
	Source     string          `json:"source"`
	Sourcetype *string         `json:"sourcetype"`
	Severity   *int            `json:"severity"`
	Message    string          `json:"message"`
	Fields     json.RawMessage `json:"fields"`
}

// IngestEvent is a single inbound log event. A zero TS means "now"; the
// ingest pipeline fills it before persisting.
type IngestEvent struct {
	TS         time.Time       `json:"ts"`
	Host       string          `json:"host"`
	Source     string          `json:"source"`
	Sourcetype *string         `json:"sourcetype"`
	Severity   *int            `json:"severity"`
	Message    string          `json:"message"`
	Fields     json.RawMessage `json:"fields"`
}

// Filter is the conjunctive predicate the primary store understands.
// AppID is mandatory on every event read; everything else narrows the scan.
type Filter struct {
	AppID      string
	Sources    []string
	Hosts      []string
	Severities []int
	StartTS    *time.Time
	EndTS      *time.Time
	IDs        []int64 // candidate set from the search index, if any
}

// SearchRequest is the /api/search payload.
type SearchRequest struct {
	AppID      string     `json:"app_id"`
	Q          string     `json:"q"`
	Sources    []string   `json:"sources"`
	Hosts      []string   `json:"hosts"`
	Severities []int      `json:"severities"`
	StartTS    *time.Time `json:"start_ts"`
	EndTS      *time.Time `json:"end_ts"`
	Limit      int        `json:"limit"`
}

// SearchResponse pairs the authoritative total with one page of items,
// ordered by ts descending.
type SearchResponse struct {
	Total int64    `json:"total"`
	Items []*Event `json:"items"`
}
