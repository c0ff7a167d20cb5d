package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/edirooss/loglite-server/internal/domain/event"
	"github.com/edirooss/loglite-server/internal/search"
	"go.uber.org/zap"
)

// defaultLimit applies when the request leaves limit unset.
const defaultLimit = 100

// maxLimit is the hard page cap.
const maxLimit = 1000

// SearchService is the hybrid query planner: the inverted index narrows the
// free-text predicate to a candidate id set, the primary store supplies the
// authoritative rows and the final ts-descending order.
type SearchService struct {
	log    *zap.Logger
	events EventStore
	index  *search.Index
}

// NewSearchService wires the query planner.
func NewSearchService(log *zap.Logger, events EventStore, index *search.Index) *SearchService {
	return &SearchService{
		log:    log.Named("search"),
		events: events,
		index:  index,
	}
}

// Search executes one query. App scoping is mandatory and enforced in both
// stores. Errors satisfying errors.Is(err, search.ErrBadQuery) are caller
// faults; everything else is internal.
func (s *SearchService) Search(ctx context.Context, req *event.SearchRequest) (*event.SearchResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	filter := event.Filter{
		AppID:      req.AppID,
		Sources:    req.Sources,
		Hosts:      req.Hosts,
		Severities: req.Severities,
		StartTS:    req.StartTS,
		EndTS:      req.EndTS,
	}

	if q := strings.TrimSpace(req.Q); q != "" {
		ids, err := s.index.SearchIDs(req.AppID, q, limit)
		if err != nil {
			return nil, fmt.Errorf("candidate search: %w", err)
		}
		if len(ids) == 0 {
			// Nothing in the index can match; skip the primary scan.
			return &event.SearchResponse{Total: 0, Items: []*event.Event{}}, nil
		}
		filter.IDs = ids
	}

	total, err := s.events.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}
	items, err := s.events.Page(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("page: %w", err)
	}

	return &event.SearchResponse{Total: total, Items: items}, nil
}
