package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edirooss/loglite-server/internal/domain/event"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pageCap bounds any single page regardless of the requested limit.
const pageCap = 1000

const eventColumns = "id, app_id, ts, host, source, sourcetype, severity, message, fields"

// EventRepository provides access to the canonical events table.
type EventRepository struct {
	log  *zap.Logger
	pool *pgxpool.Pool
}

func newEventRepository(log *zap.Logger, pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{log: log.Named("event_repo"), pool: pool}
}

// Insert persists one event row. The id must already be assigned.
func (r *EventRepository) Insert(ctx context.Context, e *event.Event) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.AppID, e.TS, e.Host, e.Source, e.Sourcetype, e.Severity, e.Message, e.Fields,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Count returns the number of events matching the filter.
func (r *EventRepository) Count(ctx context.Context, f event.Filter) (int64, error) {
	where, args := buildWhere(f)

	var total int64
	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM events WHERE "+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return total, nil
}

// Page returns up to limit events matching the filter, newest first.
func (r *EventRepository) Page(ctx context.Context, f event.Filter, limit int) ([]*event.Event, error) {
	if limit <= 0 || limit > pageCap {
		limit = pageCap
	}
	where, args := buildWhere(f)

	query := fmt.Sprintf(
		"SELECT "+eventColumns+" FROM events WHERE %s ORDER BY ts DESC LIMIT %d",
		where, limit,
	)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("page events: %w", err)
	}
	defer rows.Close()

	items := make([]*event.Event, 0, limit)
	for rows.Next() {
		var e event.Event
		if err := rows.Scan(&e.ID, &e.AppID, &e.TS, &e.Host, &e.Source,
			&e.Sourcetype, &e.Severity, &e.Message, &e.Fields); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

// IDsOlderThan returns up to limit ids of events with ts before the cutoff.
func (r *EventRepository) IDsOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id FROM events WHERE ts < $1 LIMIT $2", cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("select expired ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}

// DeleteByIDs removes the given events, returning the number deleted.
func (r *EventRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, "DELETE FROM events WHERE id = ANY($1)", ids)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// buildWhere renders the conjunctive filter as SQL. App scoping is mandatory
// and always the first predicate.
func buildWhere(f event.Filter) (string, []any) {
	args := []any{f.AppID}
	conds := []string{"app_id = $1"}

	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.StartTS != nil {
		add("ts >= $%d", *f.StartTS)
	}
	if f.EndTS != nil {
		add("ts <= $%d", *f.EndTS)
	}
	if len(f.Sources) > 0 {
		add("source = ANY($%d)", f.Sources)
	}
	if len(f.Hosts) > 0 {
		add("host = ANY($%d)", f.Hosts)
	}
	if len(f.Severities) > 0 {
		add("severity = ANY($%d)", f.Severities)
	}
	if len(f.IDs) > 0 {
		add("id = ANY($%d)", f.IDs)
	}

	return strings.Join(conds, " AND "), args
}
