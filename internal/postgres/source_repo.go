package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/edirooss/loglite-server/internal/domain/source"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const sourceColumns = "id, app_id, kind, path, recursive, encoding, include_glob, exclude_glob, enabled, created_at"

// SourceRepository persists per-application ingestion sources.
type SourceRepository struct {
	log  *zap.Logger
	pool *pgxpool.Pool
}

func newSourceRepository(log *zap.Logger, pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{log: log.Named("source_repo"), pool: pool}
}

// Create inserts a source and returns it with its assigned id.
func (r *SourceRepository) Create(ctx context.Context, s *source.Source) (*source.Source, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO app_sources (app_id, kind, path, recursive, encoding, include_glob, exclude_glob, enabled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+sourceColumns,
		s.AppID, s.Kind, s.Path, s.Recursive, s.Encoding, s.IncludeGlob, s.ExcludeGlob, s.Enabled, s.CreatedAt,
	)
	out, err := scanSource(row)
	if err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return out, nil
}

// List returns sources, optionally scoped to one application, newest first.
func (r *SourceRepository) List(ctx context.Context, appID string) ([]*source.Source, error) {
	query := "SELECT " + sourceColumns + " FROM app_sources"
	var args []any
	if appID != "" {
		query += " WHERE app_id = $1"
		args = append(args, appID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()
	return collectSources(rows)
}

// Get fetches one source by id. Returns source.ErrNotFound if absent.
func (r *SourceRepository) Get(ctx context.Context, id int64) (*source.Source, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+sourceColumns+" FROM app_sources WHERE id = $1", id)
	out, err := scanSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, source.ErrNotFound
		}
		return nil, fmt.Errorf("get source: %w", err)
	}
	return out, nil
}

// Update applies the non-nil fields of req to the source and returns the
// updated row.
func (r *SourceRepository) Update(ctx context.Context, id int64, req *source.UpdateRequest) (*source.Source, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Path != nil {
		s.Path = *req.Path
	}
	if req.Recursive != nil {
		s.Recursive = *req.Recursive
	}
	if req.Encoding != nil {
		s.Encoding = *req.Encoding
	}
	if req.IncludeGlob != nil {
		s.IncludeGlob = req.IncludeGlob
	}
	if req.ExcludeGlob != nil {
		s.ExcludeGlob = req.ExcludeGlob
	}
	if req.Enabled != nil {
		s.Enabled = *req.Enabled
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE app_sources
		SET path = $2, recursive = $3, encoding = $4, include_glob = $5, exclude_glob = $6, enabled = $7
		WHERE id = $1`,
		id, s.Path, s.Recursive, s.Encoding, s.IncludeGlob, s.ExcludeGlob, s.Enabled,
	)
	if err != nil {
		return nil, fmt.Errorf("update source: %w", err)
	}
	return s, nil
}

// Delete removes a source by id. Returns source.ErrNotFound if absent.
func (r *SourceRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM app_sources WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return source.ErrNotFound
	}
	return nil
}

// EnabledTail returns every enabled source of kind "tail". The tailer calls
// this each tick so config changes apply without a restart.
func (r *SourceRepository) EnabledTail(ctx context.Context) ([]*source.Source, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+sourceColumns+" FROM app_sources WHERE enabled = TRUE AND kind = $1", source.KindTail)
	if err != nil {
		return nil, fmt.Errorf("list tail sources: %w", err)
	}
	defer rows.Close()
	return collectSources(rows)
}

func scanSource(row pgx.Row) (*source.Source, error) {
	var s source.Source
	err := row.Scan(&s.ID, &s.AppID, &s.Kind, &s.Path, &s.Recursive, &s.Encoding,
		&s.IncludeGlob, &s.ExcludeGlob, &s.Enabled, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSources(rows pgx.Rows) ([]*source.Source, error) {
	defer rows.Close()
	sources := make([]*source.Source, 0)
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}
