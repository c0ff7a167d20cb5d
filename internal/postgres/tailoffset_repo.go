package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TailOffsetRepository persists how far each watched file has been read.
// Rows are keyed by the unique (source_id, file_path) pair.
type TailOffsetRepository struct {
	log  *zap.Logger
	pool *pgxpool.Pool
}

func newTailOffsetRepository(log *zap.Logger, pool *pgxpool.Pool) *TailOffsetRepository {
	return &TailOffsetRepository{log: log.Named("tail_offset_repo"), pool: pool}
}

// Get returns the stored byte offset for the pair, with found=false when the
// file has never been read.
func (r *TailOffsetRepository) Get(ctx context.Context, sourceID int64, filePath string) (offset int64, found bool, err error) {
	err = r.pool.QueryRow(ctx,
		"SELECT offset_bytes FROM tail_offsets WHERE source_id = $1 AND file_path = $2",
		sourceID, filePath,
	).Scan(&offset)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get tail offset: %w", err)
	}
	return offset, true, nil
}

// Upsert creates or replaces the offset for the pair.
func (r *TailOffsetRepository) Upsert(ctx context.Context, sourceID int64, filePath string, offset int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tail_offsets (source_id, file_path, offset_bytes, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_id, file_path)
		DO UPDATE SET offset_bytes = EXCLUDED.offset_bytes, updated_at = EXCLUDED.updated_at`,
		sourceID, filePath, offset, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert tail offset: %w", err)
	}
	return nil
}
