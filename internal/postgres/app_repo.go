package postgres

import (
	"context"
	"fmt"

	"github.com/edirooss/loglite-server/internal/domain/app"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// AppRepository persists the application registry.
type AppRepository struct {
	log  *zap.Logger
	pool *pgxpool.Pool
}

func newAppRepository(log *zap.Logger, pool *pgxpool.Pool) *AppRepository {
	return &AppRepository{log: log.Named("app_repo"), pool: pool}
}

// Upsert registers an application. app_id derives from the name, so
// re-registering the same name converges on the existing row.
func (r *AppRepository) Upsert(ctx context.Context, a *app.App) (*app.App, error) {
	var out app.App
	err := r.pool.QueryRow(ctx, `
		INSERT INTO apps (app_id, name, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (app_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING app_id, name, created_at`,
		a.AppID, a.Name, a.CreatedAt,
	).Scan(&out.AppID, &out.Name, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert app: %w", err)
	}
	return &out, nil
}

// List returns all registered applications, newest first.
func (r *AppRepository) List(ctx context.Context) ([]*app.App, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT app_id, name, created_at FROM apps ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	defer rows.Close()

	apps := make([]*app.App, 0)
	for rows.Next() {
		var a app.App
		if err := rows.Scan(&a.AppID, &a.Name, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan app: %w", err)
		}
		apps = append(apps, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate apps: %w", err)
	}
	return apps, nil
}
