package admin

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/filehub/internal/admin"
)

const totalsQuery = `
SELECT
	(SELECT COUNT(*) FROM users) AS total_users,
	(SELECT COUNT(*) FROM files) AS total_files,
	(SELECT COALESCE(SUM(file_size), 0) FROM files) AS total_size`

const uploadsSinceQuery = `
SELECT upload_date, file_size
FROM files
WHERE upload_date >= ?
ORDER BY upload_date ASC`

// StatsRepository reads dashboard aggregates with plain SQL.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Totals(ctx context.Context) (*admin.Totals, error) {
	var t admin.Totals
	if err := r.db.GetContext(ctx, &t, totalsQuery); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *StatsRepository) UploadsSince(ctx context.Context, since time.Time) ([]admin.Upload, error) {
	var rows []admin.Upload
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(uploadsSinceQuery), since); err != nil {
		return nil, err
	}
	return rows, nil
}
