package repository

import (
	"context"
	"fmt"

	"github.com/langchou/parkconsole/internal/models"
)

// CycleFailureRepository 轮询失败记录仓库
type CycleFailureRepository struct {
	db *DB
}

// NewCycleFailureRepository 创建失败记录仓库
func NewCycleFailureRepository(db *DB) *CycleFailureRepository {
	return &CycleFailureRepository{db: db}
}

// Create 写入一条失败记录
func (r *CycleFailureRepository) Create(ctx context.Context, f *models.CycleFailure) error {
	query := `
		INSERT INTO cycle_failures (id, generation, kind, endpoint, status_code, message, occurred_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.Pool.Exec(ctx, query,
		f.ID,
		int64(f.Generation),
		f.Kind,
		f.Endpoint,
		f.StatusCode,
		f.Message,
		f.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert cycle failure: %w", err)
	}
	return nil
}

// ListRecent 最近的失败记录，按时间倒序
func (r *CycleFailureRepository) ListRecent(ctx context.Context, limit int) ([]*models.CycleFailure, error) {
	query := `
		SELECT id::text, generation, kind, COALESCE(endpoint, ''), COALESCE(status_code, 0), message, occurred_at
		FROM cycle_failures
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycle failures: %w", err)
	}
	defer rows.Close()

	var failures []*models.CycleFailure
	for rows.Next() {
		f := &models.CycleFailure{}
		var generation int64
		if err := rows.Scan(
			&f.ID,
			&generation,
			&f.Kind,
			&f.Endpoint,
			&f.StatusCode,
			&f.Message,
			&f.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan cycle failure: %w", err)
		}
		f.Generation = uint64(generation)
		failures = append(failures, f)
	}

	return failures, rows.Err()
}

// Count 失败记录总数
func (r *CycleFailureRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM cycle_failures`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count cycle failures: %w", err)
	}
	return count, nil
}
