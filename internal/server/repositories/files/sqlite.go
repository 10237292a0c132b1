package files

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/threatscope/internal/dbx"
	"github.com/dmitrijs2005/threatscope/internal/server/models"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/sqliterr"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, file *models.FileRecord) error {
	query := ` INSERT INTO files (id, user_id, filename, risk, storage_key, size, created_at)
			values (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		file.ID, file.UserID, file.Filename, string(file.Risk), file.StorageKey, file.Size, sqliterr.FormatTime(file.CreatedAt))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CountByRisk(ctx context.Context, userID string) (models.DashboardSummary, error) {
	query := `
		SELECT count(*),
		       coalesce(sum(risk = 'High'), 0),
		       coalesce(sum(risk = 'Medium'), 0),
		       coalesce(sum(risk = 'Low'), 0)
		FROM files
		WHERE user_id = ?
	`
	var s models.DashboardSummary
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.Total, &s.High, &s.Medium, &s.Low); err != nil {
		return models.DashboardSummary{}, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.FileRecord, error) {
	query := `
		SELECT id, user_id, filename, risk, storage_key, size, created_at
		FROM files
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.FileRecord, 0)
	for rows.Next() {
		var (
			f         models.FileRecord
			risk      string
			createdAt string
		)
		if err := rows.Scan(&f.ID, &f.UserID, &f.Filename, &risk, &f.StorageKey, &f.Size, &createdAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if f.CreatedAt, err = sqliterr.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		f.Risk = models.Risk(risk)
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
