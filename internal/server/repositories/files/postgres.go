package files

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/threatscope/internal/dbx"
	"github.com/dmitrijs2005/threatscope/internal/server/models"
)

// PostgresRepository implements file record storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new record. ID and CreatedAt are set by the caller.
func (r *PostgresRepository) Create(ctx context.Context, file *models.FileRecord) error {
	query := `
		INSERT INTO files (id, user_id, filename, risk, storage_key, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		file.ID, file.UserID, file.Filename, string(file.Risk), file.StorageKey, file.Size, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// CountByRisk computes all counters in one statement so the total always
// matches the sum of the per-label counts.
func (r *PostgresRepository) CountByRisk(ctx context.Context, userID string) (models.DashboardSummary, error) {
	query := `
		SELECT count(*),
		       count(*) FILTER (WHERE risk = 'High'),
		       count(*) FILTER (WHERE risk = 'Medium'),
		       count(*) FILTER (WHERE risk = 'Low')
		FROM files
		WHERE user_id = $1
	`
	var s models.DashboardSummary
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.Total, &s.High, &s.Medium, &s.Low); err != nil {
		return models.DashboardSummary{}, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// ListByUser returns at most limit records owned by userID, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.FileRecord, error) {
	query := `
		SELECT id, user_id, filename, risk, storage_key, size, created_at
		FROM files
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.FileRecord, 0)
	for rows.Next() {
		var (
			f    models.FileRecord
			risk string
		)
		if err := rows.Scan(&f.ID, &f.UserID, &f.Filename, &risk, &f.StorageKey, &f.Size, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		f.Risk = models.Risk(risk)
		f.CreatedAt = f.CreatedAt.UTC()
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
