package files

import (
	"context"

	"github.com/dmitrijs2005/threatscope/internal/server/models"
)

// Repository is the append-only store of analyzed uploads. Records are never
// updated or deleted.
type Repository interface {
	Create(ctx context.Context, file *models.FileRecord) error
	CountByRisk(ctx context.Context, userID string) (models.DashboardSummary, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.FileRecord, error)
}
