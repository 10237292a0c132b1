package memory

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/threatscope/internal/server/models"
)

type FilesRepository struct {
	mu      sync.RWMutex
	records []models.FileRecord
}

func NewFilesRepository() *FilesRepository {
	return &FilesRepository{}
}

func (r *FilesRepository) Create(ctx context.Context, file *models.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *file)
	return nil
}

// CountByRisk counts under one read lock so the total matches the per-label sum.
func (r *FilesRepository) CountByRisk(ctx context.Context, userID string) (models.DashboardSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var s models.DashboardSummary
	for _, f := range r.records {
		if f.UserID != userID {
			continue
		}
		s.Total++
		switch f.Risk {
		case models.RiskHigh:
			s.High++
		case models.RiskMedium:
			s.Medium++
		case models.RiskLow:
			s.Low++
		}
	}
	return s, nil
}

// ListByUser walks the records backwards, which is newest first.
func (r *FilesRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.FileRecord, 0)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].UserID == userID {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}
