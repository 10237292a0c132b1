package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/logging"
	"github.com/dmitrijs2005/threatscope/internal/server/blob"
	"github.com/dmitrijs2005/threatscope/internal/server/classifier"
	"github.com/dmitrijs2005/threatscope/internal/server/models"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// IntakeService stores uploads, classifies them and keeps per-owner records.
type IntakeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blob.Store
	engine      classifier.Engine
	log         logging.Logger
	now         func() time.Time
}

func NewIntakeService(db *sql.DB, m repomanager.RepositoryManager, store blob.Store, engine classifier.Engine, log logging.Logger) *IntakeService {
	return &IntakeService{
		db:          db,
		repomanager: m,
		store:       store,
		engine:      engine,
		log:         log,
		now:         time.Now,
	}
}

// Ingest stores content under files/<sanitized filename>, classifies it and
// records the result for id. An existing blob with the same name is replaced.
func (s *IntakeService) Ingest(ctx context.Context, id Identity, content []byte, filename, contentType string) (*models.FileRecord, error) {
	if len(content) == 0 {
		return nil, common.ErrNoFileProvided
	}
	name, err := blob.SanitizeFilename(filename)
	if err != nil {
		return nil, err
	}

	key, err := s.store.Put(ctx, blob.Key(blob.FilesPrefix, name), bytes.NewReader(content), int64(len(content)), contentType)
	if err != nil {
		return nil, err
	}

	risk, err := s.engine.Classify(ctx, content, name)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if !risk.Valid() {
		return nil, fmt.Errorf("classify: unknown label %q", risk)
	}

	rec := &models.FileRecord{
		ID:         uuid.NewString(),
		UserID:     id.UserID,
		Filename:   name,
		Risk:       risk,
		StorageKey: key,
		Size:       int64(len(content)),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repomanager.Files(s.db).Create(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "file analyzed", "user_id", id.UserID, "file_id", rec.ID, "risk", string(risk), "size", rec.Size)
	return rec, nil
}

// DashboardSummary counts id's records per risk label.
func (s *IntakeService) DashboardSummary(ctx context.Context, id Identity) (models.DashboardSummary, error) {
	return s.repomanager.Files(s.db).CountByRisk(ctx, id.UserID)
}

// ListFiles returns id's most recent records, newest first. limit is clamped
// to (0, MaxListLimit]; a non-positive limit means DefaultListLimit.
func (s *IntakeService) ListFiles(ctx context.Context, id Identity, limit int) ([]models.FileRecord, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.repomanager.Files(s.db).ListByUser(ctx, id.UserID, limit)
}
