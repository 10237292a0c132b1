package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/threatscope/internal/logging"
	"github.com/dmitrijs2005/threatscope/internal/server/models"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/repomanager"
)

// AdminService holds the role-gated operations over users. Each method
// checks the caller with AuthGate.RequireAdmin before touching data.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gate        *AuthGate
	log         logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, gate *AuthGate, log logging.Logger) *AdminService {
	return &AdminService{db: db, repomanager: m, gate: gate, log: log}
}

// ListUsers returns all users in insertion order.
func (s *AdminService) ListUsers(ctx context.Context, id Identity) ([]models.User, error) {
	if err := s.gate.RequireAdmin(id); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.User{}
	}
	return list, nil
}

// DeleteUser removes targetID. Deleting an unknown id succeeds. The user's
// file records and blobs are kept.
func (s *AdminService) DeleteUser(ctx context.Context, id Identity, targetID string) error {
	if err := s.gate.RequireAdmin(id); err != nil {
		return err
	}
	if err := s.repomanager.Users(s.db).Delete(ctx, targetID); err != nil {
		return err
	}
	s.log.Info(ctx, "user deleted", "admin_id", id.UserID, "target_id", targetID)
	return nil
}

// SetAdmin grants or revokes the admin flag of targetID. An unknown id is
// common.ErrorNotFound.
func (s *AdminService) SetAdmin(ctx context.Context, id Identity, targetID string, isAdmin bool) error {
	if err := s.gate.RequireAdmin(id); err != nil {
		return err
	}
	if err := s.repomanager.Users(s.db).SetAdmin(ctx, targetID, isAdmin); err != nil {
		return err
	}
	s.log.Info(ctx, "admin flag changed", "admin_id", id.UserID, "target_id", targetID, "is_admin", isAdmin)
	return nil
}
