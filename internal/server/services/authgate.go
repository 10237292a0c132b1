package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/repomanager"
)

// TokenValidator decodes a session token into its subject user id.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// AuthGate turns a raw bearer token into an Identity and enforces roles.
type AuthGate struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      TokenValidator
}

func NewAuthGate(db *sql.DB, m repomanager.RepositoryManager, tokens TokenValidator) *AuthGate {
	return &AuthGate{db: db, repomanager: m, tokens: tokens}
}

// Authenticate validates rawToken and resolves its subject to a live user.
// A token whose user has been deleted fails with common.ErrUserNotFound.
func (g *AuthGate) Authenticate(ctx context.Context, rawToken string) (Identity, error) {
	userID, err := g.tokens.Validate(rawToken)
	if err != nil {
		return Identity{}, err
	}

	user, err := g.repomanager.Users(g.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return Identity{}, common.ErrUserNotFound
		}
		return Identity{}, fmt.Errorf("authenticate: %w", err)
	}

	return identityOf(user), nil
}

// RequireAdmin fails with common.ErrForbidden unless id is an admin.
func (g *AuthGate) RequireAdmin(id Identity) error {
	if !id.IsAdmin {
		return common.ErrForbidden
	}
	return nil
}
