package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/dbx"
	"github.com/dmitrijs2005/threatscope/internal/logging"
	"github.com/dmitrijs2005/threatscope/internal/server/models"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PasswordHasher is the credential store used for registration, login and
// password changes.
type PasswordHasher interface {
	Hash(plaintext string) string
	Verify(plaintext, credential string) bool
	VerifyDummy(plaintext string) bool
	NeedsRehash(credential string) bool
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// LoginResult is what a successful login hands back to the caller.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// UserService handles registration and login.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	creds       PasswordHasher
	tokens      TokenIssuer
	log         logging.Logger
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, creds PasswordHasher, tokens TokenIssuer, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		creds:       creds,
		tokens:      tokens,
		log:         log,
	}
}

// Register creates a regular user. Name and email are trimmed; all three
// fields are required. A registered email yields common.ErrEmailTaken.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.create(ctx, name, email, password, false)
}

// RegisterAdmin creates a user with the admin flag set. It is meant for the
// operator CLI and is not reachable over HTTP.
func (s *UserService) RegisterAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.create(ctx, name, email, password, true)
}

func (s *UserService) create(ctx context.Context, name, email, password string, isAdmin bool) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, common.Validationf("Missing fields")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: s.creds.Hash(password),
		IsAdmin:      isAdmin,
	}

	var created *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetByEmail(ctx, email)
		switch {
		case err == nil:
			return common.ErrEmailTaken
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		created, err = repo.Create(ctx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID, "is_admin", created.IsAdmin)
	return created, nil
}

// Login checks the credentials and issues a session token. An unknown email
// and a wrong password both fail with common.ErrInvalidCredentials after the
// same amount of hashing work.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.creds.VerifyDummy(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.creds.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	if s.creds.NeedsRehash(user.PasswordHash) {
		hash := s.creds.Hash(password)
		if err := repo.Update(ctx, user.ID, models.ProfileUpdate{PasswordHash: &hash}); err != nil {
			s.log.Warn(ctx, "credential rehash failed", "user_id", user.ID, "error", err)
		} else {
			user.PasswordHash = hash
		}
	}

	token, exp, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// SetAdminByEmail grants or revokes the admin flag of the user with email.
// It backs the operator CLI and performs no role check of its own.
func (s *UserService) SetAdminByEmail(ctx context.Context, email string, isAdmin bool) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if err := repo.SetAdmin(ctx, user.ID, isAdmin); err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin

	s.log.Info(ctx, "admin flag changed", "user_id", user.ID, "is_admin", isAdmin)
	return user, nil
}
