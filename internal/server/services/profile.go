package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/logging"
	"github.com/dmitrijs2005/threatscope/internal/server/blob"
	"github.com/dmitrijs2005/threatscope/internal/server/models"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/repomanager"
)

// Profile is a user's own view of their account.
type Profile struct {
	*models.User
	PhotoURL string `json:"photo_url,omitempty"`
}

// ProfileService serves operations a user performs on their own account.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blob.Store
	creds       PasswordHasher
	log         logging.Logger
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, store blob.Store, creds PasswordHasher, log logging.Logger) *ProfileService {
	return &ProfileService{db: db, repomanager: m, store: store, creds: creds, log: log}
}

// Get returns id's profile. When the blob store signs URLs the photo gets a
// time-limited download link.
func (s *ProfileService) Get(ctx context.Context, id Identity) (*Profile, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id.UserID)
	if err != nil {
		return nil, userErr(err)
	}

	p := &Profile{User: user}
	if signer, ok := s.store.(blob.URLSigner); ok && user.Photo != nil {
		url, err := signer.URL(ctx, *user.Photo)
		if err != nil {
			s.log.Warn(ctx, "photo url signing failed", "user_id", user.ID, "error", err)
		} else {
			p.PhotoURL = url
		}
	}
	return p, nil
}

// UpdateProfile changes only the supplied fields. A supplied name or
// password must not be empty; the password is stored hashed.
func (s *ProfileService) UpdateProfile(ctx context.Context, id Identity, name, password *string) error {
	var upd models.ProfileUpdate
	if name != nil {
		if *name == "" {
			return common.Validationf("name must not be empty")
		}
		upd.Name = name
	}
	if password != nil {
		if *password == "" {
			return common.Validationf("password must not be empty")
		}
		hash := s.creds.Hash(*password)
		upd.PasswordHash = &hash
	}
	if upd.Empty() {
		return nil
	}

	if err := s.repomanager.Users(s.db).Update(ctx, id.UserID, upd); err != nil {
		return userErr(err)
	}
	s.log.Info(ctx, "profile updated", "user_id", id.UserID,
		"name_changed", upd.Name != nil, "password_changed", upd.PasswordHash != nil)
	return nil
}

// SetPhoto stores content under photos/<sanitized filename>, points id's
// photo at it and returns the sanitized filename.
func (s *ProfileService) SetPhoto(ctx context.Context, id Identity, content []byte, filename, contentType string) (string, error) {
	if len(content) == 0 {
		return "", common.ErrNoPhotoProvided
	}
	name, err := blob.SanitizeFilename(filename)
	if err != nil {
		return "", err
	}

	ref, err := s.store.Put(ctx, blob.Key(blob.PhotosPrefix, name), bytes.NewReader(content), int64(len(content)), contentType)
	if err != nil {
		return "", err
	}

	if err := s.repomanager.Users(s.db).SetPhoto(ctx, id.UserID, &ref); err != nil {
		return "", userErr(err)
	}
	return name, nil
}

// ClearPhoto unsets id's photo. The blob itself is left in place.
func (s *ProfileService) ClearPhoto(ctx context.Context, id Identity) error {
	if err := s.repomanager.Users(s.db).SetPhoto(ctx, id.UserID, nil); err != nil {
		return userErr(err)
	}
	return nil
}

// userErr reports a caller whose row vanished mid-request as
// common.ErrUserNotFound.
func userErr(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrUserNotFound
	}
	return err
}
