package users

import (
	"context"

	"github.com/dmitrijs2005/threatscope/internal/server/models"
)

// Repository is the user record store. Lookups by an unknown id or email
// return common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id string, upd models.ProfileUpdate) error
	SetPhoto(ctx context.Context, id string, photo *string) error
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	Delete(ctx context.Context, id string) error
}
