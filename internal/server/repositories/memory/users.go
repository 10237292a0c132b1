package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/server/models"
)

type UsersRepository struct {
	mu    sync.RWMutex
	users []*models.User
	now   func() time.Time
}

func NewUsersRepository() *UsersRepository {
	return &UsersRepository{now: time.Now}
}

func (r *UsersRepository) find(id string) (int, *models.User) {
	for i, u := range r.users {
		if u.ID == id {
			return i, u
		}
	}
	return -1, nil
}

func clone(u *models.User) *models.User {
	out := *u
	if u.Photo != nil {
		p := *u.Photo
		out.Photo = &p
	}
	return &out
}

func (r *UsersRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, common.ErrEmailTaken
		}
	}
	user.CreatedAt = r.now().UTC()
	r.users = append(r.users, clone(user))
	return user, nil
}

func (r *UsersRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, u := r.find(id); u != nil {
		return clone(u), nil
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepository) List(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *clone(u))
	}
	return out, nil
}

func (r *UsersRepository) Update(ctx context.Context, id string, upd models.ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, u := r.find(id)
	if u == nil {
		return common.ErrorNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	return nil
}

func (r *UsersRepository) SetPhoto(ctx context.Context, id string, photo *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, u := r.find(id)
	if u == nil {
		return common.ErrorNotFound
	}
	u.Photo = nil
	if photo != nil {
		p := *photo
		u.Photo = &p
	}
	return nil
}

func (r *UsersRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, u := r.find(id)
	if u == nil {
		return common.ErrorNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

func (r *UsersRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, _ := r.find(id); i >= 0 {
		r.users = append(r.users[:i], r.users[i+1:]...)
	}
	return nil
}
