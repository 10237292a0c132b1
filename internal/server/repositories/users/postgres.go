package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/dbx"
	"github.com/dmitrijs2005/threatscope/internal/server/models"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user with the id already set by the caller and fills in
// CreatedAt. A duplicate email yields common.ErrEmailTaken.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, name, email, password_hash, is_admin)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.IsAdmin).Scan(&user.CreatedAt)

	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const selectUser = `SELECT id, name, email, password_hash, is_admin, photo, created_at FROM users`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		u     models.User
		photo sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &photo, &u.CreatedAt); err != nil {
		return nil, err
	}
	if photo.Valid {
		u.Photo = &photo.String
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, id))
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE email = $1`, email))
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	return u, nil
}

// List returns every user in insertion order.
func (r *PostgresRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Update writes only the non-nil fields of upd.
func (r *PostgresRepository) Update(ctx context.Context, id string, upd models.ProfileUpdate) error {
	query :=
		`UPDATE users
		 SET name = COALESCE($2, name), password_hash = COALESCE($3, password_hash)
		 WHERE id = $1
		 `
	res, err := r.db.ExecContext(ctx, query, id, upd.Name, upd.PasswordHash)
	return r.affected(res, err)
}

// SetPhoto stores the photo reference; nil clears it.
func (r *PostgresRepository) SetPhoto(ctx context.Context, id string, photo *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET photo = $2 WHERE id = $1`, id, photo)
	return r.affected(res, err)
}

func (r *PostgresRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_admin = $2 WHERE id = $1`, id, isAdmin)
	return r.affected(res, err)
}

// Delete removes the user. A missing id is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err = pgerr.Wrap(err); err != nil && err != common.ErrorNotFound {
		return err
	}
	return nil
}

func (r *PostgresRepository) affected(res sql.Result, err error) error {
	if err != nil {
		return pgerr.Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
