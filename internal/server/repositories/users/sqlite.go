package users

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/dbx"
	"github.com/dmitrijs2005/threatscope/internal/server/models"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/sqliterr"
)

// SQLiteRepository stores users in SQLite. Timestamps are kept as
// fixed-width UTC text.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	createdAt := r.now().UTC()

	query := `INSERT INTO users (id, name, email, password_hash, is_admin, created_at)
			values (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.IsAdmin, sqliterr.FormatTime(createdAt))
	if err != nil {
		if sqliterr.IsUniqueViolation(err) {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.CreatedAt = createdAt
	return user, nil
}

func scanSQLiteUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		u         models.User
		photo     sql.NullString
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &photo, &createdAt); err != nil {
		return nil, err
	}
	if photo.Valid {
		u.Photo = &photo.String
	}
	t, err := sqliterr.ParseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = t
	return &u, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanSQLiteUser(r.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id))
	if err != nil {
		return nil, sqliterr.Wrap(err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanSQLiteUser(r.db.QueryRowContext(ctx, selectUser+` WHERE email = ?`, email))
	if err != nil {
		return nil, sqliterr.Wrap(err)
	}
	return u, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+` ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.User
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
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

func (r *SQLiteRepository) Update(ctx context.Context, id string, upd models.ProfileUpdate) error {
	query := `UPDATE users SET name = COALESCE(?, name), password_hash = COALESCE(?, password_hash) WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, nullable(upd.Name), nullable(upd.PasswordHash), id)
	return sqliteAffected(res, err)
}

func (r *SQLiteRepository) SetPhoto(ctx context.Context, id string, photo *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET photo = ? WHERE id = ?`, nullable(photo), id)
	return sqliteAffected(res, err)
}

func (r *SQLiteRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE id = ?`, isAdmin, id)
	return sqliteAffected(res, err)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// nullable binds a nil pointer as NULL.
func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func sqliteAffected(res sql.Result, err error) error {
	if err != nil {
		return sqliterr.Wrap(err)
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
