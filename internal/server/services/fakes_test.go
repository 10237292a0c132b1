package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/cryptox"
	"github.com/dmitrijs2005/threatscope/internal/dbx"
	"github.com/dmitrijs2005/threatscope/internal/logging"
	"github.com/dmitrijs2005/threatscope/internal/server/auth"
	"github.com/dmitrijs2005/threatscope/internal/server/models"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/files"
	usersrepo "github.com/dmitrijs2005/threatscope/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var testArgon2 = cryptox.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}

func newCreds() *auth.CredentialStore { return auth.NewCredentialStore(testArgon2) }

func newTokens() *auth.TokenService { return auth.NewTokenService([]byte("k"), 2*time.Hour) }

// fakeUsersRepo is an in-memory users.Repository keeping insertion order.
type fakeUsersRepo struct {
	mu    sync.Mutex
	seq   int
	byID  map[string]*models.User
	order map[string]int

	err error // returned by every call when set
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}, order: map[string]int{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrEmailTaken
		}
	}
	cp := *u
	cp.CreatedAt = time.Now().UTC()
	f.byID[cp.ID] = &cp
	f.seq++
	f.order[cp.ID] = f.seq
	out := cp
	return &out, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.User
	for _, u := range f.byID {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return f.order[out[i].ID] < f.order[out[j].ID] })
	return out, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, id string, upd models.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	u, ok := f.byID[id]
	if !ok {
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

func (f *fakeUsersRepo) SetPhoto(ctx context.Context, id string, photo *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	if photo == nil {
		u.Photo = nil
	} else {
		p := *photo
		u.Photo = &p
	}
	return nil
}

func (f *fakeUsersRepo) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.byID, id)
	return nil
}

// put seeds a user directly.
func (f *fakeUsersRepo) put(u models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = &u
	f.seq++
	f.order[u.ID] = f.seq
}

// fakeFilesRepo is an in-memory files.Repository.
type fakeFilesRepo struct {
	mu      sync.Mutex
	records []models.FileRecord
	err     error
}

func (f *fakeFilesRepo) Create(ctx context.Context, rec *models.FileRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeFilesRepo) CountByRisk(ctx context.Context, userID string) (models.DashboardSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.DashboardSummary{}, f.err
	}
	var s models.DashboardSummary
	for _, r := range f.records {
		if r.UserID != userID {
			continue
		}
		s.Total++
		switch r.Risk {
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

func (f *fakeFilesRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []models.FileRecord{}
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		if f.records[i].UserID == userID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	f *fakeFilesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), f: &fakeFilesRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository    { return m.u }
func (m *fakeRepoManager) Files(db dbx.DBTX) files.Repository        { return m.f }

// memStore is an in-memory blob.Store.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = buf.Bytes()
	return key, nil
}

// signingStore adds URL signing to memStore.
type signingStore struct {
	*memStore
	err error
}

func (s *signingStore) URL(ctx context.Context, ref string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://signed/" + ref, nil
}

var errStore = errors.New("store unavailable")

func nopLog() logging.Logger { return logging.Nop() }

func hexKey(b []byte) string { return hex.EncodeToString(b) }

// spyRepoManager swaps in a custom files repository.
type spyRepoManager struct {
	*fakeRepoManager
	files files.Repository
}

func (m *spyRepoManager) Files(db dbx.DBTX) files.Repository { return m.files }
