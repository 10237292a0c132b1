package server

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/threatscope/internal/cryptox"
	"github.com/dmitrijs2005/threatscope/internal/server/blob"
	"github.com/dmitrijs2005/threatscope/internal/server/config"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/memory"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingMigrations struct{ *memory.RepositoryManager }

func (failingMigrations) RunMigrations(context.Context, *sql.DB) error {
	return errors.New("relation already exists")
}

// withSeams swaps the database and repository constructors for the test.
func withSeams(t *testing.T, rm repomanager.RepositoryManager) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	oldOpen, oldRM, oldParams := openDB, newRepositoryManager, defaultArgon2Params
	openDB = func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, "test-driver", driver)
		return db, nil
	}
	newRepositoryManager = func(string) (repomanager.RepositoryManager, string, error) { return rm, "test-driver", nil }
	defaultArgon2Params = cryptox.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}
	t.Cleanup(func() {
		openDB, newRepositoryManager, defaultArgon2Params = oldOpen, oldRM, oldParams
	})
	return mock
}

func testConfig(t *testing.T) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.UploadDir = t.TempDir()
	c.LogLevel = "error"
	return c
}

func TestNewApp_MissingSecret(t *testing.T) {
	c := testConfig(t)
	c.SecretKey = ""
	_, err := NewApp(context.Background(), c)
	assert.ErrorIs(t, err, errMissingSecretKey)
}

func TestNewApp_OpenError(t *testing.T) {
	old := openDB
	defer func() { openDB = old }()
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("bad dsn") }

	_, err := NewApp(context.Background(), testConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error")
}

func TestNewApp_MigrationErrorClosesDB(t *testing.T) {
	mock := withSeams(t, failingMigrations{memory.NewRepositoryManager()})
	mock.ExpectClose()

	_, err := NewApp(context.Background(), testConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_UnknownBlobBackend(t *testing.T) {
	mock := withSeams(t, memory.NewRepositoryManager())
	mock.ExpectClose()

	c := testConfig(t)
	c.BlobBackend = "tape"
	_, err := NewApp(context.Background(), c)
	assert.ErrorIs(t, err, errUnknownBlobBackend)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_UnknownDatabaseBackend(t *testing.T) {
	c := testConfig(t)
	c.DatabaseBackend = "oracle"
	_, err := NewApp(context.Background(), c)
	assert.ErrorIs(t, err, repomanager.ErrUnknownBackend)
}

func TestNewApp_SQLiteEndToEnd(t *testing.T) {
	old := defaultArgon2Params
	defer func() { defaultArgon2Params = old }()
	defaultArgon2Params = cryptox.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}

	c := testConfig(t)
	c.DatabaseBackend = repomanager.BackendSQLite
	c.DatabaseDSN = ":memory:"
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	defer app.Close()

	body := bytes.NewBufferString(`{"name":"Alice","email":"alice@x.com","password":"pw"}`)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	u, err := app.Accounts().SetAdminByEmail(context.Background(), "alice@x.com", true)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
}

func TestNewBlobStore_S3(t *testing.T) {
	old := newS3Store
	defer func() { newS3Store = old }()

	var got blob.S3Options
	newS3Store = func(ctx context.Context, opts blob.S3Options) (*blob.S3Store, error) {
		got = opts
		return &blob.S3Store{}, nil
	}

	c := testConfig(t)
	c.BlobBackend = config.BlobBackendS3
	s, err := newBlobStore(context.Background(), c)
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, c.S3Bucket, got.Bucket)
	assert.Equal(t, c.S3RootUser, got.AccessKey)

	newS3Store = func(context.Context, blob.S3Options) (*blob.S3Store, error) {
		return nil, errors.New("no credentials")
	}
	s, err = newBlobStore(context.Background(), c)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestApp_RouterServesRequests(t *testing.T) {
	mock := withSeams(t, memory.NewRepositoryManager())
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, app.Accounts())

	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mock.ExpectBegin()
	mock.ExpectCommit()
	body := bytes.NewBufferString(`{"name":"Alice","email":"alice@x.com","password":"pw"}`)
	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", body))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	mock.ExpectClose()
	require.NoError(t, app.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	withSeams(t, memory.NewRepositoryManager())
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_RunReportsListenError(t *testing.T) {
	withSeams(t, memory.NewRepositoryManager())
	c := testConfig(t)
	c.EndpointAddrHTTP = "not-an-address"
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	select {
	case err := <-runAsync(app):
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http server")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not fail")
	}
}

func runAsync(app *App) <-chan error {
	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()
	return done
}
