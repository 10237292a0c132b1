// Package server wires the intake service together: configuration, logging,
// the database and its migrations, the blob store, auth, the services, and
// the REST and gRPC health servers. It also handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/threatscope/internal/cryptox"
	"github.com/dmitrijs2005/threatscope/internal/logging"
	"github.com/dmitrijs2005/threatscope/internal/server/auth"
	"github.com/dmitrijs2005/threatscope/internal/server/blob"
	"github.com/dmitrijs2005/threatscope/internal/server/classifier"
	"github.com/dmitrijs2005/threatscope/internal/server/config"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/threatscope/internal/server/rest"
	"github.com/dmitrijs2005/threatscope/internal/server/services"

	gs "github.com/dmitrijs2005/threatscope/internal/server/grpc"
)

// Test seams.
var (
	openDB               = sql.Open
	newRepositoryManager = repomanager.ForBackend
	newS3Store           = blob.NewS3Store
	defaultClassifier    = func() classifier.Engine { return classifier.NewRandom(nil) }
	defaultArgon2Params  = cryptox.DefaultArgon2Params
)

var (
	errMissingSecretKey   = errors.New("secret key must not be empty")
	errUnknownBlobBackend = errors.New("unknown blob backend")
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	accounts *services.UserService
	router   http.Handler
}

// NewApp opens the database, applies migrations and builds every service.
// The returned App owns the database handle; call Close when done.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	if c.SecretKey == "" {
		return nil, errMissingSecretKey
	}

	rm, driver, err := newRepositoryManager(c.DatabaseBackend)
	if err != nil {
		return nil, err
	}

	db, err := openDB(driver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if driver == repomanager.SQLiteDriverName {
		// one writer; a second connection to ":memory:" would see an empty database
		db.SetMaxOpenConns(1)
	}

	app, err := build(ctx, c, logger, db, rm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := newBlobStore(ctx, c)
	if err != nil {
		return nil, err
	}

	creds := auth.NewCredentialStore(defaultArgon2Params)
	tokens := auth.NewTokenService([]byte(c.SecretKey), c.AccessTokenValidityDuration)

	gate := services.NewAuthGate(db, rm, tokens)
	accounts := services.NewUserService(db, rm, creds, tokens, logger.With("module", "users"))

	router := rest.NewRouter(rest.Deps{
		Auth:     gate,
		Roles:    gate,
		Accounts: accounts,
		Intake:   services.NewIntakeService(db, rm, store, defaultClassifier(), logger.With("module", "intake")),
		Profiles: services.NewProfileService(db, rm, store, creds, logger.With("module", "profile")),
		Admin:    services.NewAdminService(db, rm, gate, logger.With("module", "admin")),
	}, rest.Options{
		CORSOrigins:    c.CORSOrigins,
		MaxUploadBytes: c.MaxUploadBytes,
	}, logger)

	return &App{config: c, logger: logger, db: db, accounts: accounts, router: router}, nil
}

func newBlobStore(ctx context.Context, c *config.Config) (blob.Store, error) {
	switch c.BlobBackend {
	case config.BlobBackendFS:
		s, err := blob.NewFSStore(c.UploadDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BlobBackendS3:
		s, err := newS3Store(ctx, blob.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownBlobBackend, c.BlobBackend)
}

// Accounts exposes registration and the admin flag to the operator CLI.
func (app *App) Accounts() *services.UserService {
	return app.accounts
}

func (app *App) Close() error {
	return app.db.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves REST and gRPC health until ctx is canceled, a signal arrives
// or either server fails. It returns the first server error.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		app.logger.Error(ctx, err.Error())
		once.Do(func() { firstErr = err })
		cancelFunc()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.router, app.logger).Run(ctx); err != nil {
			fail(fmt.Errorf("http server: %w", err))
		}
	}()
	go func() {
		defer wg.Done()
		if err := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.logger, app.db).Run(ctx); err != nil {
			fail(fmt.Errorf("grpc server: %w", err))
		}
	}()

	wg.Wait()
	app.logger.Info(ctx, "App stopped")
	return firstErr
}
