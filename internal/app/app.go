// Package app initializes and runs the authentication gateway.
// It configures logging, storage, the session store, and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/authgate/internal/auth"
	"github.com/patric-chuzhbe/authgate/internal/config"
	"github.com/patric-chuzhbe/authgate/internal/db/jsondb"
	"github.com/patric-chuzhbe/authgate/internal/db/memorystorage"
	"github.com/patric-chuzhbe/authgate/internal/db/postgresdb"
	"github.com/patric-chuzhbe/authgate/internal/logger"
	"github.com/patric-chuzhbe/authgate/internal/models"
	"github.com/patric-chuzhbe/authgate/internal/passhash"
	"github.com/patric-chuzhbe/authgate/internal/router"
	"github.com/patric-chuzhbe/authgate/internal/service"
	"github.com/patric-chuzhbe/authgate/internal/session"
	"github.com/patric-chuzhbe/authgate/internal/user"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (int, error)
	FindUserByUsername(ctx context.Context, username string, transaction *sql.Tx) (*user.User, bool, error)
	FindUserByID(ctx context.Context, userID int, transaction *sql.Tx) (*user.User, bool, error)
}

type transactioner interface {
	BeginTransaction() (*sql.Tx, error)
	RollbackTransaction(transaction *sql.Tx) error
	CommitTransaction(transaction *sql.Tx) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	transactioner
	pinger
	Close() error
}

// App encapsulates the configuration, HTTP handler, storage backend and
// session store needed to run the authentication gateway.
type App struct {
	cfg         *config.Config
	db          storage
	sessions    *session.Store
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading and validating configuration (the session signing key is required)
// - initializing the logger
// - selecting and setting up storage
// - creating the session store and the signed-cookie middleware
// - setting up the router
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	sessionSigningSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.SessionSigningSecretKey)
	if err != nil {
		return nil, fmt.Errorf(
			"in internal/app/app.go/New(): error while `base64.URLEncoding.DecodeString()` calling: %w",
			err,
		)
	}

	app.sessions = session.NewStore()

	app.httpHandler = router.New(
		service.New(app.db, passhash.New(passhash.DefaultCost)),
		app.sessions,
		auth.New(
			app.sessions,
			app.cfg.AuthCookieName,
			sessionSigningSecretKey,
		),
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
