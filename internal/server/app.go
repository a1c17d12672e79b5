// Package server initializes and runs the framegate application: it opens
// the database, runs migrations, wires the nonce verifier and frame gate,
// handles graceful shutdown and starts the HTTP server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/framegate/internal/clock"
	"github.com/dmitrijs2005/framegate/internal/logging"
	"github.com/dmitrijs2005/framegate/internal/nonce"
	"github.com/dmitrijs2005/framegate/internal/server/accounts"
	"github.com/dmitrijs2005/framegate/internal/server/config"
	"github.com/dmitrijs2005/framegate/internal/server/connection"
	"github.com/dmitrijs2005/framegate/internal/server/frame"
	"github.com/dmitrijs2005/framegate/internal/server/httpserver"
	"github.com/dmitrijs2005/framegate/internal/server/repositories/repomanager"
)

// App holds the wired components of a running server.
type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	accounts *accounts.Service
	verifier *nonce.Verifier
	gate     *frame.Gate
}

// NewApp connects to the database, runs migrations and wires the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	hasher, err := nonce.HasherByName(c.HashAlgorithm)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	remote, err := connection.NewClient(c.ConnectionBaseURL, c.InstallID, []byte(c.ConnectionSecret), c.ConnectionTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := accounts.NewService(db, rm, remote, c, logger)
	v := nonce.NewVerifier(as, as, hasher, nonce.NewLogAuditor(logger), c.NonceLifetime, clock.Real())
	g := frame.NewGate(v, c.InstallID, logger)

	return &App{config: c, logger: logger, db: db, accounts: as, verifier: v, gate: g}, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpserver.NewServer(app.config, app.logger, app.gate, app.verifier, app.accounts)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "install_id", app.config.InstallID, "hash", app.config.HashAlgorithm)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database failed", "error", err)
	}
}
