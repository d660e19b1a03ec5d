package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/kaszm/imagegallery/internal/gallery/http"
	"github.com/kaszm/imagegallery/internal/gallery/store"
	"github.com/kaszm/imagegallery/internal/gallery/store/drivers/sqlite"
	"github.com/kaszm/imagegallery/pkg/authsdk"
	"github.com/kaszm/imagegallery/pkg/jwtx"
	"github.com/kaszm/imagegallery/pkg/metricsx"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags.
var BuildVersion = "v0.1.0"

// Application is the gallery API process.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db        store.Store
	keys      *jwtx.KeySet
	refresher *KeyRefresher
	metrics   *metricsx.Metrics

	server *http.Server
	router *httpapi.Router
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gallery",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		keys:    jwtx.NewKeySet(),
		metrics: metricsx.New("gallery"),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.refresher = NewKeyRefresher(authsdk.NewClient(cfg.IdPURL), app.keys, app.logger, cfg.KeyRefreshInterval)
	app.initHTTP()

	return app, nil
}

// Run serves until SIGINT or SIGTERM. Requests are rejected with 401 and
// /readyz reports 503 until the first JWKS fetch succeeds.
func (app *Application) Run() error {
	app.refresher.Start()

	app.logger.Info("gallery api starting", "port", app.cfg.Port, "idp", app.cfg.IdPURL, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.refresher.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gallery api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.refresher.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gallery api stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initHTTP() {
	verifier := jwtx.NewVerifierEdDSA(app.keys, app.cfg.Issuer, app.cfg.Audience)

	router := httpapi.NewRouter(app.keys, verifier, BuildVersion, app.db, app.logger)
	router.Metrics = app.metrics
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
