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

	"github.com/kaszm/imagegallery/internal/idp/external"
	httpapi "github.com/kaszm/imagegallery/internal/idp/http"
	"github.com/kaszm/imagegallery/internal/idp/mail"
	"github.com/kaszm/imagegallery/internal/idp/service"
	"github.com/kaszm/imagegallery/internal/idp/store"
	"github.com/kaszm/imagegallery/internal/idp/store/drivers/mongodb"
	"github.com/kaszm/imagegallery/internal/idp/store/drivers/sqlite"
	"github.com/kaszm/imagegallery/pkg/cryptox"
	"github.com/kaszm/imagegallery/pkg/jwtx"
	"github.com/kaszm/imagegallery/pkg/metricsx"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags.
var BuildVersion = "v0.1.0"

// Application is the identity provider process with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	signer  *jwtx.EdDSASigner
	keys    *jwtx.KeySet
	metrics *metricsx.Metrics

	credentialService   *service.CredentialService
	verificationService *service.VerificationService
	mfaService          *service.MFAService
	profileService      *service.ProfileService
	tokenService        *service.TokenService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "idp",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metricsx.New("idp"),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, keys, err := InitSigningKey(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.signer = signer
	app.keys = keys

	app.initServices()
	if err := app.seed(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run serves until SIGINT or SIGTERM.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("identity provider starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
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
	app.logger.Info("shutting down identity provider...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity provider stopped")
	return nil
}

func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.StoreDriver {
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	case "mongodb":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err = mongodb.NewStore(ctx, app.cfg.MongoURI, app.cfg.MongoDatabase)
	default:
		return fmt.Errorf("unknown store driver %q", app.cfg.StoreDriver)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) seed() error {
	if !app.cfg.SeedUsers {
		return nil
	}
	if app.cfg.Env == "prod" {
		return errors.New("IDP_SEED_USERS is not allowed when ENV=prod")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return SeedUsers(slogx.WithContext(ctx, app.logger), app.credentialService, app.cfg.SeedPassword, app.logger)
}

func (app *Application) initServices() {
	app.credentialService = &service.CredentialService{
		Store:           app.db,
		Metrics:         app.metrics,
		DefaultRole:     app.cfg.DefaultRole,
		SecurityCodeTTL: service.DefaultSecurityCodeTTL,
	}
	app.verificationService = &service.VerificationService{
		Credentials: app.credentialService,
		Mail:        app.mailSender(),
		From:        app.cfg.MailFrom,
		PublicURL:   app.cfg.PublicURL,
	}
	app.mfaService = &service.MFAService{
		Store:   app.db,
		Metrics: app.metrics,
		Issuer:  app.cfg.Issuer,
	}
	app.profileService = &service.ProfileService{Store: app.db}

	app.tokenService = &service.TokenService{
		Store:         app.db,
		Credentials:   app.credentialService,
		MFA:           app.mfaService,
		Profiles:      app.profileService,
		Signer:        app.signer,
		Metrics:       app.metrics,
		Issuer:        app.cfg.Issuer,
		Audience:      app.cfg.Audience,
		Clients:       app.cfg.Clients,
		RoleScopes:    app.cfg.RoleScopes,
		AccessTTL:     jwtx.DefaultAccessTokenTTL,
		RefreshTTL:    jwtx.DefaultRefreshTokenTTL,
		MFASessionTTL: service.DefaultMFASessionTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) mailSender() mail.Sender {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("SMTP_HOST not set, verification mail will only be logged")
		return &mail.LogSender{Logger: app.logger}
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
	})
}

func (app *Application) initHTTP() {
	// The IdP verifies its own tokens for the MFA and userinfo endpoints.
	verifier := jwtx.NewVerifierEdDSA(app.keys, app.cfg.Issuer, app.cfg.Audience)

	router := httpapi.NewRouter(app.keys, verifier, BuildVersion, app.db, app.logger)
	router.Metrics = app.metrics
	router.CredentialService = app.credentialService
	router.VerificationService = app.verificationService
	router.TokenService = app.tokenService
	router.MFAService = app.mfaService
	router.ProfileService = app.profileService

	if app.cfg.GoogleClientID != "" {
		router.Google = &external.GoogleVerifier{
			ClientID:    app.cfg.GoogleClientID,
			DefaultRole: app.cfg.GoogleDefaultRole,
		}
		app.logger.Info("google external login enabled")
	}
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
