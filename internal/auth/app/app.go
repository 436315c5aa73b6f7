package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/schoolauth/internal/auth/http"
	"github.com/aussiebroadwan/schoolauth/internal/auth/service"
	"github.com/aussiebroadwan/schoolauth/internal/auth/store"
	"github.com/aussiebroadwan/schoolauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/schoolauth/pkg/httpx"
	"github.com/aussiebroadwan/schoolauth/pkg/jwtx"
	"github.com/aussiebroadwan/schoolauth/pkg/revocation"
	"github.com/aussiebroadwan/schoolauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	startupTimeout = 15 * time.Second
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db          store.Store
	issuer      *jwtx.HS256Issuer
	revocations revocation.Store

	// Services
	tokenService        *service.TokenService
	userService         *service.UserService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService
	identityProvider    service.IdentityProvider // nil when OIDC is not configured

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
// It refuses to start without a signing secret.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	app.issuer = jwtx.NewHS256Issuer(cfg.JWTSecret, jwtx.IssuerConfig{
		Issuer:     cfg.Issuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		Leeway:     cfg.Leeway,
	})
	if err := app.issuer.Validate(); err != nil {
		return nil, fmt.Errorf("JWT_SECRET: %w", err)
	}

	proxies, err := httpx.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	httpx.SetTrustedProxies(proxies)

	ctx, cancel := context.WithTimeout(slogx.WithContext(context.Background(), app.logger), startupTimeout)
	defer cancel()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initRevocations(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(ctx); err != nil {
		_ = app.closeStores()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Handler exposes the fully wired router.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"revocation_backend", app.cfg.RevocationBackend,
		"oidc", app.identityProvider != nil,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			app.housekeepingService.Stop()
			_ = app.closeStores()
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

// Shutdown drains the server, stops the sweeper, then closes the stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeStores() error {
	if err := app.revocations.Close(); err != nil {
		app.logger.Error("error closing revocation store", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase opens the sqlite store and applies migrations
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
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

func (app *Application) initRevocations(ctx context.Context) error {
	// Entries must outlive the window in which the issuer still accepts a token.
	grace := revocation.WithGrace(app.cfg.Leeway)

	switch app.cfg.RevocationBackend {
	case "", RevocationMemory:
		app.revocations = revocation.NewMemoryStore(grace)
	case RevocationRedis:
		rs, err := revocation.NewRedisStore(ctx, app.cfg.Redis, grace)
		if err != nil {
			return fmt.Errorf("failed to initialize revocation store: %w", err)
		}
		app.revocations = rs
	default:
		return fmt.Errorf("unknown REVOCATION_BACKEND %q (want memory or redis)", app.cfg.RevocationBackend)
	}

	app.logger.Info("revocation store ready", "backend", app.cfg.RevocationBackend)
	return nil
}

// initServices wires business services, seeds the admin and discovers the
// optional identity provider.
func (app *Application) initServices(ctx context.Context) error {
	app.userService = &service.UserService{
		Store:   app.db,
		Timeout: app.cfg.RepositoryTimeout,
	}
	app.tokenService = &service.TokenService{
		Issuer:      app.issuer,
		Revocations: app.revocations,
		Store:       app.db,
		Timeout:     app.cfg.RepositoryTimeout,
	}
	app.bootstrapService = &service.BootstrapService{
		Store:    app.db,
		Email:    app.cfg.SeedAdminEmail,
		Password: app.cfg.SeedAdminPassword,
	}

	if _, err := app.bootstrapService.SeedAdmin(ctx); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	if app.cfg.OIDC.Enabled() {
		provider, err := service.NewOIDCProvider(ctx, app.cfg.OIDC)
		if err != nil {
			return fmt.Errorf("failed to initialize OIDC provider: %w", err)
		}
		app.identityProvider = provider
		app.logger.Info("oidc login enabled", "issuer", app.cfg.OIDC.IssuerURL)
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.revocations,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.issuer,
		app.revocations,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.IdentityProvider = app.identityProvider
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
