package cmd

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

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/accesslog"
	accesslogPostgres "github.com/frahmantamala/filehub/internal/accesslog/postgres"
	"github.com/frahmantamala/filehub/internal/admin"
	adminPostgres "github.com/frahmantamala/filehub/internal/admin/postgres"
	"github.com/frahmantamala/filehub/internal/auth"
	authPostgres "github.com/frahmantamala/filehub/internal/auth/postgres"
	"github.com/frahmantamala/filehub/internal/core/events"
	"github.com/frahmantamala/filehub/internal/file"
	filePostgres "github.com/frahmantamala/filehub/internal/file/postgres"
	"github.com/frahmantamala/filehub/internal/transport/rest"
	"github.com/frahmantamala/filehub/internal/transport/swagger"
	"github.com/frahmantamala/filehub/internal/user"
	userPostgres "github.com/frahmantamala/filehub/internal/user/postgres"
	"github.com/frahmantamala/filehub/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *gorm.DB
	Router   *chi.Mux
	Bus      *events.EventBus
	Recorder *accesslog.Recorder
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("Server stopped")
}

// close flushes background work before the pool goes away.
func (d *Dependencies) close() {
	d.Bus.Wait()
	d.Recorder.Shutdown()
	if sqlDB, err := d.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			d.Logger.Error("Database close error", "error", err)
		}
	}
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	statsDB, err := sqlxDB(db, cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	if cfg.Server.OpenAPIPath != "" {
		if _, err := swagger.LoadSpec(context.Background(), cfg.Server.OpenAPIPath); err != nil {
			log.Warn("openapi document failed validation", "path", cfg.Server.OpenAPIPath, "error", err)
		}
	}

	store, err := newBlobStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	bus := events.NewEventBus(log)

	logRepo := accesslogPostgres.NewRepository(db)
	logService := accesslog.NewService(logRepo)
	recorder := accesslog.NewRecorder(logRepo, accesslog.RecorderConfig{
		MaxWorkers:   4,
		QueueSize:    1024,
		WriteTimeout: 5 * time.Second,
	}, log)
	accesslog.NewEventHandler(recorder, log).RegisterEventHandlers(bus)

	fileRepo := filePostgres.NewRepository(db)
	fileService := file.NewService(fileRepo, store, bus, cfg.Storage.MaxUploadSize)
	fileHandler := file.NewHandler(fileService, cfg.Storage.MaxUploadSize)

	authService := auth.NewService(
		authPostgres.NewRepository(db),
		auth.NewJWTTokenGenerator(cfg.Security.SessionSecret),
		bus,
		auth.ServiceConfig{
			BCryptCost:       cfg.Security.BCryptCost,
			SessionDuration:  cfg.Security.SessionDuration,
			RememberDuration: cfg.Security.RememberDuration,
		},
	)
	authHandler := auth.NewHandler(authService, auth.CookieConfig{
		Name:   cfg.Security.CookieName,
		Secure: cfg.Security.CookieSecure,
	})

	userService := user.NewService(userPostgres.NewRepository(db), fileService)
	userHandler := user.NewHandler(userService)

	backupService, err := newBackupService(cfg)
	if err != nil {
		return nil, err
	}
	adminService := admin.NewService(adminPostgres.NewStatsRepository(statsDB), fileService, logService, backupService)
	adminHandler := admin.NewHandler(adminService)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Options{
		DB:          sqlDB,
		DBComponent: cfg.Database.Driver,
		RBAC:        auth.NewRBACAuthorization(nil, log),
		ABAC:        auth.NewABACPolicy(fileRepo, log),
		AccessLog:   recorder,
		Origins:     cfg.Server.Origins(),
		OpenAPIPath: cfg.Server.OpenAPIPath,
		Logger:      log,
	}, rest.Handlers{
		Auth:  authHandler,
		Files: fileHandler,
		Users: userHandler,
		Admin: adminHandler,
	})

	return &Dependencies{
		Config:   cfg,
		DB:       db,
		Router:   router,
		Bus:      bus,
		Recorder: recorder,
		Logger:   log,
	}, nil
}
