// Package main is the entry point for the LibReport API server.
// LibReport is a library management backend covering membership, loans,
// visits, and reporting.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prn-tf/libreport/internal/archive"
	"github.com/prn-tf/libreport/internal/auth"
	cachememory "github.com/prn-tf/libreport/internal/cache/memory"
	cacheredis "github.com/prn-tf/libreport/internal/cache/redis"
	"github.com/prn-tf/libreport/internal/config"
	"github.com/prn-tf/libreport/internal/handler"
	"github.com/prn-tf/libreport/internal/lock"
	"github.com/prn-tf/libreport/internal/metrics"
	"github.com/prn-tf/libreport/internal/repository"
	"github.com/prn-tf/libreport/internal/repository/postgres"
	"github.com/prn-tf/libreport/internal/repository/sqlite"
	"github.com/prn-tf/libreport/internal/service"
	"github.com/prn-tf/libreport/internal/token"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	logger := newLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting LibReport server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}

	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// Database
	repos, health, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer health.Close()

	// Cache and locks. Redis when enabled, in-process fallbacks otherwise.
	var (
		cache  repository.Cache
		locker lock.Locker
	)
	if cfg.Redis.Enabled {
		redisClient, err := cacheredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		cache = redisClient
		locker = lock.NewRedisLocker(redisClient)
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("redis connected")
	} else {
		memCache := cachememory.NewCache()
		defer memCache.Stop()
		cache = memCache
		locker = lock.NewMemoryLocker()
	}

	// Services
	tokens := token.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	authService := service.NewAuthService(
		repos.User, repos.Admin, repos.AdminKey, repos.PasswordReset,
		tokens, cfg.Auth.BcryptCost, cfg.Auth.ResetTokenTTL, logger,
	)
	adminAuthService := service.NewAdminAuthService(
		repos.Admin, repos.AdminKey, tokens, cfg.Auth.BcryptCost, logger,
	)
	bookService := service.NewBookService(repos.Book, logger)
	loanService := service.NewLoanService(
		repos.Loan, repos.Book, repos.User, locker, cfg.Library.LoanDays, logger,
	)
	visitService := service.NewVisitService(
		repos.Visit, repos.User, cache,
		cfg.Library.VisitDedupWindow, cfg.Library.DefaultBranch, logger,
	)
	reportService := service.NewReportService(
		repos.User, repos.Book, repos.Loan, repos.Visit, logger,
	)
	hoursService := service.NewHoursService(
		repos.Hours, cache, cfg.Library.DefaultBranch, logger,
	)
	inviteService := service.NewInviteService(repos.AdminKey, logger)
	userAdminService := service.NewUserAdminService(repos.User, logger)

	var archiveService *service.ArchiveService
	if cfg.Archive.Enabled {
		exporter, err := archive.NewExporter(ctx, cfg.Archive, logger)
		if err != nil {
			return err
		}
		archiveService = service.NewArchiveService(repos.Loan, repos.Visit, exporter, logger)
		logger.Info().Str("bucket", cfg.Archive.Bucket).Msg("archive exports enabled")
	}

	// Metrics
	var (
		apiMetrics    *metrics.Metrics
		metricsServer *metrics.Server
	)
	if cfg.Metrics.Enabled {
		apiMetrics = metrics.New()
		metricsServer = metrics.NewServer(apiMetrics, cfg.Metrics, logger)
	}

	// HTTP router
	routerCfg := handler.RouterConfig{
		AuthHandler:      handler.NewAuthHandler(authService, logger),
		AdminAuthHandler: handler.NewAdminAuthHandler(adminAuthService, logger),
		BookHandler:      handler.NewBookHandler(bookService, logger),
		LoanHandler:      handler.NewLoanHandler(loanService, logger),
		VisitHandler:     handler.NewVisitHandler(visitService, logger),
		ReportHandler:    handler.NewReportHandler(reportService, logger),
		HoursHandler:     handler.NewHoursHandler(hoursService, logger),
		AdminHandler:     handler.NewAdminHandler(userAdminService, inviteService, archiveService, logger),
		RequireAuth:      auth.RequireAuth(tokens),
		RequireAdmin:     auth.RequireAdmin(),
		Health:           health,
		Logger:           logger,
	}
	if apiMetrics != nil {
		routerCfg.Metrics = apiMetrics.Middleware
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.NewRouter(routerCfg).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}

	return nil
}

// openDatabase connects to the configured backend and applies pending
// migrations.
func openDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, error) {
	if cfg.Database.IsEmbedded() {
		dbCfg := sqlite.DefaultConfig(cfg.Database.Path)
		dbCfg.JournalMode = cfg.Database.JournalMode
		dbCfg.BusyTimeout = cfg.Database.BusyTimeout
		dbCfg.CacheSize = cfg.Database.CacheSize
		dbCfg.SynchronousMode = cfg.Database.SynchronousMode

		db, err := sqlite.NewDB(ctx, dbCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info().Str("path", cfg.Database.Path).Msg("sqlite database ready")
		return sqlite.NewRepositories(db), db, nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.Database).
		Msg("postgres database ready")
	return postgres.NewRepositories(db), db, nil
}

// newLogger builds the process logger from the logging config.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out *os.File
	switch cfg.Output {
	case "stderr":
		out = os.Stderr
	default:
		out = os.Stdout
	}

	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
