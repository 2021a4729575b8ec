// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gxggeorgia/gxg-sub001/internal/account"
	"github.com/gxggeorgia/gxg-sub001/internal/admin"
	"github.com/gxggeorgia/gxg-sub001/internal/auth"
	"github.com/gxggeorgia/gxg-sub001/internal/config"
	"github.com/gxggeorgia/gxg-sub001/internal/core"
	"github.com/gxggeorgia/gxg-sub001/internal/directory"
	"github.com/gxggeorgia/gxg-sub001/internal/entitlement"
	"github.com/gxggeorgia/gxg-sub001/internal/health"
	"github.com/gxggeorgia/gxg-sub001/internal/media"
	"github.com/gxggeorgia/gxg-sub001/internal/middleware"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
	"github.com/gxggeorgia/gxg-sub001/internal/server"
	"github.com/gxggeorgia/gxg-sub001/migrations"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrate := flag.Bool("migrate", false, "apply database migrations before serving")
	keysDir := flag.String("generate-keys", "", "write a new ES256 key pair into this directory and exit")
	flag.Parse()

	if *keysDir != "" {
		if err := generateKeys(*keysDir); err != nil {
			slog.Error("key generation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath, *migrate); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func generateKeys(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}

	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")

	if err := auth.GenerateKeyPair(privatePath, publicPath); err != nil {
		return err
	}

	slog.Info("key pair written", "private", privatePath, "public", publicPath)
	return nil
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string, migrate bool) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if migrate {
		if err := migrations.Migrate(db.DB.DB); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	// A missing or unreadable signing key stops startup here rather than
	// failing every login later.
	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
		"session_ttl", jwtManager.SessionTTL(),
	)

	mediaStore, err := media.NewDiskStore(cfg.Media.Root)
	if err != nil {
		return err
	}

	principals := principal.NewRepository(db.DB)
	denylist := auth.NewDenylist(redis.Client, cfg.JWT.SessionTTL)
	session := middleware.NewSessionCookie(cfg.Session)

	guard := middleware.NewGuard(middleware.GuardConfig{
		Verifier:    jwtManager,
		Principals:  principals,
		Revocations: denylist,
		Session:     session,
	})

	mutator := entitlement.NewMutator(principals, cfg.Entitlement.DefaultGrantDays)

	authSvc := auth.NewService(principals, jwtManager, denylist)
	authHandler := auth.NewHandler(authSvc, session)

	accountHandler := account.NewHandler(principals)
	directoryHandler := directory.NewHandler(principals)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Service:    admin.NewService(principals, mutator, denylist, mediaStore),
	})

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.NewGlobalRateLimiter(redis.Client, cfg.RateLimit).Handler)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	loginLimiter := middleware.NewLoginRateLimiter(redis.Client, cfg.RateLimit)

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, guard, loginLimiter.Handler)
		accountHandler.RegisterRoutes(r, guard)
		directoryHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r, guard)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
