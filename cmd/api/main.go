// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/carterperez-dev/templates/user-api/internal/admin"
	"github.com/carterperez-dev/templates/user-api/internal/auth"
	"github.com/carterperez-dev/templates/user-api/internal/config"
	"github.com/carterperez-dev/templates/user-api/internal/core"
	"github.com/carterperez-dev/templates/user-api/internal/health"
	"github.com/carterperez-dev/templates/user-api/internal/middleware"
	"github.com/carterperez-dev/templates/user-api/internal/server"
	"github.com/carterperez-dev/templates/user-api/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	//nolint:errcheck // .env is optional
	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
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

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("span export disabled", "error", err)
		cfg.Otel.Enabled = false
		if telemetry, err = core.NewTelemetry(ctx, cfg.Otel, cfg.App); err != nil {
			return err
		}
	}
	logger.Info("tracer initialized",
		"service", telemetry.ServiceName,
		"exporting", telemetry.Exporting,
		"endpoint", cfg.Otel.Endpoint,
	)

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	hasher, err := core.NewPasswordHasher(cfg.Password)
	if err != nil {
		return err
	}
	logger.Info("password hasher initialized",
		"algorithm", hasher.Algorithm(),
	)

	issuer, err := auth.NewIssuer(cfg.JWT)
	if err != nil {
		return err
	}
	jwtManager, hasJWKS := issuer.(*auth.JWTManager)
	if hasJWKS {
		logger.Info("token issuer initialized",
			"algorithm", issuer.Algorithm(),
			"key_id", jwtManager.GetKeyID(),
		)
	} else {
		logger.Info("token issuer initialized",
			"algorithm", issuer.Algorithm(),
		)
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, hasher, issuer, logger)
	userHandler := user.NewHandler(userSvc)

	if cfg.Admin.Enabled() {
		created, seedErr := userSvc.EnsureUser(ctx, &user.User{
			Name:     cfg.Admin.Name,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		})
		if seedErr != nil {
			return seedErr
		}
		logger.Info("admin account checked",
			"email", cfg.Admin.Email,
			"created", created,
		)
	}

	authSvc := auth.NewService(
		auth.NewPasswordAuthenticator(userSvc, hasher),
		issuer,
		userSvc,
		auth.NewRedisRevocations(redis.Client, redis.Key()),
		logger,
	)
	loginAttempts := middleware.NewLimiter(
		redis.Client,
		redis.Key("ratelimit", "login"),
		middleware.PerMinute(
			cfg.RateLimit.LoginRequests,
			cfg.RateLimit.LoginBurst,
		),
	)
	authHandler := auth.NewHandler(authSvc, loginAttempts)

	healthHandler := health.NewHandler(
		health.Check{Name: "database", Checker: db},
		health.Check{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Users:      userSvc,
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		App:           cfg.App,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(telemetry.ServiceName + "/http"))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RateLimit(
		middleware.NewLimiter(
			redis.Client,
			redis.Key("ratelimit", "global"),
			middleware.PerMinute(cfg.RateLimit.Requests, cfg.RateLimit.Burst),
		),
		middleware.KeyByIP,
	))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	srv.RegisterRoutes()

	if hasJWKS {
		router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())
	}

	authenticator := middleware.Authenticator(authSvc, authSvc)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
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

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
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
