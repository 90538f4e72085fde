package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hrgate/auth-gateway/config"
	database "github.com/hrgate/auth-gateway/internal/core"
	"github.com/hrgate/auth-gateway/internal/core/repository"
	"github.com/hrgate/auth-gateway/internal/fetchcache"
	"github.com/hrgate/auth-gateway/internal/logger"
	logicv1 "github.com/hrgate/auth-gateway/internal/logic/v1"
	"github.com/hrgate/auth-gateway/internal/notify"
	"github.com/hrgate/auth-gateway/internal/session"
	"github.com/hrgate/auth-gateway/internal/token"
	webv1 "github.com/hrgate/auth-gateway/internal/web/v1"
	"github.com/hrgate/auth-gateway/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	// Initialize Zerolog with LOG_LEVEL from config
	logger.Setup(cfg.Logging.Level)

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Msg("Service starting")

	// Initialize OpenTelemetry tracing
	var tp interface{ Shutdown(context.Context) error }
	if cfg.Tracing.Enabled {
		provider, err := middleware.InitTracing(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing")
		} else {
			tp = provider
			log.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sample_rate", cfg.Tracing.SampleRate).
				Msg("Tracing initialized")
		}
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Initialize Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize profiling")
		} else {
			log.Info().
				Str("endpoint", cfg.Profiling.Endpoint).
				Msg("Profiling initialized")
			defer middleware.StopProfiling()
		}
	} else {
		log.Info().Msg("Profiling disabled (PROFILING_ENABLED=false)")
	}

	// Load the token signing key. An unreadable key is a configuration
	// error: fail fatally before accepting any traffic.
	signer, err := token.NewSigner(cfg.Auth.PrivateKeyPath, cfg.Auth.TokenIssuer, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Auth.PrivateKeyPath).Msg("Failed to load private key")
	}
	log.Info().Str("issuer", cfg.Auth.TokenIssuer).Msg("Token signer initialized")

	// Initialize database connection pool (pgx)
	pool, err := database.Connect(context.Background(), cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("Database connection pool established")

	// Initialize redis for the external fetch cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")

	// Wire dependencies
	users := repository.NewUserRepository(pool)
	sessions := session.NewStore(repository.NewSessionRepository(pool), cfg.Auth.SessionTTL)

	cacheOpts := []fetchcache.Option{
		fetchcache.WithCallTimeout(cfg.HR.CallTimeout),
	}
	telegram := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if telegram.Enabled() {
		cacheOpts = append(cacheOpts, fetchcache.WithNotifier(telegram))
		log.Info().Msg("Telegram outage alerts enabled")
	}
	cache := fetchcache.New(rdb, cacheOpts...)

	authService := logicv1.NewAuthService(users, sessions, signer, cache, logicv1.HRSettings{
		BaseURL:    cfg.HR.BaseURL,
		FreshTTL:   cfg.HR.FreshTTL,
		MaxRetries: cfg.HR.MaxRetries,
	}, cfg.Auth.BcryptCost)

	r := gin.Default()

	var isShuttingDown atomic.Bool

	// Tracing middleware
	r.Use(middleware.TracingMiddleware(cfg.Service.Name))

	// Logging middleware
	r.Use(middleware.LoggingMiddleware())

	// Prometheus middleware
	r.Use(middleware.PrometheusMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Readiness check
	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (canonical API - frontend-aligned)
	handler := webv1.NewHandler(authService)
	handler.RegisterRoutes(r.Group("/api/v1"))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Service.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Service.Port).Msg("Starting auth gateway")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	// Fail readiness first and wait for propagation (K8s rollout drain).
	isShuttingDown.Store(true)
	drainDelay := cfg.GetReadinessDrainDelayDuration()
	if drainDelay > 0 {
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay started")
		time.Sleep(drainDelay)
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay completed")
	}

	// Shutdown context with configurable timeout
	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down server...")

	// 1. Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	// 2. Close database connections
	pool.Close()
	log.Info().Msg("Database pool closed")

	// 3. Close redis
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Redis close error")
	} else {
		log.Info().Msg("Redis connection closed")
	}

	// 4. Shutdown tracer
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
}
