package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mercato/storefront-identity/internal/core/port"
	"github.com/mercato/storefront-identity/internal/infra/config"
	"github.com/mercato/storefront-identity/internal/infra/database"
	kafkainfra "github.com/mercato/storefront-identity/internal/infra/kafka"
	"github.com/mercato/storefront-identity/internal/infra/logger"
	redisinfra "github.com/mercato/storefront-identity/internal/infra/redis"
	"github.com/mercato/storefront-identity/internal/infra/security"
	"github.com/mercato/storefront-identity/internal/infra/telemetry"
	postgresrepo "github.com/mercato/storefront-identity/internal/repository/postgres"
	redisrepo "github.com/mercato/storefront-identity/internal/repository/redis"
	"github.com/mercato/storefront-identity/internal/transport/http/middleware"
	"github.com/mercato/storefront-identity/internal/transport/http/routes"
	"github.com/mercato/storefront-identity/internal/usecase"
)

// Application bundles the wired service with its lifecycle handles.
type Application struct {
	cfg       *config.AppConfig
	engine    *gin.Engine
	logger    *zap.Logger
	pool      *pgxpool.Pool
	redis     *redisinfra.Client
	producer  *kafkainfra.Producer
	telemetry *telemetry.TracerProvider
}

// New wires the full application graph from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	hasher, err := security.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	tokens, err := security.NewTokenService(security.TokenServiceOptions{
		Secret:            cfg.Auth.TokenSecret,
		TTL:               cfg.Auth.TokenTTL,
		AllowedAlgorithms: cfg.Auth.AllowedAlgorithms,
		AllowUnsigned:     cfg.Auth.AllowUnsignedTokens,
	})
	if err != nil {
		redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init token service: %w", err)
	}

	if tokens.UnsignedAllowed() {
		log.Warn("unsigned credential tokens enabled; any client can mint accepted tokens")
	}

	sessions := security.NewSessionCodec()
	resolver := security.NewCredentialResolver(tokens, sessions)

	repos := postgresrepo.NewRepositories(pool)

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Hour
	}
	rateLimitStore := redisrepo.NewAttemptStore(redisClient.Client(), redisrepo.AttemptStoreConfig{
		KeyPrefix: "identity:rate-limit",
		TTL:       rateLimitWindow * 2,
	})

	authService := usecase.NewAuthService(repos.Users, hasher, tokens, sessions, resolver, eventPublisher, log)
	passwordResetService := usecase.NewPasswordResetService(cfg, repos.Users, rateLimitStore, eventPublisher, hasher, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Metrics:  metrics,
		Database: pool,
		Cache:    redisClient,
		Services: routes.ServiceSet{
			Auth:          authService,
			PasswordReset: passwordResetService,
		},
	})

	return &Application{
		cfg:       cfg,
		engine:    engine,
		logger:    log,
		pool:      pool,
		redis:     redisClient,
		producer:  producer,
		telemetry: tracer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()
	defer func() {
		if a.telemetry != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.telemetry.Shutdown(shutdownCtx)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting storefront identity API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
