package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/adapter/ops"
	postgresRepo "github.com/finbase/paycore/internal/adapter/repository/postgres"
	redisRepo "github.com/finbase/paycore/internal/adapter/repository/redis"
	"github.com/finbase/paycore/internal/infrastructure/config"
	"github.com/finbase/paycore/internal/infrastructure/logger"
	"github.com/finbase/paycore/internal/infrastructure/metrics"
	"github.com/finbase/paycore/internal/infrastructure/notifier"
	"github.com/finbase/paycore/internal/infrastructure/postgres"
	"github.com/finbase/paycore/internal/infrastructure/rates"
	"github.com/finbase/paycore/internal/infrastructure/redis"
	"github.com/finbase/paycore/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Apply database migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to PostgreSQL
	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	connectCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Metrics
	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(log)

	balanceCache := redisRepo.NewBalanceCache(redisClient, cfg.SnapshotMaxAge)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	locks := redisRepo.NewLockCoordinator(redisClient, log)

	// Exchange rates
	var rateProvider usecase.RateProvider
	if cfg.RateProviderURL != "" {
		rateProvider = rates.NewHTTPProvider(cfg.RateProviderURL, cfg.RateProviderTimeout)
		log.Info().Str("url", cfg.RateProviderURL).Msg("using HTTP rate provider")
	} else {
		rateProvider = rates.NewStaticProvider(nil)
		log.Warn().Msg("no rate provider configured, cross-currency transfers will fail")
	}

	// Event notifications
	var publisher notifier.Publisher
	switch cfg.NotifierBackend {
	case "kafka":
		kafkaPublisher := notifier.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("using kafka notifier")
	default:
		publisher = notifier.NewLogPublisher(log)
	}

	dispatcher := notifier.NewDispatcher(notifier.Config{
		Publisher: publisher,
		Logger:    log,
		Metrics:   m,
	})
	go func() { _ = dispatcher.Start(ctx) }()

	// Fraud calibration
	fraudCfg := usecase.DefaultFraudConfig()
	fraudCfg.SuspiciousScore = cfg.FraudSuspiciousScore
	criticalAmount, err := decimal.NewFromString(cfg.FraudCriticalAmount)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.FraudCriticalAmount).Msg("invalid fraud critical amount")
	}
	fraudCfg.CriticalAmount = criticalAmount

	// Initialize use cases
	registry := usecase.NewRegistry(txManager, accountRepo, transactionRepo, idGen, dispatcher, m)
	converter := usecase.NewConverter(rateProvider)
	limits := usecase.NewLimitEnforcer(transactionRepo)
	fraud := usecase.NewFraudEngine(fraudCfg, transactionRepo)

	processor := usecase.NewProcessor(usecase.ProcessorConfig{
		TxManager:       txManager,
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		Locks:           locks,
		Limits:          limits,
		Fraud:           fraud,
		Converter:       converter,
		Cache:           balanceCache,
		Idempotency:     idempotencyStore,
		Retrier:         retrier,
		IDGen:           idGen,
		Notifier:        dispatcher,
		Metrics:         m,
		Logger:          log,
		LeaseTTL:        cfg.LockLeaseTTL,
		AcquireTimeout:  cfg.LockAcquireTimeout,
		IdempotencyTTL:  cfg.IdempotencyTTL,
	})

	reconciler := usecase.NewReconciler(usecase.ReconcilerConfig{
		TxManager:       txManager,
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		Cache:           balanceCache,
		Notifier:        dispatcher,
		Metrics:         m,
		Logger:          log,
		SnapshotMaxAge:  cfg.SnapshotMaxAge,
		SweepInterval:   cfg.ReconcileInterval,
	})
	go func() { _ = reconciler.Run(ctx) }()

	// HTTP server: health, metrics, reconciliation triggers, /v1 API
	router := ops.NewRouter(ops.RouterConfig{
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		Registry:        registry,
		Processor:       processor,
		Converter:       converter,
		Reconciler:      reconciler,
		Postgres:        pool,
		Redis: ops.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
		Logger: log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.OpsPort),
		Handler:      router,
		ReadTimeout:  cfg.OpsReadTimeout,
		WriteTimeout: cfg.OpsWriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.OpsPort).Msg("starting ops server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ops server failed")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.OpsShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server forced to shutdown")
	}

	// Flush buffered events before exiting
	dispatcher.Wait()

	log.Info().Msg("server stopped")
}
