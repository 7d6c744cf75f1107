package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/usecase"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/wizard"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/port"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/service"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/infrastructure/adapter"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/infrastructure/cache"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/infrastructure/config"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/infrastructure/kafka"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/infrastructure/persistence/memory"
	pgRepo "github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/infrastructure/persistence/postgres"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/infrastructure/telemetry"
	grpcPresentation "github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/presentation/grpc"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/presentation/rest"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/auth"
	pkgkafka "github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/kafka"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/observability"
	pkgpostgres "github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/postgres"
)

var (
	healthcheck = flag.Bool("healthcheck", false, "check the local gRPC health service and exit")
	migrateDown = flag.Bool("migrate-down", false, "roll back all database migrations and exit")
)

func main() {
	flag.Parse()

	cmd := run
	switch {
	case *healthcheck:
		cmd = runHealthcheck
	case *migrateDown:
		cmd = runMigrateDown
	}
	if err := cmd(); err != nil {
		slog.Error("credit-engine exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: cfg.ServiceName,
	})

	logger.Info("starting credit-engine",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"storage", cfg.StorageDriver,
		"timezone", cfg.Timezone,
	)

	// Tracing and metrics.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck // best-effort flush
	metrics, err := telemetry.NewMetrics(meterProvider)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	checks := make(map[string]rest.Check)

	// Storage.
	var (
		repo   port.LoanConfigurationRepository
		income port.IncomeSignalSource
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := memory.New()
		repo, income = store, store
		logger.Warn("using in-memory storage, data will not survive a restart")
	default:
		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		defer dbCancel()

		pgCfg := cfg.DB.Postgres(cfg.ServiceName)
		pool, err := pkgpostgres.NewPool(dbCtx, pgCfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to database")

		if err := pkgpostgres.RunMigrations(pgCfg.DSN(), pgRepo.Migrations()); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		repo = pgRepo.NewLoanConfigurationRepo(pool)
		income = pgRepo.NewBankSnapshotSource(pool)
		checks["postgres"] = func(ctx context.Context) error { return pkgpostgres.HealthCheck(ctx, pool) }
	}

	// Income cache.
	var incomeCache *cache.IncomeSnapshotCache
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		incomeCache = cache.NewIncomeSnapshotCache(client, income, cfg.Redis.TTL, logger)
		income = incomeCache
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		logger.Info("income snapshot cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	// Event publishing.
	var publisher port.EventPublisher = adapter.NewLogEventPublisher(logger)
	var consumer *pkgkafka.Consumer
	if cfg.Kafka.Enabled() {
		kcfg := cfg.Kafka.Client(cfg.ServiceName)
		producer, err := pkgkafka.NewProducer(kcfg)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer producer.Close()
		publisher = kafka.NewKafkaEventPublisher(producer, cfg.Kafka.Topic, logger)

		if incomeCache != nil {
			consumer, err = pkgkafka.NewConsumer(kcfg, cfg.Kafka.IncomeTopic,
				kafka.NewIncomeSnapshotHandler(incomeCache, logger), logger)
			if err != nil {
				return fmt.Errorf("create kafka consumer: %w", err)
			}
			defer consumer.Close()
		}
	} else {
		logger.Info("no kafka brokers configured, logging domain events")
	}

	// Domain services.
	calculator := service.NewFeeCalculator(cfg.Credit.Fees)
	scheduler := service.NewSalaryScheduler(cfg.Credit.MinLeadDays, loc)
	resolver := service.NewBorrowingCapResolver(cfg.Credit.Caps)
	engine := service.NewCreditDecisionEngine()
	provider := adapter.NewStubAssessmentProvider()

	// Use cases.
	resolveCap := usecase.NewResolveCapUseCase(income, resolver, publisher, metrics, cfg.IncomeFetchTimeout, time.Now, logger)
	registry := wizard.NewRegistry(wizard.Dependencies{
		Repository: repo,
		Caps:       resolveCap,
		Calculator: calculator,
		Scheduler:  scheduler,
		Publisher:  publisher,
		Metrics:    metrics,
		Clock:      time.Now,
		Logger:     logger,
	})

	useCases := grpcPresentation.UseCases{
		Start:  usecase.NewStartConfigurationUseCase(registry, provider, engine, logger),
		Submit: usecase.NewSubmitStepUseCase(registry),
		GoBack: usecase.NewGoBackUseCase(registry),
		Get:    usecase.NewGetConfigurationUseCase(registry),
		Quote:  usecase.NewQuoteRepaymentUseCase(calculator, scheduler, time.Now),
		Assess: usecase.NewAssessBorrowerUseCase(provider, engine, publisher, metrics, time.Now, logger),
	}

	// JWT service (validation-only: public key preferred, secret as fallback).
	jwtSvc, err := newJWTService(cfg.JWT)
	if err != nil {
		return err
	}

	// gRPC server.
	cfg.GRPC, err = ensureDevCerts(cfg.GRPC, logger)
	if err != nil {
		return err
	}
	handler := grpcPresentation.NewCreditEngineHandler(useCases, logger)
	grpcServer, err := grpcPresentation.NewServer(handler, logger, jwtSvc, grpcPresentation.ServerOptions{
		TLSCertFile:  cfg.GRPC.TLSCertFile,
		TLSKeyFile:   cfg.GRPC.TLSKeyFile,
		ClientCAFile: cfg.GRPC.ClientCAFile,
		Reflection:   cfg.GRPC.Reflection,
	})
	if err != nil {
		return err
	}

	// HTTP server (health checks and metrics).
	mux := http.NewServeMux()
	rest.NewHealthHandler(logger, checks, metricsHandler).RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start servers.
	errCh := make(chan error, 3)

	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if consumer != nil {
		go func() {
			if err := consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("income consumer error: %w", err)
			}
		}()
	}

	// Wait for shutdown signal.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}

	// Graceful shutdown.
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("credit-engine stopped")
	return runErr
}

func newJWTService(cfg config.JWTConfig) (*auth.JWTService, error) {
	jwtCfg := auth.JWTConfig{Issuer: cfg.Issuer}
	switch {
	case cfg.PublicKey != "":
		jwtCfg.PublicKeyPEM = cfg.PublicKey
	case cfg.PublicKeyFile != "":
		keyData, err := auth.LoadKeyFromFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load JWT public key file: %w", err)
		}
		jwtCfg.PublicKeyPEM = string(keyData)
	default:
		jwtCfg.Secret = cfg.Secret
	}

	svc, err := auth.NewJWTService(jwtCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize JWT service: %w", err)
	}
	return svc, nil
}
