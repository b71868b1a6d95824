package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/adapters/http"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/adapters/oracle"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/application"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/contracts"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/ports"
)

type Runtime struct {
	cfg          Config
	logger       *slog.Logger
	httpServer   *http.Server
	grpcServer   *grpc.Server
	grpcLis      net.Listener
	outbox       *eventadapter.OutboxWorker
	recalcWorker *eventadapter.RecalcWorker
	cleanupFn    func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	var closers []io.Closer

	// The learned state survives restarts only when Redis is configured; the
	// memory store is for local runs and tests.
	stateStore := ports.StateStore(cache.NewMemoryStateStore())
	if cfg.RedisURL != "" {
		redisClient, redisErr := cache.Connect(ctx, cfg.RedisURL)
		if redisErr != nil {
			_ = sqlDB.Close()
			return nil, redisErr
		}
		stateStore = cache.NewRedisStateStore(redisClient)
		closers = append(closers, redisClient)
	} else {
		logger.WarnContext(ctx, "redis not configured, learned state held in memory")
	}

	publisher := ports.EventPublisher(eventadapter.NewLoggingPublisher(logger))
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			contracts.EventPredictionRecorded: "creative.predictions",
			contracts.EventOutcomeReconciled:  "creative.outcomes",
			contracts.EventWeightsAdjusted:    "creative.weights",
			contracts.EventScoresRecalculated: "creative.recalculations",
			contracts.EventSnapshotRestored:   "creative.snapshots",
		})
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}
	}

	recalcQueue := eventadapter.NewRecalcQueue(cfg.RecalcQueueSize)

	repos := postgres.NewRepositories(db, cfg.HistoryLimit)
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:    cfg.ServiceID,
			LearningRate:   cfg.LearningRate,
			HistoryLimit:   cfg.HistoryLimit,
			IdempotencyTTL: cfg.IdempotencyTTL,
			OracleTimeout:  cfg.OracleTimeout,
			NeighborCount:  cfg.NeighborCount,
			MinSimilarity:  cfg.MinSimilarity,
		},
		Logger:      logger,
		Ads:         repos.Ads,
		Predictions: repos.Predictions,
		Patterns:    repos.Patterns,
		Discovered:  repos.Discovered,
		History:     repos.History,
		Snapshots:   repos.Snapshots,
		RecalcLog:   repos.RecalcLog,
		Idempotency: repos.Idempotency,
		Outbox:      repos.Outbox,
		State:       stateStore,
		Oracle:      oracle.NewHTTPClient(oracle.Config{BaseURL: cfg.OracleURL, APIKey: cfg.OracleAPIKey}),
		Recalc:      recalcQueue,
	})

	handler := httpadapter.NewHandler(service, cfg.JWTSecret)
	router := httpadapter.NewRouter(handler, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.Register(grpcServer, grpcadapter.NewScoringInternalServer(service))
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		for _, closer := range closers {
			_ = closer.Close()
		}
		_ = sqlDB.Close()
		return nil, err
	}

	outbox := eventadapter.NewOutboxWorker(logger, repos.Outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	recalcWorker := eventadapter.NewRecalcWorker(logger, recalcQueue, service)

	return &Runtime{
		cfg:          cfg,
		logger:       logger,
		httpServer:   httpServer,
		grpcServer:   grpcServer,
		grpcLis:      lis,
		outbox:       outbox,
		recalcWorker: recalcWorker,
		cleanupFn: func(ctx context.Context) {
			for _, closer := range closers {
				_ = closer.Close()
			}
			_ = sqlDB.Close()
		},
	}, nil
}

// RunAPI serves HTTP and gRPC. The recalculation worker runs here too: its
// queue is an in-process channel fed by the same service instance.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 3)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := r.recalcWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

// RunWorker drains the transactional outbox.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)

	go func() {
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		r.cleanupFn(context.Background())
		return nil
	case err := <-errCh:
		r.cleanupFn(context.Background())
		return err
	}
}
