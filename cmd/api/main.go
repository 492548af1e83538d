package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/wms-platform/fulfillment-service/internal/api/handlers"
	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/internal/infrastructure/memory"
	mongoStore "github.com/wms-platform/fulfillment-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/fulfillment-service/internal/infrastructure/redis"
	"github.com/wms-platform/fulfillment-service/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-service/pkg/kafka"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
	"github.com/wms-platform/fulfillment-service/pkg/middleware"
	"github.com/wms-platform/fulfillment-service/pkg/mongodb"
	"github.com/wms-platform/fulfillment-service/pkg/outbox"
	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

const serviceName = "fulfillment-service"

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(context.Background(), config, appDependencies{}, signalCh); err != nil {
		os.Exit(1)
	}
}

type tracerProvider interface {
	Shutdown(ctx context.Context) error
}

type outboxPublisher interface {
	Start(ctx context.Context) error
	Stop() error
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type appDependencies struct {
	initTracing        func(ctx context.Context, cfg *tracing.Config) (tracerProvider, error)
	newMongoClient     func(ctx context.Context, cfg *mongodb.Config, m *metrics.Metrics) (*mongodb.Client, error)
	newRedisClient     func(ctx context.Context, cfg redis.Config) (*goredis.Client, error)
	newOutboxPublisher func(repo outbox.Repository, producer kafka.EventPublisher, logger *logging.Logger, m *metrics.Metrics, cfg *outbox.PublisherConfig) outboxPublisher
	newHTTPServer      func(addr string, handler http.Handler) httpServer
}

func defaultDependencies() appDependencies {
	return appDependencies{
		initTracing: func(ctx context.Context, cfg *tracing.Config) (tracerProvider, error) {
			return tracing.Initialize(ctx, cfg)
		},
		newMongoClient: mongodb.NewClient,
		newRedisClient: redis.NewClient,
		newOutboxPublisher: func(repo outbox.Repository, producer kafka.EventPublisher, logger *logging.Logger, m *metrics.Metrics, cfg *outbox.PublisherConfig) outboxPublisher {
			return outbox.NewPublisher(repo, producer, logger, m, cfg)
		},
		newHTTPServer: func(addr string, handler http.Handler) httpServer {
			return &http.Server{
				Addr:         addr,
				Handler:      handler,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
			}
		},
	}
}

func (d appDependencies) withDefaults() appDependencies {
	def := defaultDependencies()
	if d.initTracing == nil {
		d.initTracing = def.initTracing
	}
	if d.newMongoClient == nil {
		d.newMongoClient = def.newMongoClient
	}
	if d.newRedisClient == nil {
		d.newRedisClient = def.newRedisClient
	}
	if d.newOutboxPublisher == nil {
		d.newOutboxPublisher = def.newOutboxPublisher
	}
	if d.newHTTPServer == nil {
		d.newHTTPServer = def.newHTTPServer
	}
	return d
}

func run(ctx context.Context, config *Config, deps appDependencies, signalCh <-chan os.Signal) error {
	deps = deps.withDefaults()
	if config == nil {
		var err error
		if config, err = loadConfig(); err != nil {
			return err
		}
	}

	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()
	logger.Info("Starting fulfillment-service API", "storage", config.StorageDriver)

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tp, err := deps.initTracing(ctx, tracingConfig)
	if err != nil {
		// Continue without tracing
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))
	readiness := map[string]func(context.Context) error{}

	var uow domain.UnitOfWork
	switch config.StorageDriver {
	case StorageMemory:
		uow = memory.NewStore()
		logger.Warn("Using in-memory storage; events are not relayed to Kafka")
	default:
		mongoClient, err := deps.newMongoClient(ctx, config.MongoDB, m)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to MongoDB")
			return fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		defer mongoClient.Close(context.Background())
		logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)
		readiness["mongodb"] = mongoClient.HealthCheck

		store := mongoStore.NewStore(mongoClient, cloudevents.NewEventFactory(cloudevents.SourceFulfillment))
		if err := store.EnsureIndexes(ctx); err != nil {
			logger.WithError(err).Warn("Failed to create indexes")
		}
		uow = store

		producer := kafka.NewProducer(config.Kafka)
		defer func() { _ = producer.Close() }()
		logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

		publisher := deps.newOutboxPublisher(
			store.Outbox(),
			kafka.NewCircuitBreakerProducer(producer, logger, m),
			logger,
			m,
			outbox.DefaultPublisherConfig(),
		)
		if err := publisher.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start outbox publisher")
			return fmt.Errorf("failed to start outbox publisher: %w", err)
		}
		defer func() { _ = publisher.Stop() }()
		logger.Info("Outbox publisher started")
	}

	var locker domain.Locker = application.NoopLocker{}
	if config.Redis != nil {
		client, err := deps.newRedisClient(ctx, *config.Redis)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to Redis")
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		locker = redis.NewLocker(client)
		readiness["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		logger.Info("Redis locker initialized", "addr", config.Redis.Addr)
	}

	observer := application.NewObserver(logger, m)
	ledger := application.NewLedger()
	routes := application.NewRouteStops()
	recorder := application.NewRecorder(config.UnitPenalty)

	h := handlers.New(handlers.Services{
		Pedidos:        application.NewPedidoService(uow, ledger, observer),
		Conferencias:   application.NewConferenciaService(uow, ledger, recorder, routes, observer),
		Transportes:    application.NewTransporteService(uow, ledger, recorder, routes, observer),
		Rotas:          application.NewRotaService(uow, ledger, routes, observer),
		Separacoes:     application.NewSeparacaoService(uow, ledger, observer),
		Excecoes:       application.NewExcecaoService(uow, observer),
		Recebimentos:   application.NewRecebimentoService(uow, ledger, locker, config.LockTTL, observer, logger),
		Transferencias: application.NewTransferenciaService(uow, observer),
	})

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger, m))

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, readiness))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	h.RegisterRoutes(router.Group("/api/v1"))

	srv := deps.newHTTPServer(config.ServerAddr, router)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	if signalCh == nil {
		signalCh = make(chan os.Signal, 1)
	}
	select {
	case <-signalCh:
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
	return nil
}
