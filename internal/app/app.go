package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/utafrali/ShopyKart/internal/auth"
	"github.com/utafrali/ShopyKart/internal/config"
	"github.com/utafrali/ShopyKart/internal/event"
	handler "github.com/utafrali/ShopyKart/internal/handler/http"
	"github.com/utafrali/ShopyKart/internal/repository"
	"github.com/utafrali/ShopyKart/internal/repository/memory"
	mongorepo "github.com/utafrali/ShopyKart/internal/repository/mongo"
	redisrepo "github.com/utafrali/ShopyKart/internal/repository/redis"
	"github.com/utafrali/ShopyKart/internal/service"
	"github.com/utafrali/ShopyKart/pkg/database"
	"github.com/utafrali/ShopyKart/pkg/health"
	pkgkafka "github.com/utafrali/ShopyKart/pkg/kafka"
	"github.com/utafrali/ShopyKart/pkg/middleware"
	"github.com/utafrali/ShopyKart/pkg/tracing"
)

const (
	serviceName    = "storefront"
	serviceVersion = "0.1.0"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	mongoClient    *mongo.Client
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

type repositories struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	accounts repository.AccountRepository
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Tracing is a no-op unless OTEL_ENABLED is set.
	tracingCfg := tracing.DefaultConfig(serviceName)
	tracingCfg.ServiceVersion = serviceVersion
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.OTelEndpoint
	tracingCfg.SampleRate = cfg.OTelSampleRate
	tracingCfg.Enabled = cfg.OTelEnabled
	shutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = shutdown

	healthHandler := health.NewHandler(serviceVersion)

	repos, err := a.openStore(ctx, healthHandler)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	if cfg.RedisEnabled {
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB

		rdb, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		repos.products = redisrepo.NewProductCache(repos.products, rdb, cfg.ProductCacheDuration(), logger)
		healthHandler.Register("redis", database.RedisPing(rdb))
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
	}

	var publisher event.Publisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		healthHandler.Register("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("kafka disabled, domain events are dropped")
	}
	eventProducer := event.NewProducer(publisher, logger)

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL())
	accountService := service.NewAccountService(repos.accounts, jwtManager, eventProducer, logger)
	svc := handler.Services{
		Carts:    service.NewCartService(repos.orders, repos.products, eventProducer, logger, cfg.CartMaxRetries),
		Orders:   service.NewOrderService(repos.orders, eventProducer, logger, cfg.CartMaxRetries),
		Products: service.NewProductService(repos.products, eventProducer, logger),
		Accounts: accountService,
	}

	if cfg.AdminEmail != "" {
		created, err := accountService.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("bootstrap admin account: %w", err)
		}
		if created {
			logger.Info("bootstrap admin account created", slog.String("email", cfg.AdminEmail))
		}
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(svc, handler.RouterConfig{
		Tokens:         jwtManager.Validator(),
		Health:         healthHandler,
		CORS:           corsCfg,
		RequestTimeout: 30 * time.Second,
		AuthRateLimit:  cfg.AuthRateLimit(),
		Logger:         logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

// openStore selects the persistence backend named by STORE_BACKEND.
func (a *App) openStore(ctx context.Context, healthHandler *health.Handler) (repositories, error) {
	if a.cfg.StoreBackend == config.BackendMemory {
		a.logger.Warn("using in-memory store, data is lost on restart")
		return repositories{
			orders:   memory.NewOrderRepository(),
			products: memory.NewProductRepository(),
			accounts: memory.NewAccountRepository(),
		}, nil
	}

	mongoCfg := database.DefaultMongoConfig()
	mongoCfg.URI = a.cfg.MongoURI
	mongoCfg.Database = a.cfg.MongoDatabase
	mongoCfg.SlowCommandThresh = a.cfg.SlowCommandThreshold()

	client, err := database.NewMongoClient(ctx, mongoCfg, a.logger)
	if err != nil {
		return repositories{}, fmt.Errorf("connect to mongodb: %w", err)
	}
	a.mongoClient = client

	db := client.Database(a.cfg.MongoDatabase)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		return repositories{}, fmt.Errorf("ensure mongodb indexes: %w", err)
	}
	healthHandler.Register("mongodb", database.MongoPing(client))
	a.logger.Info("connected to MongoDB", slog.String("database", a.cfg.MongoDatabase))

	return repositories{
		orders:   mongorepo.NewOrderRepository(db),
		products: mongorepo.NewProductRepository(db),
		accounts: mongorepo.NewAccountRepository(db),
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeResources()
	a.logger.Info("application shutdown complete")
	return nil
}

// closeResources releases every client opened so far. Nil clients are skipped.
func (a *App) closeResources() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.logger.Error("mongodb disconnect error", slog.String("error", err.Error()))
		}
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
