package cmd

import (
	"context"
	"fmt"
	"net/http"

	"orderlifecycle/api"
	"orderlifecycle/api/health"
	apiorder "orderlifecycle/api/order"
	orderapp "orderlifecycle/application/order"
	"orderlifecycle/config"
	orderdomain "orderlifecycle/domain/order"
	"orderlifecycle/domain/shared"
	"orderlifecycle/infrastructure/persistence/memory"
	"orderlifecycle/infrastructure/persistence/retry"
	"orderlifecycle/infrastructure/persistence/sqlstore"
	"orderlifecycle/pkg/logger"
	"orderlifecycle/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// storage is the set of store components the engine runs on.
type storage struct {
	db         *gorm.DB
	orders     orderdomain.Repository
	allocator  orderdomain.SequenceAllocator
	uowFactory shared.UnitOfWorkFactory
	checks     map[string]health.Pinger
}

// AppBuilder builds an App from configuration
type AppBuilder struct {
	cfg      *config.Config
	registry *prometheus.Registry
	storage  *storage
}

// NewBuilder creates a new AppBuilder
func NewBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

// WithRegistry overrides the metrics registry; mostly for tests.
func (b *AppBuilder) WithRegistry(reg *prometheus.Registry) *AppBuilder {
	b.registry = reg
	return b
}

// Build creates the App instance. The logger must already be initialised.
func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	logger.Info("Building application",
		zap.String("app", b.cfg.App.Name),
		zap.String("version", b.cfg.App.Version),
		zap.String("env", b.cfg.App.Env),
		zap.String("storage", b.cfg.Database.Type))

	st, err := b.initStorage(ctx)
	if err != nil {
		return nil, err
	}
	b.storage = st

	if b.registry == nil && b.cfg.Metrics.Enabled {
		b.registry = metrics.NewRegistry()
	}

	translator, err := orderapp.NewTranslator(b.cfg.App.Locale)
	if err != nil {
		return nil, fmt.Errorf("init translator: %w", err)
	}
	opts := []orderapp.Option{orderapp.WithTranslator(translator)}
	if b.registry != nil {
		opts = append(opts, orderapp.WithMetrics(metrics.NewOrderMetrics(b.registry)))
	}
	orderService := orderapp.NewApplicationService(st.orders, st.allocator, st.uowFactory, opts...)

	router := api.NewRouter(
		b.cfg,
		b.registry,
		health.NewController(b.cfg, st.checks),
		apiorder.NewController(orderService),
	)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + b.cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  b.cfg.Server.ReadTimeout,
		WriteTimeout: b.cfg.Server.WriteTimeout,
	}

	return &App{
		config: b.cfg,
		router: router,
		server: server,
		db:     st.db,
	}, nil
}

func (b *AppBuilder) initStorage(ctx context.Context) (*storage, error) {
	retryConfig := retry.FromAppConfig(b.cfg)

	switch b.cfg.Database.Type {
	case "", "memory":
		logger.Info("Using in-memory order store")
		return &storage{
			orders:     memory.NewOrderRepository(),
			allocator:  memory.NewSequenceAllocator(),
			uowFactory: memory.NewUnitOfWorkFactory(memory.NewOutbox(), retryConfig),
		}, nil
	case sqlstore.DriverMySQL, sqlstore.DriverPostgres:
		return b.initDatabase(ctx, retryConfig)
	default:
		return nil, fmt.Errorf("unsupported database type %q", b.cfg.Database.Type)
	}
}

func (b *AppBuilder) initDatabase(ctx context.Context, retryConfig retry.Config) (*storage, error) {
	db, err := sqlstore.FromAppConfig(b.cfg.Database).Connect()
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", b.cfg.Database.Type, err)
	}
	if err := sqlstore.Ping(ctx, db); err != nil {
		return nil, fmt.Errorf("ping %s: %w", b.cfg.Database.Type, err)
	}
	logger.Info("Connected to database", zap.String("driver", b.cfg.Database.Type))

	if b.cfg.Database.AutoMigrate {
		if err := sqlstore.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &storage{
		db:         db,
		orders:     sqlstore.NewOrderRepository(db),
		allocator:  sqlstore.NewSequenceAllocator(db),
		uowFactory: sqlstore.NewUnitOfWorkFactory(db, retryConfig),
		checks: map[string]health.Pinger{
			"database": func(ctx context.Context) error { return sqlstore.Ping(ctx, db) },
		},
	}, nil
}
