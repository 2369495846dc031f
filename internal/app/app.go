package app

import (
	"context"
	"fmt"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billing-core/internal/application/service"
	"github.com/sangkips/billing-core/internal/config"
	domainRepo "github.com/sangkips/billing-core/internal/domain/repository"
	"github.com/sangkips/billing-core/internal/infrastructure/cache"
	"github.com/sangkips/billing-core/internal/infrastructure/database"
	"github.com/sangkips/billing-core/internal/infrastructure/lock"
	"github.com/sangkips/billing-core/internal/infrastructure/memory"
	"github.com/sangkips/billing-core/internal/infrastructure/repository"
	"github.com/sangkips/billing-core/internal/presentation/http/handler"
	"github.com/sangkips/billing-core/internal/presentation/http/routes"
	"github.com/sangkips/billing-core/pkg/utils"
	"github.com/sirupsen/logrus"
)

// App is the wired service: router, background janitor and the
// connections that must be closed on shutdown
type App struct {
	Router  *gin.Engine
	Billing *service.BillingService
	Janitor *service.IdempotencyJanitor

	closers []func() error
}

// Close releases database and redis connections
func (a *App) Close() {
	for _, c := range a.closers {
		_ = c()
	}
}

type storage struct {
	transactor  domainRepo.Transactor
	bills       domainRepo.BillRepository
	txns        domainRepo.TransactionRepository
	idempotency domainRepo.IdempotencyRepository
}

// New connects the configured backends and wires every component
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	a := &App{}

	store, err := a.openStorage(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Redis is optional; without it the summary cache is disabled and
	// account locks only serialize within this process
	var (
		summaryCache = cache.NewNoopSummaryCache()
		redisLock    *redislock.Client
	)
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, &cfg.Redis, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		summaryCache = cache.NewRedisSummaryCache(rdb, cfg.Billing.SummaryCacheTTL)
		redisLock = redislock.New(rdb)
	} else {
		log.Warn("REDIS_ADDRESS not set; summary cache disabled and account locks are process local")
	}

	ids, err := utils.NewIDGenerator(cfg.Billing.SnowflakeNode)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}

	// Initialize services
	billStore := service.NewBillStore(store.bills, ids, nil)
	ledger := service.NewTransactionLedger(store.txns, ids, cfg.Billing.HistoryPageSize, nil)
	a.Billing = service.NewBillingService(service.BillingServiceDeps{
		Transactor: store.transactor,
		Bills:      billStore,
		Allocator:  service.NewPaymentAllocator(billStore),
		Validator:  service.NewPaymentValidator(),
		Ledger:     ledger,
		Locker:     lock.NewLocker(redisLock, cfg.Billing.LockTTL, cfg.Billing.LockWait, log),
		Cache:      summaryCache,
		Logger:     log,
	})
	a.Janitor = service.NewIdempotencyJanitor(store.idempotency, cfg.Billing.JanitorInterval, log)

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, 0, cfg.JWT.Issuer)

	// Initialize handlers
	handlers := &routes.Handlers{
		Bill:        handler.NewBillHandler(a.Billing),
		Payment:     handler.NewPaymentHandler(a.Billing),
		Transaction: handler.NewTransactionHandler(a.Billing, service.NewStatementExporter(a.Billing)),
	}

	// Setup routes
	a.Router = routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: store.idempotency,
		Logger:          log,
	})
	return a, nil
}

func (a *App) openStorage(cfg *config.Config, log *logrus.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("Using in-memory storage; data is lost on restart")
		mem := memory.NewStore()
		return &storage{
			transactor:  mem.Transactor(),
			bills:       mem.Bills(),
			txns:        mem.Transactions(),
			idempotency: mem.IdempotencyKeys(),
		}, nil

	case "", "postgres":
		// Connect to database
		db, err := database.NewPostgresDB(&cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}

		// Run auto-migrations
		if err := database.AutoMigrate(db, log); err != nil {
			return nil, err
		}

		// Initialize repositories
		return &storage{
			transactor:  repository.NewTransactor(db),
			bills:       repository.NewBillRepository(db),
			txns:        repository.NewTransactionRepository(db),
			idempotency: repository.NewIdempotencyRepository(db),
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
}
