package di

import (
	"github.com/novatix/novatix-backend/internal/events"
	"github.com/novatix/novatix-backend/internal/gateway"
	"github.com/novatix/novatix-backend/internal/handler"
	"github.com/novatix/novatix-backend/internal/repository"
	"github.com/novatix/novatix-backend/internal/service"
	"github.com/novatix/novatix-backend/internal/worker"
	"github.com/novatix/novatix-backend/pkg/config"
	"github.com/novatix/novatix-backend/pkg/database"
	"github.com/novatix/novatix-backend/pkg/logger"
	"github.com/novatix/novatix-backend/pkg/redis"
)

// Container holds all dependencies for the service
type Container struct {
	// Infrastructure
	DB        *database.PostgresDB
	Redis     *redis.Client
	Publisher events.Publisher

	// Repositories
	EventRepo      repository.EventRepository
	CreditRepo     repository.CreditAccountRepository
	MembershipRepo repository.MembershipRepository

	// Services
	CollabService     service.CollabService
	LedgerService     service.LedgerService
	GenerationService service.GenerationService

	// Handlers
	HealthHandler     *handler.HealthHandler
	CollabHandler     *handler.CollabHandler
	GenerationHandler *handler.GenerationHandler

	// Workers
	ReclaimWorker *worker.ReclaimWorker
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *database.PostgresDB
	Redis     *redis.Client
	Publisher events.Publisher
	Provider  gateway.GenerationGateway
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:        cfg.DB,
		Redis:     cfg.Redis,
		Publisher: cfg.Publisher,
	}

	// Initialize repositories
	c.EventRepo = repository.NewPostgresEventRepository(cfg.DB.Pool())
	c.CreditRepo = repository.NewPostgresCreditAccountRepository(cfg.DB.Pool())
	c.MembershipRepo = repository.NewPostgresMembershipRepository(cfg.DB.Pool())

	// Initialize services
	c.CollabService = service.NewCollabService(c.EventRepo, c.MembershipRepo, c.Publisher, cfg.Logger)
	c.LedgerService = service.NewLedgerService(
		c.CreditRepo,
		c.Publisher,
		cfg.Logger,
		cfg.Config.Ledger.ReservationTTL,
		cfg.Config.Ledger.ResetInterval,
	)
	c.GenerationService = service.NewGenerationService(
		c.LedgerService,
		cfg.Provider,
		cfg.Logger,
		cfg.Config.AI.RequestTimeout,
	)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.CollabHandler = handler.NewCollabHandler(c.CollabService)
	c.GenerationHandler = handler.NewGenerationHandler(c.GenerationService, c.LedgerService)

	// Initialize workers
	c.ReclaimWorker = worker.NewReclaimWorker(c.LedgerService, cfg.Logger, cfg.Config.Ledger.ReclaimInterval)

	return c
}
