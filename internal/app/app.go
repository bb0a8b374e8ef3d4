// Package app wires repositories, services and HTTP handlers into a Fiber application.
package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/inventory"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App is the assembled storefront.
type App struct {
	Fiber    *fiber.App
	Products *services.ProductService
	Carts    *services.CartService
	Orders   *services.OrderService
	Auth     *services.AuthService
	Users    repositories.UserRepository
	Ledger   *inventory.Ledger

	// Events is nil when RabbitMQ is disabled.
	Events *rabbitmq.Client

	cfg   config.Config
	db    *gorm.DB
	redis *redis.Client
}

// New builds the application over an open, migrated database.
func New(cfg config.Config, db *gorm.DB) (*App, error) {
	a := &App{cfg: cfg, db: db}

	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	cartRepo, err := a.cartRepository()
	if err != nil {
		return nil, err
	}

	orderOpts := []services.OrderServiceOption{services.WithDefaultCountry(cfg.DefaultCountry)}
	if cfg.RabbitMQEnabled {
		client, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.EventsExchange,
			Queue:    cfg.EventsQueue,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		a.Events = client
		orderOpts = append(orderOpts, services.WithEventPublisher(client))
	}

	a.Users = userRepo
	a.Ledger = inventory.NewLedger(productRepo)
	a.Auth = services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	a.Products = services.NewProductService(productRepo, a.Ledger)
	a.Carts = services.NewCartService(cartRepo, productRepo, userRepo, a.Ledger)
	a.Orders = services.NewOrderService(orderRepo, productRepo, userRepo, a.Ledger, a.Carts, orderOpts...)

	a.Fiber = a.routes()
	return a, nil
}

func (a *App) cartRepository() (repositories.CartRepository, error) {
	switch a.cfg.CartStore {
	case config.CartStoreRedis:
		client, err := repositories.NewRedisClient(a.cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return repositories.NewRedisCartRepository(client, 2*time.Second), nil
	case config.CartStoreMemory:
		return repositories.NewMockCartRepository(), nil
	default:
		return repositories.NewGORMCartRepository(a.db), nil
	}
}

func (a *App) routes() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "storefront",
		// Route params are used as lock keys beyond the handler's lifetime.
		Immutable: true,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", a.handleHealth)

	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	handlers.NewAuthHandler(a.Auth).RegisterRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protected := apiV1.Group("", middleware.AuthRequired(a.Auth))
	handlers.NewProductHandler(a.Products).RegisterRoutes(protected)
	handlers.NewCartHandler(a.Carts).RegisterRoutes(protected)
	handlers.NewOrderHandler(a.Orders).RegisterRoutes(protected)

	return app
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status, health, dbState := fiber.StatusOK, "healthy", "connected"
	if sqlDB, err := a.db.DB(); err != nil || sqlDB.Ping() != nil {
		status, health, dbState = fiber.StatusServiceUnavailable, "degraded", "unreachable"
	}
	events := "disabled"
	if a.Events != nil {
		events = "enabled"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":     health,
		"time":       time.Now().Format(time.RFC3339),
		"database":   dbState,
		"cart_store": a.cfg.CartStore,
		"events":     events,
	})
}

// Close releases the broker and cache connections. The database is owned by the caller.
func (a *App) Close() error {
	var errs []error
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			errs = append(errs, err)
		}
		a.Events = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
		a.redis = nil
	}
	if err := errors.Join(errs...); err != nil {
		log.Printf("Error while closing application resources: %v", err)
		return err
	}
	return nil
}
