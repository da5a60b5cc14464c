package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"boulangerie/app/controller"
	"boulangerie/app/router"
	"boulangerie/cart"
	"boulangerie/config"
	"boulangerie/db"
	"boulangerie/logging"
	"boulangerie/repository"
	"boulangerie/service"
	"boulangerie/storage"
)

// Deps are the collaborators the HTTP surface is built from
type Deps struct {
	Products  repository.ProductRepositoryInterface
	Orders    repository.OrderRepositoryInterface
	Snapshots storage.SnapshotStore
	Notifier  service.Notifier
}

// App is the wired application
type App struct {
	Handler       http.Handler
	Sessions      *cart.Sessions
	Notifications *service.NotificationCenter

	cartIdle time.Duration
	closers  []func() error
}

// Build wires services, controllers and routes on top of deps
func Build(cfg *config.Config, deps Deps) *App {
	secret := cfg.JWTSecret
	if secret == "" {
		// tokens do not survive a restart in development
		secret = uuid.NewString()
		logging.L().Warnf("⚠️  JWT_SECRET not set, using a random secret")
	}

	sessions := cart.NewSessions(deps.Snapshots)
	notifications := service.NewNotificationCenter(deps.Orders, cfg.NotifyInterval)
	checkout := service.NewCheckoutService(sessions, deps.Orders, notifications, deps.Notifier)
	auth := service.NewAuthService(cfg.AdminEmail, cfg.AdminPassword, secret, cfg.TokenTTL)
	images := service.NewImageService(deps.Products, cfg.ImageCacheDir)
	catalog := service.NewCatalogService(deps.Products, cfg.ChromePath)

	if err := images.EnsureCacheDir(); err != nil {
		logging.L().Warnf("⚠️  %v", err)
	}

	// Create controllers
	controllers := &router.Controllers{
		Product: controller.NewProductController(deps.Products, images),
		Cart:    controller.NewCartController(sessions, deps.Products, checkout),
		Order:   controller.NewOrderController(deps.Orders, checkout, notifications),
		Admin:   controller.NewAdminController(auth, notifications, catalog),
	}

	return &App{
		Handler:       router.SetupRoutes(http.NewServeMux(), controllers, auth),
		Sessions:      sessions,
		Notifications: notifications,
		cartIdle:      cfg.CartIdleTime,
	}
}

func openSnapshots(cfg *config.Config) (storage.SnapshotStore, error) {
	if cfg.CartStore == "memory" {
		logging.L().Infof("🛒 Cart snapshots kept in memory")
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.OpenSQLite(cfg.CartSQLitePath)
	if err != nil {
		return nil, err
	}
	logging.L().Infof("🛒 Cart snapshots stored in %s", cfg.CartSQLitePath)
	return store, nil
}

// Initialize connects the database, the snapshot store and the notifiers,
// then builds the application
func Initialize(ctx context.Context, cfg *config.Config) (*App, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	// Initialize database connection
	if err := db.InitDB(ctx, dsn); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	closers := []func() error{db.CloseDB}

	snapshots, err := openSnapshots(cfg)
	if err != nil {
		_ = db.CloseDB()
		return nil, fmt.Errorf("failed to open cart store: %w", err)
	}
	closers = append(closers, snapshots.Close)

	notifiers := service.MultiNotifier{service.LogNotifier{}}
	if cfg.AMQPURL != "" {
		publisher, err := service.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			logging.L().Warnf("⚠️  RabbitMQ unavailable, orders will only be logged: %v", err)
		} else {
			notifiers = append(notifiers, publisher)
			closers = append(closers, publisher.Close)
		}
	}

	a := Build(cfg, Deps{
		Products:  repository.NewProductRepository(),
		Orders:    repository.NewOrderRepository(),
		Snapshots: snapshots,
		Notifier:  notifiers,
	})
	a.closers = closers
	return a, nil
}

// Run starts the background new-order watcher and the idle cart sweep
// until ctx is done
func (a *App) Run(ctx context.Context) {
	go a.Notifications.Run(ctx)
	if a.cartIdle > 0 {
		go a.sweepCarts(ctx)
	}
}

// sweepCarts ends cart sessions idle for longer than cartIdle. Their
// snapshots are kept and restored on the next request.
func (a *App) sweepCarts(ctx context.Context) {
	ticker := time.NewTicker(a.cartIdle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Sessions.EvictIdle(a.cartIdle); n > 0 {
				logging.L().Infof("🧹 Ended %d idle cart sessions, %d live", n, a.Sessions.Len())
			}
		}
	}
}

// Close releases sessions, stores and connections in reverse order of opening
func (a *App) Close() error {
	a.Sessions.CloseAll()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
