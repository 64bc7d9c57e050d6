// Command storefront-api serves the reference storefront backend.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/api"
	"github.com/minimal/storefront/internal/api/handler"
	"github.com/minimal/storefront/internal/core/backend"
	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/infrastructure/db/memory"
	"github.com/minimal/storefront/internal/infrastructure/db/mongo"
	"github.com/minimal/storefront/internal/pkg/config"
	"github.com/minimal/storefront/internal/pkg/validate"
	"github.com/minimal/storefront/pkg/logger"
)

const devJWTSecret = "storefront-dev-secret"

type repositories struct {
	users    ports.UserRepository
	products ports.ProductRepository
	carts    ports.CartRepository
	orders   ports.OrderRepository
}

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: "storefront-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret := cfg.Server.JWTSecret
	if secret == "" {
		if cfg.Production() {
			log.Fatal().Msg("JWT_SECRET is required in production")
		}
		log.Warn().Msg("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}

	repos, checks, cleanup := openStorage(ctx, cfg, log)
	defer cleanup()

	v := validate.New()
	router := api.NewRouter(api.Deps{
		Accounts: backend.NewAccountService(repos.users, v, backend.AccountConfig{
			JWTSecret:       secret,
			TokenTTL:        cfg.Server.TokenTTL,
			AdminSignupCode: cfg.Server.AdminSignupCode,
		}, logger.Component("accounts")),
		Catalog:    backend.NewCatalogService(repos.products, v, logger.Component("catalog")),
		Carts:      backend.NewCartService(repos.carts, repos.products, logger.Component("cart")),
		Orders:     backend.NewOrderService(repos.orders, repos.carts, logger.Component("orders")),
		Checks:     checks,
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
		Logger:     logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("storage", cfg.Server.Storage).Msg("listening")
		if err := router.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("bye")
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repositories, map[string]handler.Check, func()) {
	if cfg.Server.Storage == "memory" {
		log.Warn().Msg("using in-memory storage, data is lost on exit")
		return repositories{
			users:    memory.NewUserRepository(),
			products: memory.NewProductRepository(),
			carts:    memory.NewCartRepository(),
			orders:   memory.NewOrderRepository(),
		}, nil, func() {}
	}

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("connect to mongodb")
	}
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	return repositories{
		users:    mongo.NewUserRepository(db),
		products: mongo.NewProductRepository(db),
		carts:    mongo.NewCartRepository(db),
		orders:   mongo.NewOrderRepository(db),
	}, map[string]handler.Check{"mongodb": handler.MongoCheck(db)}, cleanup
}
