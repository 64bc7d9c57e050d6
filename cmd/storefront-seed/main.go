// Command storefront-seed fills the catalog with generated products through
// the public API, signed in as an administrator.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/minimal/storefront/internal/core/service"
	"github.com/minimal/storefront/internal/infrastructure/db/memory"
	"github.com/minimal/storefront/internal/infrastructure/httpclient"
	"github.com/minimal/storefront/internal/pkg/config"
	"github.com/minimal/storefront/internal/pkg/validate"
	"github.com/minimal/storefront/internal/seed"
	"github.com/minimal/storefront/pkg/logger"
)

func main() {
	count := flag.Int("n", 20, "number of products to create")
	seedValue := flag.Uint64("seed", 0, "generator seed, 0 for random")
	username := flag.String("user", "admin", "administrator username")
	password := flag.String("password", os.Getenv("SEED_PASSWORD"), "administrator password")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "storefront-seed"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := memory.NewIdentityStore()
	client, err := httpclient.New(httpclient.Config{
		BaseURL:   cfg.Client.APIURL,
		Timeout:   cfg.Client.BackendTimeout,
		RateLimit: cfg.Client.BackendRateLimit,
	}, log, httpclient.WithTokenSource(func(ctx context.Context) string {
		if u, _ := store.Get(ctx); u != nil {
			return u.Token
		}
		return ""
	}))
	if err != nil {
		log.Fatal().Err(err).Msg("configure backend client")
	}

	v := validate.New()
	admin, err := service.NewSession(client, store, v, log).Login(ctx, *username, *password)
	if err != nil {
		log.Fatal().Err(err).Str("username", *username).Msg("login failed")
	}

	gate := service.NewCatalogGate(client, service.NewResolver(client, store, log), v, log)
	products := seed.NewGenerator(*seedValue).Products(*count)
	if _, err := seed.Run(ctx, gate, admin, products, log); err != nil {
		log.Fatal().Err(err).Msg("seeding stopped")
	}
}
