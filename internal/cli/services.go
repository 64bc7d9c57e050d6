package cli

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/core/service"
	"github.com/minimal/storefront/internal/pkg/validate"
)

// NewServices builds the client use cases over one backend and identity store.
func NewServices(backend ports.Backend, store ports.IdentityStore, policy service.MergePolicy, log zerolog.Logger) Services {
	v := validate.New()
	resolver := service.NewResolver(backend, store, log.With().Str("component", "resolver").Logger())
	return Services{
		Session:  service.NewSession(backend, store, v, log.With().Str("component", "session").Logger()),
		Resolver: resolver,
		Catalog:  service.NewCatalogGate(backend, resolver, v, log.With().Str("component", "catalog").Logger()),
		Cart:     service.NewCartManager(backend, policy, log.With().Str("component", "cart").Logger()),
		Checkout: service.NewCheckout(backend, time.Now, log.With().Str("component", "checkout").Logger()),
		Orders:   service.NewOrderBook(backend, log.With().Str("component", "orders").Logger()),
	}
}
