// Package api exposes the reference storefront backend over HTTP.
package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/api/handler"
	"github.com/minimal/storefront/internal/api/middleware"
	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/pkg/validate"
)

// Deps are the use cases and probes the router serves.
type Deps struct {
	Accounts ports.AccountService
	Catalog  ports.CatalogService
	Carts    ports.CartService
	Orders   ports.OrderService

	// Checks feed the readiness probe, keyed by dependency name.
	Checks map[string]handler.Check

	// Registerer and Gatherer back the HTTP metrics and /metrics. Both default
	// to a private registry so several routers can coexist in one process.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	if deps.Registerer == nil || deps.Gatherer == nil {
		reg := prometheus.NewRegistry()
		deps.Registerer, deps.Gatherer = reg, reg
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "storefront_api",
		Registerer: deps.Registerer,
	}))
	e.Use(middleware.Auth(deps.Accounts))

	users := handler.NewUserHandler(deps.Accounts)
	products := handler.NewProductHandler(deps.Catalog)
	carts := handler.NewCartHandler(deps.Carts)
	orders := handler.NewOrderHandler(deps.Orders)
	admin := middleware.RequireAdmin(deps.Accounts)

	// --- Users ---
	e.POST("/users", users.Register)
	e.POST("/login", users.Login)
	e.GET("/users/:id", users.Get)
	e.GET("/users/:id/role", users.Role)

	// --- Catalog ---
	e.GET("/products", products.List)
	e.GET("/products/:id", products.Get)
	e.POST("/products", products.Add, admin)
	e.PUT("/products/:id", products.Update, admin)
	e.DELETE("/products/:id", products.Delete, admin)
	e.POST("/products/:id/review", products.AddReview)

	// --- Cart ---
	e.GET("/cart/:id", carts.Get)
	e.POST("/cart", carts.Add)
	e.DELETE("/cart/:id", carts.Remove)

	// --- Orders ---
	e.POST("/orders/:id", orders.Place)
	e.GET("/orders/:id", orders.List)
	e.GET("/orders/details/:id", orders.Details)
	e.DELETE("/orders/:id", orders.Delete)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(deps.Checks).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
