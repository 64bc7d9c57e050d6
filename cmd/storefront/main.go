// Command storefront is the interactive storefront client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/cli"
	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/core/service"
	"github.com/minimal/storefront/internal/infrastructure/db/memory"
	"github.com/minimal/storefront/internal/infrastructure/db/redis"
	"github.com/minimal/storefront/internal/infrastructure/httpclient"
	"github.com/minimal/storefront/internal/infrastructure/queue"
	"github.com/minimal/storefront/internal/pkg/config"
	"github.com/minimal/storefront/pkg/logger"
)

func main() {
	command := flag.String("c", "", "run the given commands (separated by ';') and exit")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.Production(), Service: "storefront"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openIdentityStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open identity store")
	}
	defer closeStore()

	client, err := httpclient.New(httpclient.Config{
		BaseURL:   cfg.Client.APIURL,
		Timeout:   cfg.Client.BackendTimeout,
		RateLimit: cfg.Client.BackendRateLimit,
	}, logger.Component("backend"), httpclient.WithTokenSource(func(ctx context.Context) string {
		if u, _ := store.Get(ctx); u != nil {
			return u.Token
		}
		return ""
	}))
	if err != nil {
		log.Fatal().Err(err).Msg("configure backend client")
	}

	if cfg.Client.MetricsAddr != "" {
		go serveMetrics(cfg.Client.MetricsAddr, log)
	}

	policy := service.MergeAppend
	if cfg.Client.MergeByProduct {
		policy = service.MergeByProduct
	}

	dispatcher := queue.NewDispatcher(cfg.Client.DispatchWorkers, cfg.Client.OperationTimeout, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	shell := cli.NewShell(cli.NewServices(client, store, policy, log), dispatcher, os.Stdout, logger.Component("shell"))

	in := os.Stdin
	if *command != "" {
		script := strings.ReplaceAll(*command, ";", "\n")
		err = shell.RunScript(ctx, strings.NewReader(script))
	} else {
		fmt.Println("storefront shell, type help for commands")
		err = shell.Run(ctx, in)
	}
	if err != nil {
		log.Error().Err(err).Msg("shell stopped")
		os.Exit(1)
	}
}

func openIdentityStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.IdentityStore, func(), error) {
	if cfg.Client.IdentityStore == "memory" {
		return memory.NewIdentityStore(), func() {}, nil
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Str("addr", cfg.Redis.Addr).Str("key", cfg.Client.IdentityKey).Msg("identity store ready")
	return redis.NewIdentityStore(rdb, cfg.Client.IdentityKey), func() { _ = rdb.Close() }, nil
}

func serveMetrics(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}
