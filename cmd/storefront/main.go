package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	store "github.com/medatechnology/storefront"
	"github.com/medatechnology/storefront/apper"
	"github.com/medatechnology/storefront/catalog"
	"github.com/medatechnology/storefront/internal/config"
	"github.com/medatechnology/storefront/internal/httpapi"
	"github.com/medatechnology/storefront/memory"
	"github.com/medatechnology/storefront/orders"
	"github.com/medatechnology/storefront/postgres"
	"github.com/medatechnology/storefront/rqlite"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := store.NewDefaultLogger(cfg.LogLevel())
	store.SetDefaultLogger(logger)

	// prices go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	client, closeFn, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	api := httpapi.NewServer(
		orders.NewService(client, orders.WithLogger(logger)),
		catalog.NewService(client, catalog.WithLogger(logger)),
		logger)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening",
			store.String("address", srv.Addr),
			store.String("backend", cfg.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// openBackend builds the store.Client named by cfg.Backend. The returned
// func releases it.
func openBackend(cfg *config.Config, logger store.Logger) (store.Client, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case config.BackendApper:
		c, err := apper.NewClient(cfg.ApperClientConfig())
		if err != nil {
			return nil, noop, err
		}
		return c.WithLogger(logger), noop, nil

	case config.BackendRqlite:
		c, err := rqlite.Open(cfg.RqliteClientConfig())
		if err != nil {
			return nil, noop, err
		}
		nodes, err := c.Ping()
		if err != nil {
			c.Close()
			return nil, noop, err
		}
		logger.Info("rqlite connected", store.String("leader", nodes[0]), store.Int("nodes", len(nodes)))
		return c, func() { c.Close() }, nil

	case config.BackendPostgres:
		c, err := postgres.Open(cfg.Postgres)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("postgres connected", store.String("config", cfg.Postgres.String()))
		return c, func() { _ = c.Close() }, nil

	default:
		c := memory.New()
		seedDemo(c)
		logger.Warn("serving in-memory demo data")
		return c, noop, nil
	}
}
