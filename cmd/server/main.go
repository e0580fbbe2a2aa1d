/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the back-office server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse flags, load config (file + APP_* env)
  2. Open the SQLite document store
  3. Build the FX resolver (provider chain + static table)
  4. Wire estimator, dashboard builder, HTTP handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config    Config file path (optional; defaults apply without one)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

SEE ALSO:
  - config/config.go: Configuration fields and defaults
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atolye/costing-engine/api"
	"github.com/atolye/costing-engine/config"
	"github.com/atolye/costing-engine/costing"
	"github.com/atolye/costing-engine/dashboard"
	"github.com/atolye/costing-engine/fx"
	"github.com/atolye/costing-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	log := newLogger(cfg.App.Env)
	slog.SetDefault(log)

	store, err := sqlite.New(cfg.Store.Path)
	if err != nil {
		log.Error("failed to open store", "path", cfg.Store.Path, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	providers := []fx.Provider{
		fx.NewExchangeRateAPI(cfg.FX.ExchangeRateAPIURL, cfg.FX.ProviderTimeout),
		fx.NewExchangeRateHost(cfg.FX.ExchangeRateHostURL, cfg.FX.ProviderTimeout),
		fx.NewFixer(cfg.FX.FixerURL, cfg.FX.ProviderTimeout),
	}
	resolver := fx.NewResolver(providers, fx.DefaultTRYTable(), log)

	ref := cfg.FX.ReferenceCurrency
	handler := api.NewHandler(
		store,
		costing.NewEstimator(store, resolver, ref, log),
		dashboard.NewBuilder(store, resolver, ref),
		log,
	)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: api.NewRouter(handler, cfg.Metrics.Enabled),
	}

	go func() {
		log.Info("server listening", "addr", cfg.HTTP.Addr, "reference_currency", ref)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
}

func newLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
