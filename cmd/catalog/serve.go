package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jbweber/homelab/catalog/internal/api"
	"github.com/jbweber/homelab/catalog/internal/config"
	"github.com/jbweber/homelab/catalog/internal/metrics"
	"github.com/jbweber/homelab/catalog/internal/repository"
)

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *configFile)
		},
	}
}

func runServe(cmd *cobra.Command, configFile string) error {
	cfg, logger, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return serve(cmd.Context(), cfg, logger)
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ds, err := cfg.InitializeDatabase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer ds.Close()
	logger.Info("Database ready", "driver", ds.Dialect)

	repo := repository.NewProductRepository(ds)
	defer repo.Close()

	a, err := api.NewAPI(api.Deps{
		Repository:   repo,
		Health:       ds,
		Logger:       logger,
		Metrics:      metrics.New(),
		StoreTimeout: cfg.Store.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to set up HTTP handlers: %w", err)
	}
	httpServer := newHTTPServer(cfg, a.Handler())

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.Timeout.Read,
		WriteTimeout:      cfg.HTTP.Timeout.Write,
		IdleTimeout:       cfg.HTTP.Timeout.Idle,
		ReadHeaderTimeout: cfg.HTTP.Timeout.ReadHeader,
	}
}
