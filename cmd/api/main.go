package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"annies-bakery/internal/config"
	"annies-bakery/internal/database"
	"annies-bakery/internal/docstore"
	"annies-bakery/internal/export"
	"annies-bakery/internal/handler"
	"annies-bakery/internal/live"
	"annies-bakery/internal/metrics"
	"annies-bakery/internal/notify"
	"annies-bakery/internal/payment"
	"annies-bakery/internal/repository"
	"annies-bakery/internal/router"
	"annies-bakery/internal/scheduler"
	"annies-bakery/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting bakery API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	store, closeStore, err := database.OpenStore(ctx, cfg, logger, docstore.WithCorruptionHook(m.StoreCorruption))
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer closeStore()

	orderRepo := repository.NewOrderRepository(store, logger)
	customRepo := repository.NewCustomOrderRepository(store, logger)
	productRepo := repository.NewProductRepository(store, logger)
	postRepo := repository.NewPostRepository(store, logger)

	gateway, err := payment.OpenGateway(cfg.Payment, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize payment gateway: %w", err)
	}

	notifier, closeNotifier, err := notify.New(cfg.Notify, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}
	defer func() {
		if err := closeNotifier(); err != nil {
			logger.Warn().Err(err).Msg("failed to close notifier")
		}
	}()

	hub := live.NewHub(m, logger)
	go hub.Run(ctx)

	checkoutService := service.NewCheckoutService(orderRepo, gateway, notifier, hub, m, service.CheckoutConfig{
		BaseURL:  cfg.Server.BaseURL,
		Currency: cfg.Payment.Currency,
	}, logger)
	orderService := service.NewOrderService(orderRepo, customRepo, notifier, hub, m, cfg.Server.BaseURL, logger)
	catalogService := service.NewCatalogService(productRepo, postRepo, cfg.Scheduler.Location(), logger)

	exporter := export.NewExporter(orderRepo, customRepo, nil, logger)

	if cfg.Scheduler.Enabled {
		publisher := scheduler.New(postRepo, productRepo, cfg.Scheduler.Location(), cfg.Scheduler.Interval, m, logger)
		go publisher.Run(ctx)
	} else {
		logger.Info().Msg("scheduled publishing disabled")
	}

	mux := router.New(router.Handlers{
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Orders:   handler.NewOrderHandler(orderService, exporter, logger),
		Catalog:  handler.NewCatalogHandler(catalogService, logger),
		Live:     hub.ServeWS,
	}, cfg.Auth.APIKey, m, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("base_url", cfg.Server.BaseURL).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Stop the sweep and the live hub before draining requests.
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
