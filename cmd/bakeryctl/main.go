// Command bakeryctl runs store maintenance tasks against the bakery's
// document store: publish sweeps, order exports, order status fixes and
// catalogue seeding.
package main

import (
	"context"
	"fmt"
	"os"

	"annies-bakery/internal/config"
	"annies-bakery/internal/database"
	"annies-bakery/internal/docstore"
	"annies-bakery/internal/repository"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bakeryctl",
		Short:         "Maintenance tasks for the bakery store",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(ordersCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(checkCmd())

	return rootCmd
}

// app holds what every subcommand needs: configuration, a stderr logger and
// the open store with its repositories.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	orders   repository.OrderRepository
	custom   repository.CustomOrderRepository
	products repository.ProductRepository
	posts    repository.PostRepository

	close func()
}

func openApp(ctx context.Context, opts ...docstore.Option) (*app, error) {
	cfg, err := config.LoadOffline()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLoggerTo(cfg.Logger, os.Stderr)

	store, closeStore, err := database.OpenStore(ctx, cfg, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		orders:   repository.NewOrderRepository(store, logger),
		custom:   repository.NewCustomOrderRepository(store, logger),
		products: repository.NewProductRepository(store, logger),
		posts:    repository.NewPostRepository(store, logger),
		close:    closeStore,
	}, nil
}

// withApp opens the store for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error, opts ...docstore.Option) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, opts...)
	if err != nil {
		return err
	}
	defer a.close()

	return fn(ctx, a)
}
