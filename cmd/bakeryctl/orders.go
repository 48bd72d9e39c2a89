package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"annies-bakery/internal/model"
	"annies-bakery/internal/service"

	"github.com/spf13/cobra"
)

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect and correct orders",
	}

	cmd.AddCommand(ordersShowCmd())
	cmd.AddCommand(ordersStatusCmd())

	return cmd
}

func ordersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <order-id>",
		Short: "Print a standard or custom order as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				orders := service.NewOrderService(a.orders, a.custom, nil, nil, nil, a.cfg.Server.BaseURL, a.logger)

				view, err := orders.GetOrder(ctx, args[0])
				if err != nil {
					return err
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			})
		},
	}
}

func ordersStatusCmd() *cobra.Command {
	var update model.StatusUpdate

	cmd := &cobra.Command{
		Use:   "status <order-id>...",
		Short: "Set the status and/or payment status of one or more orders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if update.Status == "" && update.PaymentStatus == "" {
				return errors.New("at least one of --status or --payment-status is required")
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				orders := service.NewOrderService(a.orders, a.custom, nil, nil, nil, a.cfg.Server.BaseURL, a.logger)

				n, err := orders.BatchUpdate(ctx, model.BatchStatusUpdate{OrderIDs: args, StatusUpdate: update})
				fmt.Fprintf(cmd.OutOrStdout(), "updated %d of %d orders\n", n, len(args))
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&update.Status, "status", "s", "", "New order status")
	cmd.Flags().StringVarP(&update.PaymentStatus, "payment-status", "p", "", "New payment status")

	return cmd
}
