package main

import (
	"context"
	"fmt"
	"time"

	"annies-bakery/internal/scheduler"

	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Publish posts and products whose publish_at has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at value %q: %w", at, err)
				}
				now = t
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				publisher := scheduler.New(a.posts, a.products, a.cfg.Scheduler.Location(), a.cfg.Scheduler.Interval, nil, a.logger)

				result, err := publisher.Sweep(ctx, now)
				fmt.Fprintf(cmd.OutOrStdout(), "published %d posts, %d products\n", result.Posts, result.Products)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Sweep as of this RFC 3339 time instead of now")

	return cmd
}
