package main

import (
	"context"
	"fmt"
	"sync"

	"annies-bakery/internal/docstore"
	"annies-bakery/internal/repository"

	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the store is reachable and every collection decodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var mu sync.Mutex
			corrupt := map[string]bool{}
			hook := docstore.WithCorruptionHook(func(collection string) {
				mu.Lock()
				corrupt[collection] = true
				mu.Unlock()
			})

			return withApp(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "store: %s\n", a.cfg.Store.Driver)

				counts := []struct {
					name  string
					count func() (int, error)
				}{
					{repository.OrdersCollection, func() (int, error) { return count(a.orders.GetAll(ctx)) }},
					{repository.CustomOrdersCollection, func() (int, error) { return count(a.custom.GetAll(ctx)) }},
					{repository.ProductsCollection, func() (int, error) { return count(a.products.GetAll(ctx)) }},
					{repository.PostsCollection, func() (int, error) { return count(a.posts.GetAll(ctx)) }},
				}

				var failed []string
				for _, c := range counts {
					n, err := c.count()
					mu.Lock()
					bad := corrupt[c.name]
					mu.Unlock()

					switch {
					case err != nil:
						fmt.Fprintf(out, "  %-14s error: %v\n", c.name, err)
						failed = append(failed, c.name)
					case bad:
						fmt.Fprintf(out, "  %-14s CORRUPT\n", c.name)
						failed = append(failed, c.name)
					default:
						fmt.Fprintf(out, "  %-14s %d records\n", c.name, n)
					}
				}

				if len(failed) > 0 {
					return fmt.Errorf("%d collection(s) unreadable: %v", len(failed), failed)
				}
				return nil
			}, hook)
		},
	}
}

func count[T any](items []T, err error) (int, error) {
	return len(items), err
}
