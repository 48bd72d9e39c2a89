package main

import (
	"context"
	"fmt"

	"annies-bakery/internal/model"
	"annies-bakery/internal/service"

	"github.com/spf13/cobra"
)

var sampleProducts = []model.Product{
	{Title: "Classic Carrot Cake", Description: "Spiced sponge with cream cheese frosting.", Price: 320, Category: "cakes", Featured: true, Visible: true},
	{Title: "Lemon Meringue Tart", Description: "Buttery pastry, sharp lemon curd.", Price: 240, Category: "tarts", Visible: true},
	{Title: "Buttermilk Scones (6)", Description: "Served with jam and cream.", Price: 75, Category: "pastries", Visible: true},
	{Title: "Chocolate Ganache Cake", Description: "Dark chocolate layers.", Price: 380, Category: "cakes", Featured: true, Visible: true},
}

var samplePosts = []model.BlogPost{
	{Title: "Welcome to the bakery", Content: "Fresh bakes every morning from 7am.", Author: "Annie", Published: true},
	{Title: "Baking for birthdays", Content: "Custom cakes need at least five days' notice.", Author: "Annie", Published: true},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill empty product and blog collections with sample records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				catalog := service.NewCatalogService(a.products, a.posts, a.cfg.Scheduler.Location(), a.logger)

				products, posts, err := seedCatalog(ctx, a, catalog)
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products, %d posts\n", products, posts)
				return err
			})
		},
	}
}

// seedCatalog only writes to collections that hold no records yet.
func seedCatalog(ctx context.Context, a *app, catalog service.CatalogService) (int, int, error) {
	var products, posts int

	existing, err := a.products.GetAll(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(existing) == 0 {
		for _, p := range sampleProducts {
			if _, err := catalog.SaveProduct(ctx, &p); err != nil {
				return products, posts, err
			}
			products++
		}
	} else {
		a.logger.Info().Int("count", len(existing)).Msg("products already present, skipping")
	}

	existingPosts, err := a.posts.GetAll(ctx)
	if err != nil {
		return products, posts, err
	}
	if len(existingPosts) == 0 {
		for _, p := range samplePosts {
			if _, err := catalog.SavePost(ctx, &p); err != nil {
				return products, posts, err
			}
			posts++
		}
	} else {
		a.logger.Info().Int("count", len(existingPosts)).Msg("posts already present, skipping")
	}

	return products, posts, nil
}
