// Package scheduler promotes products and blog posts whose publish time has
// passed.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"annies-bakery/internal/metrics"
	"annies-bakery/internal/model"
	"annies-bakery/internal/repository"

	"github.com/rs/zerolog"
)

// DefaultInterval is used when no positive interval is configured.
const DefaultInterval = 60 * time.Second

// SweepResult counts the records one sweep promoted.
type SweepResult struct {
	Posts    int `json:"posts"`
	Products int `json:"products"`
}

// Total returns the number of records promoted.
func (r SweepResult) Total() int {
	return r.Posts + r.Products
}

// Publisher runs the publish sweep.
type Publisher struct {
	posts    repository.PostRepository
	products repository.ProductRepository
	loc      *time.Location
	interval time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates a publisher. Naive publish_at values are read in loc.
func New(
	posts repository.PostRepository,
	products repository.ProductRepository,
	loc *time.Location,
	interval time.Duration,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Publisher {
	if loc == nil {
		loc = time.UTC
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Publisher{
		posts:    posts,
		products: products,
		loc:      loc,
		interval: interval,
		metrics:  m,
		now:      time.Now,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}
}

// Sweep makes one pass over both collections. Each collection is one
// read-modify-write cycle and is not written when nothing is due. An error
// on one collection does not stop the other.
func (p *Publisher) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	var errs []error

	n, err := p.posts.ModifyAll(ctx, func(post *model.BlogPost) bool {
		if post.Published || !p.due(post.ID, post.PublishAt, now) {
			return false
		}
		post.Published = true
		post.UpdatedAt = model.Timestamp(now)
		return true
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to sweep posts: %w", err))
	} else {
		result.Posts = n
		p.metrics.Promoted(repository.PostsCollection, n)
	}

	n, err = p.products.ModifyAll(ctx, func(product *model.Product) bool {
		if product.Visible || !p.due(product.ID, product.PublishAt, now) {
			return false
		}
		product.Visible = true
		product.UpdatedAt = model.Timestamp(now)
		return true
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to sweep products: %w", err))
	} else {
		result.Products = n
		p.metrics.Promoted(repository.ProductsCollection, n)
	}

	if result.Total() > 0 {
		p.logger.Info().
			Int("posts", result.Posts).
			Int("products", result.Products).
			Msg("scheduled records published")
	}

	return result, errors.Join(errs...)
}

func (p *Publisher) due(id, publishAt string, now time.Time) bool {
	if publishAt == "" {
		return false
	}
	t, ok := model.ParsePublishAt(publishAt, p.loc)
	if !ok {
		p.logger.Debug().Str("id", id).Str("publish_at", publishAt).Msg("unparseable publish_at skipped")
		return false
	}
	return !t.After(now)
}

// Run sweeps immediately and then once per interval until ctx is cancelled.
// A failed sweep is logged and counted; the loop carries on.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", p.interval).Str("timezone", p.loc.String()).Msg("publish scheduler started")

	for {
		p.runOnce(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info().Msg("publish scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

func (p *Publisher) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Msg("publish sweep panicked")
			p.metrics.Sweep(false)
		}
	}()

	if _, err := p.Sweep(ctx, p.now()); err != nil {
		p.logger.Error().Err(err).Msg("publish sweep failed")
		p.metrics.Sweep(false)
		return
	}
	p.metrics.Sweep(true)
}
