package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"annies-bakery/internal/docstore"
	"annies-bakery/internal/metrics"
	"annies-bakery/internal/model"
	"annies-bakery/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dir      string
	posts    repository.PostRepository
	products repository.ProductRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store := docstore.New(docstore.NewFileBackend(dir), zerolog.Nop())
	return &fixture{
		dir:      dir,
		posts:    repository.NewPostRepository(store, zerolog.Nop()),
		products: repository.NewProductRepository(store, zerolog.Nop()),
	}
}

func TestPublisher_Sweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	johannesburg := time.FixedZone("SAST", 2*60*60)
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) // 12:00 SAST

	posts := []model.BlogPost{
		{ID: "post-due", Title: "Due", PublishAt: "2025-03-14T09:59:00Z"},
		{ID: "post-naive-due", Title: "Naive due", PublishAt: "2025-03-14T11:30"},
		{ID: "post-naive-later", Title: "Naive later", PublishAt: "2025-03-14T12:30"},
		{ID: "post-future", Title: "Future", PublishAt: "2025-03-15T00:00:00Z"},
		{ID: "post-bad", Title: "Bad date", PublishAt: "next tuesday"},
		{ID: "post-none", Title: "No date"},
		{ID: "post-live", Title: "Already live", Published: true, PublishAt: "2025-01-01"},
	}
	for i := range posts {
		require.NoError(t, f.posts.Create(ctx, &posts[i]))
	}
	products := []model.Product{
		{ID: "prod-due", Title: "Bun", PublishAt: "2025-03-14 12:00"},
		{ID: "prod-later", Title: "Tart", PublishAt: "2025-03-20"},
	}
	for i := range products {
		require.NoError(t, f.products.Create(ctx, &products[i]))
	}

	m := metrics.New()
	p := New(f.posts, f.products, johannesburg, time.Minute, m, zerolog.Nop())

	result, err := p.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Posts: 2, Products: 1}, result)
	assert.Equal(t, 3, result.Total())

	published := map[string]bool{}
	all, err := f.posts.GetAll(ctx)
	require.NoError(t, err)
	for _, post := range all {
		published[post.ID] = post.Published
	}
	assert.Equal(t, map[string]bool{
		"post-due":         true,
		"post-naive-due":   true,
		"post-naive-later": false,
		"post-future":      false,
		"post-bad":         false,
		"post-none":        false,
		"post-live":        true,
	}, published)

	bun, err := f.products.GetByID(ctx, "prod-due")
	require.NoError(t, err)
	assert.True(t, bun.Visible)
	assert.Equal(t, "2025-03-14T10:00:00Z", bun.UpdatedAt)

	expected := `
# HELP bakery_publish_promotions_total Records made public by the publish sweep.
# TYPE bakery_publish_promotions_total counter
bakery_publish_promotions_total{collection="blog"} 2
bakery_publish_promotions_total{collection="products"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "bakery_publish_promotions_total"))
}

func TestPublisher_SweepWithNothingDueDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	post := model.BlogPost{ID: "post-1", Title: "Later", PublishAt: "2030-01-01T00:00:00Z"}
	require.NoError(t, f.posts.Create(ctx, &post))

	path := filepath.Join(f.dir, "blog.json")
	before, err := os.Stat(path)
	require.NoError(t, err)
	old := before.ModTime().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	p := New(f.posts, f.products, time.UTC, 0, nil, zerolog.Nop())
	result, err := p.Sweep(ctx, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, result.Total())

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, after.ModTime().Equal(old), "blog.json was rewritten")

	_, err = os.Stat(filepath.Join(f.dir, "products.json"))
	assert.True(t, os.IsNotExist(err), "empty products collection was created")
}

func TestPublisher_SweepKeepsUndeclaredKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seeded := `[
  {
    "id": "prod-1",
    "title": "Hot cross buns",
    "short_description": "Easter only",
    "additional_images": ["/static/uploads/products/buns-2.jpg"],
    "price": 45.0,
    "visible": false,
    "publish_at": "2025-03-14T08:00",
    "created_at": "2025-03-01T09:00:00",
    "shelf_life_days": 3
  },
  {
    "id": "prod-2",
    "title": "Rye loaf",
    "short_description": "Sourdough rye",
    "price": 60.0,
    "visible": true,
    "created_at": "2025-02-01T09:00:00"
  }
]`
	path := filepath.Join(f.dir, "products.json")
	require.NoError(t, os.WriteFile(path, []byte(seeded), 0o644))

	p := New(f.posts, f.products, time.UTC, 0, nil, zerolog.Nop())
	result, err := p.Sweep(ctx, time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Products)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)

	assert.Equal(t, true, records[0]["visible"])
	assert.Equal(t, "Easter only", records[0]["short_description"])
	assert.Equal(t, []interface{}{"/static/uploads/products/buns-2.jpg"}, records[0]["additional_images"])
	assert.Equal(t, float64(3), records[0]["shelf_life_days"])
	assert.Equal(t, "Sourdough rye", records[1]["short_description"])
}

// flakyPosts panics on its first sweep and fails on its second.
type flakyPosts struct {
	repository.PostRepository
	calls atomic.Int32
}

func (f *flakyPosts) ModifyAll(ctx context.Context, fn repository.ModifyFunc[model.BlogPost]) (int, error) {
	switch f.calls.Add(1) {
	case 1:
		panic("boom")
	case 2:
		return 0, errors.New("disk on fire")
	}
	return f.PostRepository.ModifyAll(ctx, fn)
}

func TestPublisher_RunSurvivesFailures(t *testing.T) {
	f := newFixture(t)
	posts := &flakyPosts{PostRepository: f.posts}
	m := metrics.New()
	p := New(posts, f.products, time.UTC, 10*time.Millisecond, m, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return posts.calls.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	results := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "bakery_publish_sweeps_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			results[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, results["failed"])
	assert.GreaterOrEqual(t, results["ok"], 2.0)
}

func TestNew_Defaults(t *testing.T) {
	p := New(nil, nil, nil, 0, nil, zerolog.Nop())

	assert.Equal(t, DefaultInterval, p.interval)
	assert.Equal(t, time.UTC, p.loc)
}
