package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"annies-bakery/internal/docstore"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestStore is a document store backed by a throwaway PostgreSQL container.
type TestStore struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	Store     *docstore.Store
}

// SetupTestStore starts PostgreSQL and opens a document store on it.
func SetupTestStore(t *testing.T) *TestStore {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("bakery"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	backend := docstore.NewPostgresBackend(pool)
	if err := backend.EnsureSchema(ctx); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestStore{
		Container: postgresContainer,
		Pool:      pool,
		Store:     docstore.New(backend, zerolog.Nop(), docstore.WithStrict(true)),
	}
}

// Reset drops every stored collection.
func (s *TestStore) Reset(t *testing.T) {
	t.Helper()

	if _, err := s.Pool.Exec(context.Background(), "DELETE FROM collections"); err != nil {
		t.Fatalf("failed to clean collections: %v", err)
	}
}

// fakeStripe answers checkout session creation with a canned session and
// records the forms it received.
type fakeStripe struct {
	mu    sync.Mutex
	forms []url.Values
}

func newFakeStripe(t *testing.T) (*fakeStripe, *httptest.Server) {
	t.Helper()
	f := &fakeStripe{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.forms = append(f.forms, r.PostForm)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cs_test_integration",
			"object": "checkout.session",
			"url": "https://checkout.stripe.com/c/pay/cs_test_integration"
		}`))
	}))
	t.Cleanup(server.Close)

	return f, server
}

func (f *fakeStripe) lastForm() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.forms) == 0 {
		return nil
	}
	return f.forms[len(f.forms)-1]
}
