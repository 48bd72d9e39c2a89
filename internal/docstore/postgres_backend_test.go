package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgresBackend(t *testing.T) *PostgresBackend {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres backend test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("bakery"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	backend := NewPostgresBackend(pool)
	require.NoError(t, backend.EnsureSchema(ctx))

	return backend
}

func TestPostgresBackend_Collection(t *testing.T) {
	backend := setupPostgresBackend(t)
	ctx := context.Background()

	coll := NewCollection[testDoc](New(backend, zerolog.Nop()), "docs")

	items, err := coll.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, coll.Append(ctx, testDoc{ID: "a", Name: "Crème brûlée"}))
	require.NoError(t, coll.Append(ctx, testDoc{ID: "b", Name: "Scones"}))

	ok, err := coll.Update(ctx, "b", testDoc{ID: "b", Name: "Scones", Count: 12})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := coll.GetByID(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 12, got.Count)

	items, err = coll.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Crème brûlée", items[0].Name)
}

func TestPostgresBackend_ReadMissing(t *testing.T) {
	backend := setupPostgresBackend(t)

	_, err := backend.Read(context.Background(), "nothing-here")
	assert.ErrorIs(t, err, ErrNotExist)
}
