package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/krazyTry/lpbot/internal/store"
)

// setupTestDB starts a PostgreSQL container and applies the schema. The
// tests need Docker and only run with LPBOT_POSTGRES_TESTS=1.
func setupTestDB(t *testing.T) *Pool {
	t.Helper()
	if os.Getenv("LPBOT_POSTGRES_TESTS") != "1" {
		t.Skip("set LPBOT_POSTGRES_TESTS=1 to run postgres tests")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("lpbot"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Migrate(ctx))
	// idempotent
	require.NoError(t, pool.Migrate(ctx))
	return pool
}

func TestPositionStore(t *testing.T) {
	pool := setupTestDB(t)
	s := NewPositionStore(pool)
	ctx := context.Background()

	p := &store.Position{
		Signature: "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW",
		UserID:    "did:privy:u1",
		Wallet:    "wallet",
		Pool:      "pool",
		Position:  "position",
		MinBinID:  -34,
		MaxBinID:  34,
		AmountX:   18_000_000_000_000_000_000,
		AmountY:   2_000_000,
	}
	require.NoError(t, s.Insert(ctx, p))
	assert.ErrorIs(t, s.Insert(ctx, p), store.ErrDuplicateKey)

	got, err := s.GetBySignature(ctx, p.Signature)
	require.NoError(t, err)
	assert.Equal(t, p.AmountX, got.AmountX)
	assert.Equal(t, int32(-34), got.MinBinID)
	assert.Equal(t, store.StatusSubmitted, got.Status)

	require.NoError(t, s.UpdateStatus(ctx, p.Signature, store.StatusConfirmed, ""))
	got, err = s.GetBySignature(ctx, p.Signature)
	require.NoError(t, err)
	assert.Equal(t, store.StatusConfirmed, got.Status)

	assert.ErrorIs(t, s.UpdateStatus(ctx, "missing", store.StatusFailed, "x"), store.ErrNotFound)
	_, err = s.GetBySignature(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Insert(ctx, &store.Position{Signature: fmt.Sprintf("sig%d", i), UserID: "did:privy:u1"}))
	}
	list, err := s.ListByUser(ctx, "did:privy:u1", 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	all, err := s.ListByUser(ctx, "did:privy:u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
