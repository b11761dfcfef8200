package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/lpbot/internal/store"
)

func TestPositionStore_InsertGet(t *testing.T) {
	s := NewPositionStore()
	ctx := context.Background()

	p := &store.Position{Signature: "sig1", UserID: "u1", Pool: "pool", MinBinID: 66, MaxBinID: 134, AmountX: 1000, AmountY: 2_000_000}
	require.NoError(t, s.Insert(ctx, p))

	got, err := s.GetBySignature(ctx, "sig1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusSubmitted, got.Status)
	assert.Equal(t, uint64(2_000_000), got.AmountY)
	assert.False(t, got.CreatedAt.IsZero())

	// stored copy is isolated from the caller
	p.Pool = "changed"
	got, err = s.GetBySignature(ctx, "sig1")
	require.NoError(t, err)
	assert.Equal(t, "pool", got.Pool)

	assert.ErrorIs(t, s.Insert(ctx, p), store.ErrDuplicateKey)
	assert.ErrorIs(t, s.Insert(ctx, &store.Position{Signature: "x"}), store.ErrInvalidInput)
	assert.ErrorIs(t, s.Insert(ctx, nil), store.ErrInvalidInput)

	_, err = s.GetBySignature(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPositionStore_UpdateStatus(t *testing.T) {
	s := NewPositionStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, &store.Position{Signature: "sig1", UserID: "u1"}))

	require.NoError(t, s.UpdateStatus(ctx, "sig1", store.StatusFailed, "blockhash expired"))
	got, err := s.GetBySignature(ctx, "sig1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, got.Status)
	assert.Equal(t, "blockhash expired", got.Error)

	assert.ErrorIs(t, s.UpdateStatus(ctx, "nope", store.StatusConfirmed, ""), store.ErrNotFound)
}

func TestPositionStore_ListByUser(t *testing.T) {
	s := NewPositionStore()
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Insert(ctx, &store.Position{
			Signature: fmt.Sprintf("sig%d", i),
			UserID:    "u1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.Insert(ctx, &store.Position{Signature: "other", UserID: "u2"}))

	list, err := s.ListByUser(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "sig4", list[0].Signature)
	assert.Equal(t, "sig2", list[2].Signature)

	all, err := s.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := s.ListByUser(ctx, "u3", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPositionStore_Concurrent(t *testing.T) {
	s := NewPositionStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Insert(ctx, &store.Position{Signature: fmt.Sprintf("sig%d", i), UserID: "u1"}))
			_, _ = s.ListByUser(ctx, "u1", 10)
		}(i)
	}
	wg.Wait()

	all, err := s.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
