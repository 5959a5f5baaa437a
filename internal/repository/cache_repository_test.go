package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/club-portal/pkg/errors"
)

type cachedRole struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestMemoryCacheRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	now := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "roles:dropdown", []cachedRole{{ID: 1, Name: "Admin"}}, time.Minute))

	var got []cachedRole
	require.NoError(t, cache.Get(ctx, "roles:dropdown", &got))
	assert.Equal(t, []cachedRole{{ID: 1, Name: "Admin"}}, got)

	now = now.Add(2 * time.Minute)
	err := cache.Get(ctx, "roles:dropdown", &got)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	require.NoError(t, cache.Set(ctx, "receipts:a", 1, 0))
	require.NoError(t, cache.Set(ctx, "receipts:b", 2, 0))
	require.NoError(t, cache.Set(ctx, "roles:dropdown", 3, 0))

	require.NoError(t, cache.DeleteByPattern(ctx, "receipts:*"))

	var v int
	assert.ErrorIs(t, cache.Get(ctx, "receipts:a", &v), appErrors.ErrCacheMiss)
	require.NoError(t, cache.Get(ctx, "roles:dropdown", &v))
	assert.Equal(t, 3, v)

	require.NoError(t, cache.Delete(ctx, "roles:dropdown"))
	assert.ErrorIs(t, cache.Get(ctx, "roles:dropdown", &v), appErrors.ErrCacheMiss)

	assert.Error(t, cache.DeleteByPattern(ctx, "["))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(nil, nil)

	var v int
	assert.ErrorIs(t, repo.Get(ctx, "x", &v), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "x", 1, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "x"))
	assert.NoError(t, repo.DeleteByPattern(ctx, "*"))
	assert.NoError(t, repo.Close())
}
