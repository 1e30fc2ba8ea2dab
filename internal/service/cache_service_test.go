package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCacheRepo struct{ stubCacheRepo }

func (b *brokenCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("connection reset")
}

func TestNilCacheServiceIsInert(t *testing.T) {
	var cache *CacheService
	assert.False(t, cache.Enabled())

	var dest string
	hit, err := cache.Get(context.Background(), "k", &dest)
	assert.False(t, hit)
	assert.NoError(t, err)
	assert.NoError(t, cache.Set(context.Background(), "k", "v", 0))
	assert.NoError(t, cache.Invalidate(context.Background(), "analytics:*"))
}

func TestRememberCachesLoadedValue(t *testing.T) {
	repo := &stubCacheRepo{}
	cache := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	loads := 0
	load := func() ([]int, error) {
		loads++
		return []int{1, 2, 3}, nil
	}

	first, hit, err := remember(context.Background(), cache, "analytics:numbers", load)
	require.NoError(t, err)
	assert.False(t, hit)
	second, hit, err := remember(context.Background(), cache, "analytics:numbers", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads)

	require.NoError(t, cache.Invalidate(context.Background(), "analytics:*"))
	_, hit, err = remember(context.Background(), cache, "analytics:numbers", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, loads)
}

func TestRememberFallsBackWhenCacheFails(t *testing.T) {
	cache := NewCacheService(&brokenCacheRepo{}, nil, 0, nil, true)

	value, hit, err := remember(context.Background(), cache, "analytics:x", func() (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", value)
}

func TestDisabledCacheSkipsRepository(t *testing.T) {
	repo := &stubCacheRepo{}
	cache := NewCacheService(repo, nil, 0, nil, false)

	require.NoError(t, cache.Set(context.Background(), "k", "v", 0))
	assert.Empty(t, repo.store)
	require.NoError(t, cache.Invalidate(context.Background(), "analytics:*"))
	assert.Empty(t, repo.deleted)
}
