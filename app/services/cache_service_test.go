package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postal-parser/app/models"
)

func testResult(raw, version string) *models.AddressResult {
	return &models.AddressResult{
		Raw:           raw,
		Status:        models.StatusMatched,
		LocaleVersion: version,
		Address: &models.PostalAddress{
			AddressTo:     "Acme Supply",
			StreetAddress: "1 Main Street",
			Municipality:  "Redford",
			State:         "Michigan",
			Country:       "US",
		},
	}
}

func TestCacheService_GetSet(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, time.Hour)

	_, found, err := cs.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cs.Set(ctx, "k1", testResult("raw", "v1")))
	got, found, err := cs.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "raw", got.Raw)

	exists, err := cs.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, exists)

	ttl, err := cs.GetTTL(ctx, "k1")
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	stats, err := cs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMiss)
	assert.Equal(t, int64(1), stats.TotalItems)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)

	require.NoError(t, cs.Delete(ctx, "k1"))
	exists, _ = cs.Exists(ctx, "k1")
	assert.False(t, exists)
}

func TestCacheService_InvalidateByLocaleVersion(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, 0)

	require.NoError(t, cs.Set(ctx, "old", testResult("a", "2023.1")))
	require.NoError(t, cs.Set(ctx, "new", testResult("b", "2024.1")))
	require.NoError(t, cs.InvalidateByLocaleVersion(ctx, "2024.1"))

	_, found, _ := cs.Get(ctx, "old")
	assert.False(t, found)
	_, found, _ = cs.Get(ctx, "new")
	assert.True(t, found)

	require.NoError(t, cs.Clear(ctx))
	stats, _ := cs.GetStats(ctx)
	assert.Zero(t, stats.TotalItems)
	assert.Zero(t, stats.TotalHits)
}

func TestHybridCacheService(t *testing.T) {
	ctx := context.Background()
	l1 := NewCacheService(10, time.Hour)
	l2 := NewCacheService(10, 0)
	hcs := NewHybridCacheService(l1, l2, zap.NewNop())

	require.NoError(t, hcs.Set(ctx, "both", testResult("both", "v1")))
	for _, tier := range []*CacheService{l1, l2} {
		exists, _ := tier.Exists(ctx, "both")
		assert.True(t, exists)
	}

	t.Run("L2 hit is copied back to L1", func(t *testing.T) {
		require.NoError(t, l2.Set(ctx, "only-l2", testResult("only-l2", "v1")))

		got, found, err := hcs.Get(ctx, "only-l2")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "only-l2", got.Raw)

		assert.Eventually(t, func() bool {
			exists, _ := l1.Exists(ctx, "only-l2")
			return exists
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("miss in both tiers", func(t *testing.T) {
		_, found, err := hcs.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete removes from both tiers", func(t *testing.T) {
		require.NoError(t, hcs.Delete(ctx, "both"))
		exists, err := hcs.Exists(ctx, "both")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	stats, err := hcs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalMiss)
	assert.NoError(t, hcs.Close())
}
