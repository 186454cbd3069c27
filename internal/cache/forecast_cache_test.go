package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/config"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

func TestBuildForecastBatchKeyIsStable(t *testing.T) {
	fd := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	on := true

	a := domain.BatchForecastOptions{
		ForecastOptions: domain.ForecastOptions{ForecastDate: fd, LookbackDays: 30},
		Categories:      []domain.Category{domain.CategorySoda, domain.CategorySnack},
	}
	b := domain.BatchForecastOptions{
		ForecastOptions: domain.ForecastOptions{ForecastDate: fd.Add(15 * time.Hour), LookbackDays: 30, IncludeEventAdjustment: &on},
		Categories:      []domain.Category{domain.CategorySnack, domain.CategorySoda},
	}

	assert.Equal(t, BuildForecastBatchKey(a), BuildForecastBatchKey(b))
	assert.True(t, strings.HasPrefix(BuildForecastBatchKey(a), "forecast:batch:"))

	c := a
	c.LookbackDays = 60
	assert.NotEqual(t, BuildForecastBatchKey(a), BuildForecastBatchKey(c))

	off := false
	d := a
	d.IncludeEventAdjustment = &off
	assert.NotEqual(t, BuildForecastBatchKey(a), BuildForecastBatchKey(d))
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewForecastCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	opts := domain.BatchForecastOptions{}

	require.NoError(t, c.SetBatch(ctx, opts, []domain.ForecastResult{{ProductID: 1}}))
	results, hit, err := c.GetBatch(ctx, opts)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, results)
	assert.NoError(t, c.InvalidateAll(ctx))
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@localhost:6379/1"})
	require.NoError(t, err)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 1, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}
