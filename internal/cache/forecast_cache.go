package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/config"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	forecastBatchKeyPrefix = "forecast:batch"
	forecastScanBatchSize  = 100
)

// ForecastCache stores catalog-wide forecast results keyed by their options
type ForecastCache interface {
	GetBatch(ctx context.Context, opts domain.BatchForecastOptions) ([]domain.ForecastResult, bool, error)
	SetBatch(ctx context.Context, opts domain.BatchForecastOptions, results []domain.ForecastResult) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetBatch(ctx context.Context, opts domain.BatchForecastOptions) ([]domain.ForecastResult, bool, error) {
	key := BuildForecastBatchKey(opts)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var results []domain.ForecastResult
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}

	return results, true, nil
}

func (c *redisForecastCache) SetBatch(ctx context.Context, opts domain.BatchForecastOptions, results []domain.ForecastResult) error {
	key := BuildForecastBatchKey(opts)
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	removed, err := unlinkPrefix(ctx, c.client, forecastBatchKeyPrefix, forecastScanBatchSize)
	if err != nil {
		return err
	}
	log.Debug().Int("keys", removed).Msg("forecast cache invalidated")
	return nil
}

func (n *noopForecastCache) GetBatch(ctx context.Context, opts domain.BatchForecastOptions) ([]domain.ForecastResult, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetBatch(ctx context.Context, opts domain.BatchForecastOptions, results []domain.ForecastResult) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// BuildForecastBatchKey derives a stable key; options must be normalized first so
// that defaulted and explicit values share an entry.
func BuildForecastBatchKey(opts domain.BatchForecastOptions) string {
	return fmt.Sprintf("%s:%s", forecastBatchKeyPrefix, forecastOptionsHash(opts))
}

func forecastOptionsHash(opts domain.BatchForecastOptions) string {
	parts := []string{
		"forecast_date=" + domain.DateOf(opts.ForecastDate).Format(domain.DateLayout),
		fmt.Sprintf("lookback_days=%d", opts.LookbackDays),
		fmt.Sprintf("events=%t", opts.EventsIncluded()),
	}

	if len(opts.Categories) > 0 {
		cats := make([]string, 0, len(opts.Categories))
		for _, c := range opts.Categories {
			cats = append(cats, strings.ToUpper(strings.TrimSpace(string(c))))
		}
		sort.Strings(cats)
		parts = append(parts, "categories="+strings.Join(cats, ","))
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
