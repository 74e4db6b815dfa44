package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ricemill/analytics/internal/config"
	"github.com/ricemill/analytics/internal/domain"
)

const (
	dashboardKeyPrefix   = "analytics:dashboard"
	dashboardScanBatches = 100
)

// DashboardCache caches assembled analytics dashboards per filter.
type DashboardCache interface {
	Get(ctx context.Context, filter domain.DashboardFilter) (*domain.AnalyticsDashboard, bool, error)
	Set(ctx context.Context, filter domain.DashboardFilter, dashboard *domain.AnalyticsDashboard) error
	Invalidate(ctx context.Context, filter domain.DashboardFilter) error
	InvalidateAll(ctx context.Context) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

// NewDashboardCache returns a redis-backed cache when caching is enabled
// and a noop cache otherwise.
func NewDashboardCache(cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{client: client, ttl: ttl}, nil
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) Get(ctx context.Context, filter domain.DashboardFilter) (*domain.AnalyticsDashboard, bool, error) {
	key := buildDashboardKey(filter)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var dashboard domain.AnalyticsDashboard
	if err := json.Unmarshal(payload, &dashboard); err != nil {
		return nil, false, fmt.Errorf("decode dashboard cache: %w", err)
	}

	return &dashboard, true, nil
}

func (c *redisDashboardCache) Set(ctx context.Context, filter domain.DashboardFilter, dashboard *domain.AnalyticsDashboard) error {
	key := buildDashboardKey(filter)
	payload, err := json.Marshal(dashboard)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisDashboardCache) Invalidate(ctx context.Context, filter domain.DashboardFilter) error {
	return c.client.Del(ctx, buildDashboardKey(filter)).Err()
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, dashboardKeyPrefix, dashboardScanBatches)
}

func (n *noopDashboardCache) Get(ctx context.Context, filter domain.DashboardFilter) (*domain.AnalyticsDashboard, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) Set(ctx context.Context, filter domain.DashboardFilter, dashboard *domain.AnalyticsDashboard) error {
	return nil
}

func (n *noopDashboardCache) Invalidate(ctx context.Context, filter domain.DashboardFilter) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildDashboardKey(filter domain.DashboardFilter) string {
	raw := fmt.Sprintf("warehouse=%d|from=%s|to=%s|top=%d",
		filter.WarehouseID,
		filter.Range.From.UTC().Format(time.RFC3339),
		filter.Range.To.UTC().Format(time.RFC3339),
		filter.TopN,
	)
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", dashboardKeyPrefix, hex.EncodeToString(sum[:]))
}
