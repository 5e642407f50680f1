package usgs

import (
	"context"
	"strings"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/cache"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// CachedClient wraps a Client with an in-memory LRU over per-state site
// lists. Site inventories change rarely; discharge series are never cached.
type CachedClient struct {
	inner   *Client
	cache   *cache.LRU[[]domain.Site]
	metrics *observability.Metrics
}

// NewCachedClient creates a cache decorator around a NWIS client.
func NewCachedClient(inner *Client, maxEntries int, metrics *observability.Metrics) *CachedClient {
	return &CachedClient{
		inner:   inner,
		cache:   cache.New[[]domain.Site](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedClient) Sites(ctx context.Context, stateCode string) ([]domain.Site, error) {
	key := strings.ToUpper(stateCode)
	if sites, ok := c.cache.Get(key); ok {
		c.metrics.SiteCache.WithLabelValues("hit").Inc()
		return sites, nil
	}
	c.metrics.SiteCache.WithLabelValues("miss").Inc()

	sites, err := c.inner.Sites(ctx, stateCode)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty lists so transient empty responses can be retried.
	if len(sites) > 0 {
		c.cache.Put(key, sites)
	}
	return sites, nil
}

// DailyDischarge delegates to the underlying client; series are always
// fetched fresh.
func (c *CachedClient) DailyDischarge(ctx context.Context, siteCode string, start, end time.Time) ([]domain.Observation, error) {
	return c.inner.DailyDischarge(ctx, siteCode, start, end)
}
