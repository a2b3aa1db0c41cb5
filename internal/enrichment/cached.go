package enrichment

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/suidash/backend/pkg/cache"
	"github.com/suidash/backend/pkg/types"
)

// CachedService memoizes whole responses for a very short TTL in front of
// the Service. Dashboards re-request the same address list every widget
// refresh; this layer absorbs those bursts so they don't even reach the
// coordinators. The backing cache may drop writes (ristretto admission),
// which is fine here - the coordinators below own the real freshness
// guarantees.
type CachedService struct {
	svc   *Service
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedService wraps svc with a response micro-cache. A nil cache
// degrades to pass-through.
func NewCachedService(svc *Service, c cache.Cache, ttl time.Duration) *CachedService {
	return &CachedService{svc: svc, cache: c, ttl: ttl}
}

// GetAddressesEnriched returns the memoized response for an identical
// request made within the TTL, otherwise delegates.
func (c *CachedService) GetAddressesEnriched(ctx context.Context, addresses []string, includeBalance bool) ([]types.Enriched, error) {
	if c.cache == nil {
		return c.svc.GetAddressesEnriched(ctx, addresses, includeBalance)
	}

	key := "enriched:" + strconv.FormatBool(includeBalance) + ":" + requestKey(addresses)
	if cached, ok := c.cache.Get(key); ok {
		if resp, ok := cached.([]types.Enriched); ok {
			return resp, nil
		}
	}

	resp, err := c.svc.GetAddressesEnriched(ctx, addresses, includeBalance)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, resp, c.ttl)
	return resp, nil
}

// GetTierInfoBatch memoizes tier lookups the same way.
func (c *CachedService) GetTierInfoBatch(ctx context.Context, addresses []string) (map[string]types.TierInfo, error) {
	if c.cache == nil {
		return c.svc.GetTierInfoBatch(ctx, addresses)
	}

	key := "tiers:" + requestKey(addresses)
	if cached, ok := c.cache.Get(key); ok {
		if resp, ok := cached.(map[string]types.TierInfo); ok {
			return resp, nil
		}
	}

	resp, err := c.svc.GetTierInfoBatch(ctx, addresses)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, resp, c.ttl)
	return resp, nil
}

// GetBalance is not memoized; single-address lookups are already one cache
// table read on the fresh path.
func (c *CachedService) GetBalance(ctx context.Context, address string) (string, error) {
	return c.svc.GetBalance(ctx, address)
}

// Invalidate busts the coordinator tables and drops every memoized response.
func (c *CachedService) Invalidate(address string, kind types.DataKind) error {
	err := c.svc.Invalidate(address, kind)
	if err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Clear()
	}
	return nil
}

// WaitBackground delegates to the underlying service.
func (c *CachedService) WaitBackground() {
	c.svc.WaitBackground()
}

func requestKey(addresses []string) string {
	normalized := normalize(addresses)
	return strings.Join(normalized, ",")
}
