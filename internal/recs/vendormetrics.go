package recs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"marketrec/internal/cache"
	"marketrec/internal/catalog"
)

// vendorMetricsTTL is longer than the default because vendor aggregates are
// expensive to compute and change slowly.
const vendorMetricsTTL = 10 * time.Minute

// prefetchConcurrency bounds the vendor-metric fan-out per request.
const prefetchConcurrency = 8

// VendorMetrics is a cached aggregate snapshot of one vendor's performance.
type VendorMetrics struct {
	AvgRating     float64
	TotalProducts int
	TotalOrders   int
}

// VendorMetricsProvider computes and caches per-vendor aggregates. A vendor
// that cannot be read yields zero metrics (and so the default reliability
// multiplier) instead of an error: bad vendor data should degrade a
// candidate's score, never break the request.
type VendorMetricsProvider struct {
	store catalog.Store
	cache *cache.Cache
}

// NewVendorMetricsProvider creates a provider over the given catalog and cache.
func NewVendorMetricsProvider(store catalog.Store, c *cache.Cache) *VendorMetricsProvider {
	return &VendorMetricsProvider{store: store, cache: c}
}

// Metrics returns the vendor's aggregate metrics, from cache when fresh.
// Only successfully computed aggregates are cached; failures return zero
// metrics uncached so the next request retries.
func (p *VendorMetricsProvider) Metrics(ctx context.Context, vendorID string) VendorMetrics {
	key := vendorCacheKey(vendorID)
	if v, ok := p.cache.Get(key); ok {
		if m, ok := v.(VendorMetrics); ok {
			return m
		}
	}

	vendor, err := p.store.VendorByID(ctx, vendorID)
	if err != nil {
		slog.Warn("failed to fetch vendor metrics", "vendor_id", vendorID, "error", err)
		return VendorMetrics{}
	}

	var ratingSum float64
	var ratingCount int
	for _, product := range vendor.Products {
		for _, r := range product.Ratings {
			ratingSum += r.Score
			ratingCount++
		}
	}
	avgRating := 0.0
	if ratingCount > 0 {
		avgRating = ratingSum / float64(ratingCount)
	}

	orderCount, err := p.store.OrderCountByVendor(ctx, vendorID)
	if err != nil {
		slog.Warn("failed to count vendor orders", "vendor_id", vendorID, "error", err)
		return VendorMetrics{}
	}

	m := VendorMetrics{
		AvgRating:     avgRating,
		TotalProducts: len(vendor.Products),
		TotalOrders:   orderCount,
	}
	p.cache.SetTTL(key, m, vendorMetricsTTL)
	return m
}

// Prefetch warms the metrics cache for a set of vendors with a bounded
// concurrent fan-out. Per-vendor soft failures are absorbed by Metrics;
// only context cancellation aborts the group.
func (p *VendorMetricsProvider) Prefetch(ctx context.Context, vendorIDs []string) error {
	seen := make(map[string]bool, len(vendorIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchConcurrency)
	for _, id := range vendorIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.Metrics(ctx, id)
			return nil
		})
	}
	return g.Wait()
}

func vendorCacheKey(vendorID string) string {
	return fmt.Sprintf("vendor:%s", vendorID)
}
