package recs

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"marketrec/internal/catalog"
)

// trendingTTL is the longest cache TTL in the engine: the candidate join is
// the most expensive computation and the result shifts slowly.
const trendingTTL = 15 * time.Minute

// TrendingOptions tunes the trending strategy. Zero values take the
// documented defaults.
type TrendingOptions struct {
	// Limit is the maximum result count (default 20).
	Limit int
	// MaxPerVendor caps how many results one vendor may contribute
	// (default 3).
	MaxPerVendor int
	// Days is the lookback window for both candidate recency and order
	// counting (default 30).
	Days int
}

func (o TrendingOptions) withDefaults() TrendingOptions {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.MaxPerVendor <= 0 {
		o.MaxPerVendor = 3
	}
	if o.Days <= 0 {
		o.Days = 30
	}
	return o
}

// Trending ranks recently created in-stock products by a blend of recent
// order volume, vendor reliability, product rating and recency. Only
// products created inside the lookback window are candidates, so older
// evergreen bestsellers never rank.
func (e *Engine) Trending(ctx context.Context, opts TrendingOptions) ([]ScoredProduct, error) {
	opts = opts.withDefaults()

	key := fmt.Sprintf("trending:%d:%d:%d", opts.Limit, opts.MaxPerVendor, opts.Days)
	if v, ok := e.cache.Get(key); ok {
		if results, ok := v.([]ScoredProduct); ok {
			e.metrics.CacheHit(StrategyTrending)
			return results, nil
		}
	}
	e.metrics.CacheMiss(StrategyTrending)

	start := e.now()
	results, err := e.trending(ctx, opts)
	if err != nil {
		e.metrics.Request(StrategyTrending, "error", e.now().Sub(start))
		return nil, err
	}
	e.metrics.Request(StrategyTrending, "ok", e.now().Sub(start))

	e.cache.SetTTL(key, results, trendingTTL)
	return results, nil
}

func (e *Engine) trending(ctx context.Context, opts TrendingOptions) ([]ScoredProduct, error) {
	now := e.now()
	cutoff := now.AddDate(0, 0, -opts.Days)

	candidates, err := e.store.Products(ctx, catalog.ProductFilter{
		InStock:      true,
		CreatedAfter: cutoff,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load trending candidates: %w", err)
	}

	if err := e.vendors.Prefetch(ctx, vendorIDs(candidates)); err != nil {
		return nil, fmt.Errorf("failed to prefetch vendor metrics: %w", err)
	}

	// Per-candidate recent order counts are independent reads; fan them
	// out with the same bound as the metrics prefetch.
	recentOrders := make([]int, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchConcurrency)
	for i := range candidates {
		g.Go(func() error {
			n, err := e.store.OrderItemCount(gctx, candidates[i].ID, cutoff)
			if err != nil {
				return fmt.Errorf("failed to count recent orders for %s: %w", candidates[i].ID, err)
			}
			recentOrders[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scored := make([]ScoredProduct, 0, len(candidates))
	for i, candidate := range candidates {
		m := e.vendors.Metrics(ctx, candidate.VendorID)
		vendorScore := VendorReliability(m.AvgRating)
		avgRating := candidate.AvgRating()

		daysSinceCreation := now.Sub(candidate.CreatedAt).Hours() / 24
		recencyBoost := 1 - daysSinceCreation/float64(opts.Days)
		if recencyBoost < 0 {
			recencyBoost = 0
		}

		// recentOrders is a raw count, not normalized; order volume
		// dominates the blend.
		score := 0.4*float64(recentOrders[i]) +
			0.3*vendorScore +
			0.2*avgRating +
			0.1*recencyBoost

		scored = append(scored, ScoredProduct{
			Product:          candidate,
			Score:            score,
			RecentOrders:     recentOrders[i],
			VendorScore:      vendorScore,
			AvgProductRating: avgRating,
		})
	}

	sortByScore(scored)
	scored = diversify(scored, opts.MaxPerVendor)
	return truncate(scored, opts.Limit), nil
}
