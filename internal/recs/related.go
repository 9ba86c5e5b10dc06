package recs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"marketrec/internal/catalog"
)

// RelatedOptions tunes the related-products strategy. Zero values take the
// documented defaults.
type RelatedOptions struct {
	// Limit is the maximum result count (default 10).
	Limit int
	// MaxPerVendor caps how many results one vendor may contribute
	// (default 2).
	MaxPerVendor int
	// IncludeVendorBoost multiplies content scores by the candidate
	// vendor's reliability (default true).
	IncludeVendorBoost *bool
}

func (o RelatedOptions) withDefaults() (limit, maxPerVendor int, boost bool) {
	limit = o.Limit
	if limit <= 0 {
		limit = 10
	}
	maxPerVendor = o.MaxPerVendor
	if maxPerVendor <= 0 {
		maxPerVendor = 2
	}
	boost = true
	if o.IncludeVendorBoost != nil {
		boost = *o.IncludeVendorBoost
	}
	return limit, maxPerVendor, boost
}

// Related ranks in-stock products by content similarity to the source
// product, optionally boosted by vendor reliability. A missing source
// product yields an empty list, not an error: there is simply nothing to
// recommend.
func (e *Engine) Related(ctx context.Context, productID string, opts RelatedOptions) ([]ScoredProduct, error) {
	limit, maxPerVendor, boost := opts.withDefaults()

	key := fmt.Sprintf("related:%s:%d:%d:%t", productID, limit, maxPerVendor, boost)
	if v, ok := e.cache.Get(key); ok {
		if results, ok := v.([]ScoredProduct); ok {
			e.metrics.CacheHit(StrategyRelated)
			return results, nil
		}
	}
	e.metrics.CacheMiss(StrategyRelated)

	start := e.now()
	results, err := e.related(ctx, productID, limit, maxPerVendor, boost)
	if err != nil {
		e.metrics.Request(StrategyRelated, "error", e.now().Sub(start))
		return nil, err
	}
	e.metrics.Request(StrategyRelated, "ok", e.now().Sub(start))

	e.cache.Set(key, results)
	return results, nil
}

func (e *Engine) related(ctx context.Context, productID string, limit, maxPerVendor int, boost bool) ([]ScoredProduct, error) {
	source, err := e.store.ProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			slog.Info("related: source product not found", "product_id", productID)
			return []ScoredProduct{}, nil
		}
		return nil, fmt.Errorf("failed to load source product %s: %w", productID, err)
	}

	sourceTags := ProductTags(source)

	candidates, err := e.store.Products(ctx, catalog.ProductFilter{
		ExcludeID: productID,
		InStock:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates for %s: %w", productID, err)
	}

	if boost {
		if err := e.vendors.Prefetch(ctx, vendorIDs(candidates)); err != nil {
			return nil, fmt.Errorf("failed to prefetch vendor metrics: %w", err)
		}
	}

	scored := make([]ScoredProduct, 0, len(candidates))
	for _, candidate := range candidates {
		contentScore := ContentScore(sourceTags, source.Category, ProductTags(&candidate), candidate.Category)

		multiplier := 1.0
		if boost {
			m := e.vendors.Metrics(ctx, candidate.VendorID)
			multiplier = VendorReliability(m.AvgRating)
		}

		scored = append(scored, ScoredProduct{
			Product:          candidate,
			Score:            contentScore * multiplier,
			ContentScore:     contentScore,
			VendorMultiplier: multiplier,
		})
	}

	sortByScore(scored)
	scored = diversify(scored, maxPerVendor)
	return truncate(scored, limit), nil
}

func vendorIDs(products []catalog.Product) []string {
	ids := make([]string, 0, len(products))
	for i := range products {
		ids = append(ids, products[i].VendorID)
	}
	return ids
}
