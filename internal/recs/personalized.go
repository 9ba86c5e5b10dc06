package recs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"marketrec/internal/catalog"
)

const personalizedTTL = 10 * time.Minute

// Personalized strategy constants: how much history is considered and how
// strictly vendors are capped. The diversity cap is fixed here, unlike the
// other strategies.
const (
	historyOrderCount        = 10
	personalizedMaxPerVendor = 2
)

// PersonalizedOptions tunes the personalized strategy.
type PersonalizedOptions struct {
	// Limit is the maximum result count (default 15).
	Limit int
}

func (o PersonalizedOptions) withDefaults() PersonalizedOptions {
	if o.Limit <= 0 {
		o.Limit = 15
	}
	return o
}

// Personalized ranks in-stock, not-yet-purchased products by similarity to
// the user's purchase history, boosted by vendor reliability.
// Personalization is best-effort: a user with no history gets the trending
// list (cold start), and any internal failure also falls back to trending
// rather than surfacing an error.
func (e *Engine) Personalized(ctx context.Context, userID string, opts PersonalizedOptions) ([]ScoredProduct, error) {
	opts = opts.withDefaults()

	key := fmt.Sprintf("personalized:%s:%d", userID, opts.Limit)
	if v, ok := e.cache.Get(key); ok {
		if results, ok := v.([]ScoredProduct); ok {
			e.metrics.CacheHit(StrategyPersonalized)
			return results, nil
		}
	}
	e.metrics.CacheMiss(StrategyPersonalized)

	start := e.now()
	results, coldStart, err := e.personalized(ctx, userID, opts)
	if err != nil {
		slog.Warn("personalized recommendation failed, falling back to trending",
			"user_id", userID, "error", err)
		e.metrics.Request(StrategyPersonalized, "fallback", e.now().Sub(start))
		return e.Trending(ctx, TrendingOptions{Limit: opts.Limit})
	}
	if coldStart {
		e.metrics.Request(StrategyPersonalized, "cold_start", e.now().Sub(start))
		return results, nil
	}
	e.metrics.Request(StrategyPersonalized, "ok", e.now().Sub(start))

	e.cache.SetTTL(key, results, personalizedTTL)
	return results, nil
}

// personalized computes the ranking, reporting coldStart when the user has
// no purchase history and the trending list was returned instead.
func (e *Engine) personalized(ctx context.Context, userID string, opts PersonalizedOptions) (results []ScoredProduct, coldStart bool, err error) {
	orders, err := e.store.RecentOrdersByUser(ctx, userID, historyOrderCount)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load order history for %s: %w", userID, err)
	}

	purchased := make(map[string]bool)
	for _, order := range orders {
		for _, item := range order.Items {
			purchased[item.ProductID] = true
		}
	}
	if len(purchased) == 0 {
		trending, err := e.Trending(ctx, TrendingOptions{Limit: opts.Limit})
		return trending, true, err
	}

	purchasedIDs := make([]string, 0, len(purchased))
	for id := range purchased {
		purchasedIDs = append(purchasedIDs, id)
	}

	preferredCategories := make(map[string]bool)
	var tagValues []string
	for _, id := range purchasedIDs {
		product, err := e.store.ProductByID(ctx, id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				// Purchased product since removed from the catalog;
				// it still excludes itself via purchasedIDs.
				continue
			}
			return nil, false, fmt.Errorf("failed to load purchased product %s: %w", id, err)
		}
		preferredCategories[product.Category] = true
		if product.Color != "" {
			tagValues = append(tagValues, product.Color)
		}
		tagValues = append(tagValues, product.Sizes...)
	}
	preferredTags := NewTagSet(tagValues...)

	candidates, err := e.store.Products(ctx, catalog.ProductFilter{
		ExcludeIDs: purchasedIDs,
		InStock:    true,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to load candidates for %s: %w", userID, err)
	}

	if err := e.vendors.Prefetch(ctx, vendorIDs(candidates)); err != nil {
		return nil, false, fmt.Errorf("failed to prefetch vendor metrics: %w", err)
	}

	scored := make([]ScoredProduct, 0, len(candidates))
	for _, candidate := range candidates {
		categoryMatch := 0.0
		if preferredCategories[candidate.Category] {
			categoryMatch = 1
		}

		// Guard the division: a history of tagless products leaves
		// preferredTags empty.
		tagScore := 0.0
		if preferredTags.Len() > 0 {
			overlap := ProductTags(&candidate).Overlap(preferredTags)
			tagScore = float64(overlap) / float64(preferredTags.Len())
			if tagScore > 1 {
				tagScore = 1
			}
		}

		contentScore := 0.5*categoryMatch + 0.5*tagScore
		m := e.vendors.Metrics(ctx, candidate.VendorID)
		multiplier := VendorReliability(m.AvgRating)

		scored = append(scored, ScoredProduct{
			Product:          candidate,
			Score:            contentScore * multiplier,
			ContentScore:     contentScore,
			VendorMultiplier: multiplier,
		})
	}

	sortByScore(scored)
	scored = diversify(scored, personalizedMaxPerVendor)
	return truncate(scored, opts.Limit), false, nil
}
