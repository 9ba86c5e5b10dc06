package recs

import (
	"sort"
	"time"

	"marketrec/internal/cache"
	"marketrec/internal/catalog"
	"marketrec/internal/observability"
)

// Strategy names, used in cache keys, metrics labels and API responses.
const (
	StrategyRelated      = "related"
	StrategyTrending     = "trending"
	StrategyPersonalized = "personalized"
)

// ScoredProduct is a catalog product plus the transient scoring fields a
// strategy computed for it. Scoring fields never leave the engine: the query
// façade returns plain catalog products.
type ScoredProduct struct {
	catalog.Product

	// Score is the final ranking score, always non-negative and finite.
	Score float64

	// Related / personalized components.
	ContentScore     float64
	VendorMultiplier float64

	// Trending components.
	RecentOrders     int
	VendorScore      float64
	AvgProductRating float64
}

// Engine orchestrates the three ranking strategies over a catalog store,
// a TTL cache and the vendor metrics provider. It holds no per-request
// state; the cache is the only shared mutable state between requests.
type Engine struct {
	store   catalog.Store
	cache   *cache.Cache
	vendors *VendorMetricsProvider
	metrics *observability.Metrics
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects a time source, so tests can control recency and TTLs.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine over the given catalog store and cache.
func NewEngine(store catalog.Store, c *cache.Cache, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		cache: c,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.vendors = NewVendorMetricsProvider(store, c)
	return e
}

// InvalidateProduct drops every cached list derived from the product, along
// with any related/trending/personalized entry mentioning it.
func (e *Engine) InvalidateProduct(productID string) {
	e.cache.Clear(productID)
}

// InvalidateUser drops the user's personalized entries.
func (e *Engine) InvalidateUser(userID string) {
	e.cache.Clear(userID)
}

// ClearCache empties cached results matching the pattern; an empty pattern
// clears everything.
func (e *Engine) ClearCache(pattern string) {
	e.cache.Clear(pattern)
}

// CacheStats reports the cache entry count and keys.
func (e *Engine) CacheStats() (int, []string) {
	return e.cache.Stats()
}

// sortByScore orders candidates by descending score. The sort is stable, so
// equal-score items keep the catalog's listing order.
func sortByScore(items []ScoredProduct) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

func truncate(items []ScoredProduct, limit int) []ScoredProduct {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
