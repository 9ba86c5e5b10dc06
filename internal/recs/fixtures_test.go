package recs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marketrec/internal/cache"
	"marketrec/internal/catalog"
)

var fixtureNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// newTestEngine builds an engine over a seeded in-memory catalog:
//
//	v1 "TopTech"  (avg rating 4.7): p1, p2 electronics (black)
//	v2 "BudgetCo" (avg rating 2.0): p3 electronics (black), p4 clothing (red)
//	v3 "MidMart"  (no ratings):     p5 clothing (blue), out-of-stock p6
func newTestEngine(t *testing.T) (*Engine, *catalog.MemoryStore, *testClock) {
	t.Helper()
	store := catalog.NewMemoryStore()
	clock := &testClock{now: fixtureNow}

	mustAdd := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("fixture setup failed: %v", err)
		}
	}

	mustAdd(store.AddVendor(catalog.Vendor{ID: "v1", Name: "TopTech"}))
	mustAdd(store.AddVendor(catalog.Vendor{ID: "v2", Name: "BudgetCo"}))
	mustAdd(store.AddVendor(catalog.Vendor{ID: "v3", Name: "MidMart"}))

	week := 7 * 24 * time.Hour
	mustAdd(store.AddProduct(catalog.Product{
		ID: "p1", Name: "Noise-cancelling headphones", Category: "Electronics", Color: "black",
		Price: 199, MRP: 249, InStock: true, CreatedAt: fixtureNow.Add(-8 * week), VendorID: "v1",
	}))
	mustAdd(store.AddProduct(catalog.Product{
		ID: "p2", Name: "Bluetooth speaker", Category: "Electronics", Color: "black",
		Price: 89, MRP: 99, InStock: true, CreatedAt: fixtureNow.Add(-6 * week), VendorID: "v1",
	}))
	mustAdd(store.AddProduct(catalog.Product{
		ID: "p3", Name: "Budget earbuds", Category: "Electronics", Color: "black",
		Price: 19, MRP: 29, InStock: true, CreatedAt: fixtureNow.Add(-5 * week), VendorID: "v2",
	}))
	mustAdd(store.AddProduct(catalog.Product{
		ID: "p4", Name: "Graphic tee", Category: "Clothing", Color: "red", Sizes: []string{"M", "L"},
		Price: 15, MRP: 20, InStock: true, CreatedAt: fixtureNow.Add(-4 * week), VendorID: "v2",
	}))
	mustAdd(store.AddProduct(catalog.Product{
		ID: "p5", Name: "Denim jacket", Category: "Clothing", Color: "blue", Sizes: []string{"L"},
		Price: 49, MRP: 59, InStock: true, CreatedAt: fixtureNow.Add(-3 * week), VendorID: "v3",
	}))
	mustAdd(store.AddProduct(catalog.Product{
		ID: "p6", Name: "Discontinued charger", Category: "Electronics",
		Price: 9, MRP: 12, InStock: false, CreatedAt: fixtureNow.Add(-2 * week), VendorID: "v3",
	}))

	// v1 averages 4.7, v2 averages 2.0
	mustAdd(store.AddRating(catalog.Rating{ID: "r1", ProductID: "p1", UserID: "u9", Score: 4.7, CreatedAt: fixtureNow.Add(-week)}))
	mustAdd(store.AddRating(catalog.Rating{ID: "r2", ProductID: "p2", UserID: "u9", Score: 4.7, CreatedAt: fixtureNow.Add(-week)}))
	mustAdd(store.AddRating(catalog.Rating{ID: "r3", ProductID: "p3", UserID: "u9", Score: 2.0, CreatedAt: fixtureNow.Add(-week)}))
	mustAdd(store.AddRating(catalog.Rating{ID: "r4", ProductID: "p4", UserID: "u8", Score: 2.0, CreatedAt: fixtureNow.Add(-week)}))

	engine := NewEngine(store, cache.NewWithClock(clock.Now), WithClock(clock.Now))
	return engine, store, clock
}

// failingStore wraps a Store, breaking selected reads to exercise the
// degradation paths.
type failingStore struct {
	catalog.Store
	failOrders  bool
	failVendors bool
}

var errStoreDown = errors.New("store down")

func (s *failingStore) RecentOrdersByUser(ctx context.Context, userID string, limit int) ([]catalog.Order, error) {
	if s.failOrders {
		return nil, errStoreDown
	}
	return s.Store.RecentOrdersByUser(ctx, userID, limit)
}

func (s *failingStore) VendorByID(ctx context.Context, id string) (*catalog.Vendor, error) {
	if s.failVendors {
		return nil, errStoreDown
	}
	return s.Store.VendorByID(ctx, id)
}
