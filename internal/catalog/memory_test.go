package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func seedMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()

	require.NoError(t, s.AddVendor(Vendor{ID: "v1", Name: "Alpha"}))
	require.NoError(t, s.AddVendor(Vendor{ID: "v2", Name: "Beta"}))

	require.NoError(t, s.AddProduct(Product{
		ID: "p1", Name: "Lamp", Category: "Home", Color: "white",
		Price: 20, MRP: 25, InStock: true,
		CreatedAt: memNow.AddDate(0, 0, -10), VendorID: "v1",
	}))
	require.NoError(t, s.AddProduct(Product{
		ID: "p2", Name: "Chair", Category: "Home", Color: "black",
		Price: 80, MRP: 100, InStock: false,
		CreatedAt: memNow.AddDate(0, 0, -40), VendorID: "v1",
	}))
	require.NoError(t, s.AddProduct(Product{
		ID: "p3", Name: "Mug", Category: "Kitchen", Color: "blue",
		Price: 8, MRP: 10, InStock: true,
		CreatedAt: memNow.AddDate(0, 0, -5), VendorID: "v2",
	}))

	require.NoError(t, s.AddRating(Rating{ID: "r1", ProductID: "p1", UserID: "u1", Score: 5, CreatedAt: memNow}))
	require.NoError(t, s.AddRating(Rating{ID: "r2", ProductID: "p1", UserID: "u2", Score: 4, CreatedAt: memNow}))

	require.NoError(t, s.AddOrder(Order{
		ID: "o1", UserID: "u1", VendorID: "v1",
		CreatedAt: memNow.AddDate(0, 0, -2),
		Items:     []OrderItem{{ProductID: "p1", Quantity: 2}},
	}))
	require.NoError(t, s.AddOrder(Order{
		ID: "o2", UserID: "u1", VendorID: "v2",
		CreatedAt: memNow.AddDate(0, 0, -1),
		Items:     []OrderItem{{ProductID: "p3", Quantity: 1}},
	}))
	require.NoError(t, s.AddOrder(Order{
		ID: "o3", UserID: "u2", VendorID: "v1",
		CreatedAt: memNow.AddDate(0, 0, -60),
		Items:     []OrderItem{{ProductID: "p1", Quantity: 1}},
	}))
	return s
}

func TestMemoryProductByID(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()

	p, err := s.ProductByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Name)
	assert.Len(t, p.Ratings, 2)
	assert.InDelta(t, 4.5, p.AvgRating(), 1e-9)

	_, err = s.ProductByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProductCopiesAreIsolated(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()

	p, err := s.ProductByID(ctx, "p1")
	require.NoError(t, err)
	p.Name = "Mutated"
	p.Ratings[0].Score = 1

	again, err := s.ProductByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Lamp", again.Name)
	assert.Equal(t, 5.0, again.Ratings[0].Score)
}

func TestMemoryProductsFilter(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()

	all, err := s.Products(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	inStock, err := s.Products(ctx, ProductFilter{InStock: true})
	require.NoError(t, err)
	require.Len(t, inStock, 2)
	assert.Equal(t, "p1", inStock[0].ID)
	assert.Equal(t, "p3", inStock[1].ID)

	recent, err := s.Products(ctx, ProductFilter{CreatedAfter: memNow.AddDate(0, 0, -7)})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "p3", recent[0].ID)

	excluded, err := s.Products(ctx, ProductFilter{ExcludeID: "p1", ExcludeIDs: []string{"p2"}})
	require.NoError(t, err)
	require.Len(t, excluded, 1)
	assert.Equal(t, "p3", excluded[0].ID)
}

func TestMemoryVendorByID(t *testing.T) {
	s := seedMemoryStore(t)

	v, err := s.VendorByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", v.Name)
	assert.Len(t, v.Products, 2)

	_, err = s.VendorByID(context.Background(), "v9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryOrderCountByVendor(t *testing.T) {
	s := seedMemoryStore(t)

	n, err := s.OrderCountByVendor(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryRecentOrdersByUser(t *testing.T) {
	s := seedMemoryStore(t)

	orders, err := s.RecentOrdersByUser(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	// newest first
	assert.Equal(t, "o2", orders[0].ID)
	assert.Equal(t, "o1", orders[1].ID)

	limited, err := s.RecentOrdersByUser(context.Background(), "u1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "o2", limited[0].ID)
}

func TestMemoryOrderItemCount(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()

	// o1 (2 days ago) is in the window, o3 (60 days ago) is not
	n, err := s.OrderItemCount(ctx, "p1", memNow.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := s.OrderItemCount(ctx, "p1", memNow.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, 2, all)
}

func TestMemoryAddValidation(t *testing.T) {
	s := NewMemoryStore()

	assert.Error(t, s.AddVendor(Vendor{}))
	require.NoError(t, s.AddVendor(Vendor{ID: "v1"}))
	assert.Error(t, s.AddVendor(Vendor{ID: "v1"}))

	assert.Error(t, s.AddProduct(Product{ID: "p1", VendorID: "v9"}))
	assert.Error(t, s.AddRating(Rating{ProductID: "p9"}))
}
