package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps the whole catalog in process memory.
// It is the development backend and the test double for the engine.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*Product
	vendors  map[string]*Vendor
	orders   map[string]*Order
	// insertion order of products, so listings are stable across calls
	productOrder []string
	orderOrder   []string
}

// NewMemoryStore creates an empty in-memory catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]*Product),
		vendors:  make(map[string]*Vendor),
		orders:   make(map[string]*Order),
	}
}

// AddVendor registers a vendor. Products are attached via AddProduct.
func (s *MemoryStore) AddVendor(v Vendor) error {
	if v.ID == "" {
		return fmt.Errorf("vendor id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.vendors[v.ID]; exists {
		return fmt.Errorf("vendor already exists: %s", v.ID)
	}
	v.Products = nil
	s.vendors[v.ID] = &v
	return nil
}

// AddProduct registers a product under its vendor.
func (s *MemoryStore) AddProduct(p Product) error {
	if p.ID == "" || p.VendorID == "" {
		return fmt.Errorf("product id and vendor id are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[p.ID]; exists {
		return fmt.Errorf("product already exists: %s", p.ID)
	}
	if _, ok := s.vendors[p.VendorID]; !ok {
		return fmt.Errorf("unknown vendor: %s", p.VendorID)
	}
	s.products[p.ID] = &p
	s.productOrder = append(s.productOrder, p.ID)
	return nil
}

// AddRating attaches a rating to its product.
func (s *MemoryStore) AddRating(r Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[r.ProductID]
	if !ok {
		return fmt.Errorf("unknown product: %s", r.ProductID)
	}
	p.Ratings = append(p.Ratings, r)
	return nil
}

// AddOrder registers an order with its items.
func (s *MemoryStore) AddOrder(o Order) error {
	if o.ID == "" {
		return fmt.Errorf("order id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID]; exists {
		return fmt.Errorf("order already exists: %s", o.ID)
	}
	s.orders[o.ID] = &o
	s.orderOrder = append(s.orderOrder, o.ID)
	return nil
}

func (s *MemoryStore) ProductByID(_ context.Context, id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneProduct(p)
	return &c, nil
}

func (s *MemoryStore) Products(_ context.Context, filter ProductFilter) ([]Product, error) {
	excluded := make(map[string]bool, len(filter.ExcludeIDs)+1)
	if filter.ExcludeID != "" {
		excluded[filter.ExcludeID] = true
	}
	for _, id := range filter.ExcludeIDs {
		excluded[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		p := s.products[id]
		if excluded[p.ID] {
			continue
		}
		if filter.InStock && !p.InStock {
			continue
		}
		if !filter.CreatedAfter.IsZero() && p.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

func (s *MemoryStore) VendorByID(_ context.Context, id string) (*Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vendors[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := Vendor{ID: v.ID, Name: v.Name}
	for _, pid := range s.productOrder {
		if p := s.products[pid]; p.VendorID == id {
			out.Products = append(out.Products, cloneProduct(p))
		}
	}
	return &out, nil
}

func (s *MemoryStore) OrderCountByVendor(_ context.Context, vendorID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, o := range s.orders {
		if o.VendorID == vendorID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) RecentOrdersByUser(_ context.Context, userID string, limit int) ([]Order, error) {
	s.mu.RLock()
	out := make([]Order, 0, limit)
	for _, id := range s.orderOrder {
		o := s.orders[id]
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) OrderItemCount(_ context.Context, productID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, o := range s.orders {
		if o.CreatedAt.Before(since) {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == productID {
				count++
			}
		}
	}
	return count, nil
}

// Close is a no-op for the in-memory catalog.
func (s *MemoryStore) Close() error {
	return nil
}

func cloneProduct(p *Product) Product {
	c := *p
	if p.Sizes != nil {
		c.Sizes = append([]string(nil), p.Sizes...)
	}
	if p.Ratings != nil {
		c.Ratings = append([]Rating(nil), p.Ratings...)
	}
	return c
}
