// Package catalog defines the marketplace read model and the data-access
// interface the recommendation engine consumes. The engine never mutates
// catalog data; write helpers on concrete stores exist only for seeding
// and tests.
package catalog

import "time"

// Product is a single sellable item owned by a vendor.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Color     string    `json:"color,omitempty"`
	Sizes     []string  `json:"sizes,omitempty"`
	Price     float64   `json:"price"`
	MRP       float64   `json:"mrp"`
	InStock   bool      `json:"inStock"`
	CreatedAt time.Time `json:"createdAt"`
	VendorID  string    `json:"vendorId"`
	Ratings   []Rating  `json:"ratings,omitempty"`
}

// Vendor is a seller account owning products. The storefront calls this a
// "store"; the engine only cares about it as the unit of diversity and
// reliability scoring.
type Vendor struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Products []Product `json:"products,omitempty"`
}

// Rating is a 1-5 review score left by one user on one product.
type Rating struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// Order is a purchase placed by one user against one vendor.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	VendorID  string      `json:"vendorId"`
	CreatedAt time.Time   `json:"createdAt"`
	Items     []OrderItem `json:"items,omitempty"`
}

// OrderItem references a purchased product and quantity within an order.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// AvgRating returns the mean of the product's own ratings, 0 if none.
func (p *Product) AvgRating() float64 {
	if len(p.Ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range p.Ratings {
		sum += r.Score
	}
	return sum / float64(len(p.Ratings))
}
