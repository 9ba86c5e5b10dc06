package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Type constants for catalog backends
const (
	TypeMemory     = "memory"
	TypeSQLite     = "sqlite"
	TypePostgreSQL = "postgresql"
)

// ErrNotFound is returned when a product or vendor does not exist.
// Callers should check it with errors.Is.
var ErrNotFound = errors.New("catalog: not found")

// ProductFilter narrows the product listings the engine asks for.
// Zero values mean "no constraint".
type ProductFilter struct {
	// ExcludeID drops a single product (the source of a related query).
	ExcludeID string
	// ExcludeIDs drops a set of products (a user's purchase history).
	ExcludeIDs []string
	// InStock limits results to purchasable products when true.
	InStock bool
	// CreatedAfter limits results to products created at or after the
	// given instant when non-zero.
	CreatedAfter time.Time
}

// Store is the read-only data-access interface the recommendation engine
// requires. Implementations must be safe for concurrent use and must return
// products with their ratings populated.
type Store interface {
	// ProductByID fetches one product with its ratings.
	// Returns ErrNotFound if the product does not exist.
	ProductByID(ctx context.Context, id string) (*Product, error)

	// Products lists products matching the filter, with ratings populated,
	// in a stable implementation-defined order.
	Products(ctx context.Context, filter ProductFilter) ([]Product, error)

	// VendorByID fetches one vendor with its products and their ratings.
	// Returns ErrNotFound if the vendor does not exist.
	VendorByID(ctx context.Context, id string) (*Vendor, error)

	// OrderCountByVendor counts all-time orders placed against a vendor.
	OrderCountByVendor(ctx context.Context, vendorID string) (int, error)

	// RecentOrdersByUser lists a user's most recent orders, newest first,
	// with order items populated. At most limit orders are returned.
	RecentOrdersByUser(ctx context.Context, userID string, limit int) ([]Order, error)

	// OrderItemCount counts order items referencing a product whose parent
	// order was created at or after since.
	OrderItemCount(ctx context.Context, productID string, since time.Time) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// Config selects and configures a catalog backend.
type Config struct {
	// Type is one of "memory", "sqlite" or "postgresql".
	Type string

	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string

	// PostgresURL is the connection string for the postgresql backend.
	PostgresURL string

	// PostgresMaxConns caps the postgresql pool size (default 10).
	PostgresMaxConns int
}

// Open creates a Store for the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Type {
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypeSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case TypePostgreSQL:
		return NewPostgresStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown catalog type: %s (valid: memory, sqlite, postgresql)", cfg.Type)
	}
}
