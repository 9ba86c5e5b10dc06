package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a PostgreSQL database, for deployments
// where the storefront and the recommendation service share one catalog.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and ensures the catalog schema.
func NewPostgresStore(ctx context.Context, cfg Config) (*PostgresStore, error) {
	if cfg.PostgresURL == "" {
		return nil, fmt.Errorf("PostgreSQL URL is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL URL: %w", err)
	}
	if cfg.PostgresMaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.PostgresMaxConns)
	} else {
		poolCfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vendors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			sizes TEXT[] NOT NULL DEFAULT '{}',
			price DOUBLE PRECISION NOT NULL,
			mrp DOUBLE PRECISION NOT NULL,
			in_stock BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			vendor_id TEXT NOT NULL REFERENCES vendors(id)
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL REFERENCES products(id),
			user_id TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			vendor_id TEXT NOT NULL REFERENCES vendors(id),
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			order_id TEXT NOT NULL REFERENCES orders(id),
			product_id TEXT NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL DEFAULT 1
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_vendor ON products(vendor_id)",
		"CREATE INDEX IF NOT EXISTS idx_products_created ON products(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_ratings_product ON ratings(product_id)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_orders_vendor ON orders(vendor_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)",
	}
	for _, idx := range indexes {
		if _, err := s.pool.Exec(ctx, idx); err != nil {
			slog.Warn("failed to create index", "error", err)
		}
	}
	return nil
}

func (s *PostgresStore) ProductByID(ctx context.Context, id string) (*Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, category, color, sizes, price, mrp, in_stock, created_at, vendor_id
		 FROM products WHERE id = $1`, id)
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Color, &p.Sizes,
		&p.Price, &p.MRP, &p.InStock, &p.CreatedAt, &p.VendorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query product %s: %w", id, err)
	}
	if err := s.attachRatings(ctx, []*Product{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) Products(ctx context.Context, filter ProductFilter) ([]Product, error) {
	query := `SELECT id, name, category, color, sizes, price, mrp, in_stock, created_at, vendor_id FROM products`
	var conds []string
	var args []any

	if filter.ExcludeID != "" {
		args = append(args, filter.ExcludeID)
		conds = append(conds, fmt.Sprintf("id != $%d", len(args)))
	}
	if len(filter.ExcludeIDs) > 0 {
		args = append(args, filter.ExcludeIDs)
		conds = append(conds, fmt.Sprintf("id != ALL($%d)", len(args)))
	}
	if filter.InStock {
		conds = append(conds, "in_stock")
	}
	if !filter.CreatedAfter.IsZero() {
		args = append(args, filter.CreatedAfter.UTC())
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var refs []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Color, &p.Sizes,
			&p.Price, &p.MRP, &p.InStock, &p.CreatedAt, &p.VendorID); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		refs = append(refs, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	if err := s.attachRatings(ctx, refs); err != nil {
		return nil, err
	}
	out := make([]Product, len(refs))
	for i, p := range refs {
		out[i] = *p
	}
	return out, nil
}

func (s *PostgresStore) VendorByID(ctx context.Context, id string) (*Vendor, error) {
	var v Vendor
	err := s.pool.QueryRow(ctx, "SELECT id, name FROM vendors WHERE id = $1", id).Scan(&v.ID, &v.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query vendor %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, category, color, sizes, price, mrp, in_stock, created_at, vendor_id
		 FROM products WHERE vendor_id = $1 ORDER BY created_at DESC, id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendor products: %w", err)
	}
	defer rows.Close()

	var refs []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Color, &p.Sizes,
			&p.Price, &p.MRP, &p.InStock, &p.CreatedAt, &p.VendorID); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		refs = append(refs, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vendor products: %w", err)
	}
	if err := s.attachRatings(ctx, refs); err != nil {
		return nil, err
	}
	for _, p := range refs {
		v.Products = append(v.Products, *p)
	}
	return &v, nil
}

func (s *PostgresStore) OrderCountByVendor(ctx context.Context, vendorID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders WHERE vendor_id = $1", vendorID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vendor orders: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) RecentOrdersByUser(ctx context.Context, userID string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		"SELECT id, user_id, vendor_id, created_at FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT $2",
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	index := make(map[string]int)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.VendorID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	itemRows, err := s.pool.Query(ctx,
		"SELECT order_id, product_id, quantity FROM order_items WHERE order_id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var orderID string
		var item OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}
	return orders, nil
}

func (s *PostgresStore) OrderItemCount(ctx context.Context, productID string, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE oi.product_id = $1 AND o.created_at >= $2`,
		productID, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count order items: %w", err)
	}
	return count, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// attachRatings loads ratings for a product batch in one query.
func (s *PostgresStore) attachRatings(ctx context.Context, products []*Product) error {
	if len(products) == 0 {
		return nil
	}
	index := make(map[string]*Product, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		index[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := s.pool.Query(ctx,
		"SELECT id, product_id, user_id, score, created_at FROM ratings WHERE product_id = ANY($1)", ids)
	if err != nil {
		return fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Score, &r.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan rating: %w", err)
		}
		if p, ok := index[r.ProductID]; ok {
			p.Ratings = append(p.Ratings, r)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return nil
}
