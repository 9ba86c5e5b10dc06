package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLite has a default limit of 999 bindable parameters per query, so
// ratings/items lookups for product lists are chunked well below it.
const sqliteInChunk = 500

// SQLiteStore implements Store on a local SQLite database.
// This is the default backend for single-instance deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) a SQLite catalog database.
// It enables WAL mode for better concurrent read performance.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "data/marketrec.db"
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
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
			sizes TEXT NOT NULL DEFAULT '[]',
			price REAL NOT NULL,
			mrp REAL NOT NULL,
			in_stock INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			vendor_id TEXT NOT NULL REFERENCES vendors(id)
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL REFERENCES products(id),
			user_id TEXT NOT NULL,
			score REAL NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			vendor_id TEXT NOT NULL REFERENCES vendors(id),
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			order_id TEXT NOT NULL REFERENCES orders(id),
			product_id TEXT NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL DEFAULT 1
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
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
		if _, err := s.db.Exec(idx); err != nil {
			slog.Warn("failed to create index", "error", err)
		}
	}
	return nil
}

// InsertVendor adds a vendor row. Used by the seed tool and tests only.
func (s *SQLiteStore) InsertVendor(ctx context.Context, v Vendor) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO vendors (id, name) VALUES (?, ?)", v.ID, v.Name)
	if err != nil {
		return fmt.Errorf("failed to insert vendor %s: %w", v.ID, err)
	}
	return nil
}

// InsertProduct adds a product row. Used by the seed tool and tests only.
func (s *SQLiteStore) InsertProduct(ctx context.Context, p Product) error {
	sizes, err := json.Marshal(p.Sizes)
	if err != nil {
		return fmt.Errorf("failed to encode sizes for %s: %w", p.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, category, color, sizes, price, mrp, in_stock, created_at, vendor_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Category, p.Color, string(sizes), p.Price, p.MRP, p.InStock, p.CreatedAt.UTC(), p.VendorID)
	if err != nil {
		return fmt.Errorf("failed to insert product %s: %w", p.ID, err)
	}
	return nil
}

// InsertRating adds a rating row. Used by the seed tool and tests only.
func (s *SQLiteStore) InsertRating(ctx context.Context, r Rating) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO ratings (id, product_id, user_id, score, created_at) VALUES (?, ?, ?, ?, ?)",
		r.ID, r.ProductID, r.UserID, r.Score, r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert rating %s: %w", r.ID, err)
	}
	return nil
}

// InsertOrder adds an order and its items in one transaction.
// Used by the seed tool and tests only.
func (s *SQLiteStore) InsertOrder(ctx context.Context, o Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO orders (id, user_id, vendor_id, created_at) VALUES (?, ?, ?, ?)",
		o.ID, o.UserID, o.VendorID, o.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert order %s: %w", o.ID, err)
	}
	for _, item := range o.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, quantity) VALUES (?, ?, ?)",
			o.ID, item.ProductID, qty); err != nil {
			return fmt.Errorf("failed to insert order item for %s: %w", o.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ProductByID(ctx context.Context, id string) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, category, color, sizes, price, mrp, in_stock, created_at, vendor_id
		 FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query product %s: %w", id, err)
	}
	if err := s.attachRatings(ctx, []*Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) Products(ctx context.Context, filter ProductFilter) ([]Product, error) {
	query := `SELECT id, name, category, color, sizes, price, mrp, in_stock, created_at, vendor_id FROM products`
	var conds []string
	var args []any

	if filter.ExcludeID != "" {
		conds = append(conds, "id != ?")
		args = append(args, filter.ExcludeID)
	}
	if len(filter.ExcludeIDs) > 0 {
		conds = append(conds, fmt.Sprintf("id NOT IN (%s)", placeholders(len(filter.ExcludeIDs))))
		for _, id := range filter.ExcludeIDs {
			args = append(args, id)
		}
	}
	if filter.InStock {
		conds = append(conds, "in_stock = 1")
	}
	if !filter.CreatedAfter.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.CreatedAfter.UTC())
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var refs []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		refs = append(refs, p)
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

func (s *SQLiteStore) VendorByID(ctx context.Context, id string) (*Vendor, error) {
	var v Vendor
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM vendors WHERE id = ?", id).Scan(&v.ID, &v.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query vendor %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, color, sizes, price, mrp, in_stock, created_at, vendor_id
		 FROM products WHERE vendor_id = ? ORDER BY created_at DESC, id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendor products: %w", err)
	}
	defer rows.Close()

	var refs []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		refs = append(refs, p)
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

func (s *SQLiteStore) OrderCountByVendor(ctx context.Context, vendorID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE vendor_id = ?", vendorID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vendor orders: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) RecentOrdersByUser(ctx context.Context, userID string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, vendor_id, created_at FROM orders WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ?",
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
	for _, chunk := range chunkStrings(ids, sqliteInChunk) {
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		itemRows, err := s.db.QueryContext(ctx,
			fmt.Sprintf("SELECT order_id, product_id, quantity FROM order_items WHERE order_id IN (%s)",
				placeholders(len(chunk))), args...)
		if err != nil {
			return nil, fmt.Errorf("failed to list order items: %w", err)
		}
		for itemRows.Next() {
			var orderID string
			var item OrderItem
			if err := itemRows.Scan(&orderID, &item.ProductID, &item.Quantity); err != nil {
				itemRows.Close()
				return nil, fmt.Errorf("failed to scan order item: %w", err)
			}
			if i, ok := index[orderID]; ok {
				orders[i].Items = append(orders[i].Items, item)
			}
		}
		if err := itemRows.Err(); err != nil {
			itemRows.Close()
			return nil, fmt.Errorf("failed to iterate order items: %w", err)
		}
		itemRows.Close()
	}
	return orders, nil
}

func (s *SQLiteStore) OrderItemCount(ctx context.Context, productID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE oi.product_id = ? AND o.created_at >= ?`,
		productID, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count order items: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	var sizes string
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Color, &sizes,
		&p.Price, &p.MRP, &p.InStock, &p.CreatedAt, &p.VendorID); err != nil {
		return nil, err
	}
	if sizes != "" && sizes != "[]" {
		if err := json.Unmarshal([]byte(sizes), &p.Sizes); err != nil {
			return nil, fmt.Errorf("failed to decode sizes for %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

// attachRatings loads ratings for a product batch in IN-list chunks.
func (s *SQLiteStore) attachRatings(ctx context.Context, products []*Product) error {
	if len(products) == 0 {
		return nil
	}
	index := make(map[string]*Product, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		index[p.ID] = p
		ids = append(ids, p.ID)
	}

	for _, chunk := range chunkStrings(ids, sqliteInChunk) {
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		rows, err := s.db.QueryContext(ctx,
			fmt.Sprintf("SELECT id, product_id, user_id, score, created_at FROM ratings WHERE product_id IN (%s)",
				placeholders(len(chunk))), args...)
		if err != nil {
			return fmt.Errorf("failed to list ratings: %w", err)
		}
		for rows.Next() {
			var r Rating
			if err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Score, &r.CreatedAt); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan rating: %w", err)
			}
			if p, ok := index[r.ProductID]; ok {
				p.Ratings = append(p.Ratings, r)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("failed to iterate ratings: %w", err)
		}
		rows.Close()
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func chunkStrings(in []string, size int) [][]string {
	var out [][]string
	for len(in) > size {
		out = append(out, in[:size])
		in = in[size:]
	}
	if len(in) > 0 {
		out = append(out, in)
	}
	return out
}
