// Package main provides a CLI tool to seed a catalog database with demo data.
// Usage:
//
//	go run ./cmd/seedmarket -db=data/marketrec.db
//	go run ./cmd/seedmarket -db=data/marketrec.db -file=catalog.json
//
// The input JSON holds vendors, products, ratings and orders. Product and
// order ages are given as daysAgo so a freshly seeded store always has
// products inside the trending window.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"marketrec/internal/catalog"
)

const demoData = `{
  "vendors": [
    {"id": "v-toptech", "name": "TopTech"},
    {"id": "v-budgetco", "name": "BudgetCo"},
    {"id": "v-midmart", "name": "MidMart"}
  ],
  "products": [
    {"id": "p-headphones", "name": "Wireless Headphones", "category": "Electronics", "color": "black", "price": 99.99, "mrp": 129.99, "inStock": true, "daysAgo": 12, "vendor": "v-toptech"},
    {"id": "p-speaker", "name": "Bluetooth Speaker", "category": "Electronics", "color": "black", "price": 59.99, "mrp": 79.99, "inStock": true, "daysAgo": 20, "vendor": "v-toptech"},
    {"id": "p-earbuds", "name": "Budget Earbuds", "category": "Electronics", "color": "white", "price": 19.99, "mrp": 29.99, "inStock": true, "daysAgo": 8, "vendor": "v-budgetco"},
    {"id": "p-tee", "name": "Graphic Tee", "category": "Clothing", "color": "red", "sizes": ["M", "L", "XL"], "price": 14.99, "mrp": 19.99, "inStock": true, "daysAgo": 25, "vendor": "v-budgetco"},
    {"id": "p-jacket", "name": "Rain Jacket", "category": "Clothing", "color": "blue", "sizes": ["S", "M", "L"], "price": 49.99, "mrp": 69.99, "inStock": true, "daysAgo": 5, "vendor": "v-midmart"},
    {"id": "p-lamp", "name": "Desk Lamp", "category": "Home", "color": "white", "price": 24.99, "mrp": 34.99, "inStock": false, "daysAgo": 40, "vendor": "v-midmart"}
  ],
  "ratings": [
    {"product": "p-headphones", "user": "u-alice", "score": 5},
    {"product": "p-headphones", "user": "u-bob", "score": 4},
    {"product": "p-speaker", "user": "u-carol", "score": 5},
    {"product": "p-earbuds", "user": "u-alice", "score": 2},
    {"product": "p-jacket", "user": "u-bob", "score": 4}
  ],
  "orders": [
    {"user": "u-alice", "vendor": "v-toptech", "daysAgo": 2, "items": [{"product": "p-headphones", "quantity": 1}]},
    {"user": "u-bob", "vendor": "v-toptech", "daysAgo": 4, "items": [{"product": "p-headphones", "quantity": 1}, {"product": "p-speaker", "quantity": 1}]},
    {"user": "u-carol", "vendor": "v-budgetco", "daysAgo": 1, "items": [{"product": "p-earbuds", "quantity": 2}]},
    {"user": "u-alice", "vendor": "v-midmart", "daysAgo": 7, "items": [{"product": "p-jacket", "quantity": 1}]}
  ]
}`

func main() {
	dbPath := flag.String("db", "data/marketrec.db", "Path to the SQLite database")
	file := flag.String("file", "", "Optional JSON catalog file (defaults to the built-in demo set)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	data := demoData
	if *file != "" {
		raw, err := os.ReadFile(*file)
		if err != nil {
			slog.Error("failed to read catalog file", "file", *file, "error", err)
			os.Exit(1)
		}
		data = string(raw)
	}
	if !gjson.Valid(data) {
		slog.Error("catalog file is not valid JSON")
		os.Exit(1)
	}

	store, err := catalog.NewSQLiteStore(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := seed(context.Background(), store, gjson.Parse(data)); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	slog.Info("seeding complete", "db", *dbPath)
}

func seed(ctx context.Context, store *catalog.SQLiteStore, root gjson.Result) error {
	now := time.Now()

	for _, v := range root.Get("vendors").Array() {
		vendor := catalog.Vendor{
			ID:   stringOr(v.Get("id"), uuid.NewString()),
			Name: v.Get("name").String(),
		}
		if err := store.InsertVendor(ctx, vendor); err != nil {
			return err
		}
		slog.Info("seeded vendor", "id", vendor.ID, "name", vendor.Name)
	}

	for _, p := range root.Get("products").Array() {
		var sizes []string
		for _, s := range p.Get("sizes").Array() {
			sizes = append(sizes, s.String())
		}
		product := catalog.Product{
			ID:        stringOr(p.Get("id"), uuid.NewString()),
			Name:      p.Get("name").String(),
			Category:  p.Get("category").String(),
			Color:     p.Get("color").String(),
			Sizes:     sizes,
			Price:     p.Get("price").Float(),
			MRP:       p.Get("mrp").Float(),
			InStock:   p.Get("inStock").Bool(),
			CreatedAt: now.AddDate(0, 0, -int(p.Get("daysAgo").Int())),
			VendorID:  p.Get("vendor").String(),
		}
		if err := store.InsertProduct(ctx, product); err != nil {
			return err
		}
	}

	for _, r := range root.Get("ratings").Array() {
		rating := catalog.Rating{
			ID:        stringOr(r.Get("id"), uuid.NewString()),
			ProductID: r.Get("product").String(),
			UserID:    r.Get("user").String(),
			Score:     r.Get("score").Float(),
			CreatedAt: now,
		}
		if err := store.InsertRating(ctx, rating); err != nil {
			return err
		}
	}

	for _, o := range root.Get("orders").Array() {
		order := catalog.Order{
			ID:        stringOr(o.Get("id"), uuid.NewString()),
			UserID:    o.Get("user").String(),
			VendorID:  o.Get("vendor").String(),
			CreatedAt: now.AddDate(0, 0, -int(o.Get("daysAgo").Int())),
		}
		for _, item := range o.Get("items").Array() {
			order.Items = append(order.Items, catalog.OrderItem{
				ProductID: item.Get("product").String(),
				Quantity:  int(item.Get("quantity").Int()),
			})
		}
		if err := store.InsertOrder(ctx, order); err != nil {
			return err
		}
	}
	return nil
}

func stringOr(r gjson.Result, fallback string) string {
	if r.Exists() && r.String() != "" {
		return r.String()
	}
	return fallback
}
