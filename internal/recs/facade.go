package recs

import (
	"context"
	"fmt"

	"marketrec/internal/catalog"
)

// ValidationError reports a malformed recommendation query. The HTTP layer
// maps it to a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// QueryRequest is an inbound recommendation query after parameter parsing.
type QueryRequest struct {
	// Type selects the strategy: related, trending or personalized.
	// Empty defaults to trending.
	Type string
	// ProductID is required for related queries.
	ProductID string
	// UserID is optional; personalized queries without one degrade to
	// trending (guest fallback).
	UserID string
	// Limit is the maximum result count (default 10).
	Limit int
	// MaxPerVendor caps per-vendor results (default 2); personalized
	// queries ignore it and use their fixed cap.
	MaxPerVendor int
}

// QueryResponse is the public result shape: full product records with all
// internal scoring fields stripped.
type QueryResponse struct {
	Type     string            `json:"type"`
	Count    int               `json:"count"`
	Products []catalog.Product `json:"products"`
}

// Query dispatches a request to the matching strategy and strips scoring
// fields from the results. It is the single entry point the HTTP layer uses.
func (e *Engine) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	queryType := req.Type
	if queryType == "" {
		queryType = StrategyTrending
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	maxPerVendor := req.MaxPerVendor
	if maxPerVendor <= 0 {
		maxPerVendor = 2
	}

	var (
		results []ScoredProduct
		err     error
	)
	switch queryType {
	case StrategyRelated:
		if req.ProductID == "" {
			return nil, &ValidationError{Message: "productId is required for related recommendations"}
		}
		results, err = e.Related(ctx, req.ProductID, RelatedOptions{
			Limit:        limit,
			MaxPerVendor: maxPerVendor,
		})

	case StrategyTrending:
		results, err = e.Trending(ctx, TrendingOptions{
			Limit:        limit,
			MaxPerVendor: maxPerVendor,
		})

	case StrategyPersonalized:
		if req.UserID == "" {
			// Guest without history: trending stands in.
			queryType = StrategyTrending
			results, err = e.Trending(ctx, TrendingOptions{
				Limit:        limit,
				MaxPerVendor: maxPerVendor,
			})
		} else {
			results, err = e.Personalized(ctx, req.UserID, PersonalizedOptions{
				Limit: limit,
			})
		}

	default:
		return nil, &ValidationError{
			Message: fmt.Sprintf("invalid type: %s (must be 'related', 'trending', or 'personalized')", queryType),
		}
	}
	if err != nil {
		return nil, err
	}

	products := make([]catalog.Product, len(results))
	for i, r := range results {
		products[i] = r.Product
	}
	return &QueryResponse{
		Type:     queryType,
		Count:    len(products),
		Products: products,
	}, nil
}
