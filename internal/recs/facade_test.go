package recs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryDefaultsToTrending(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	resp, err := engine.Query(context.Background(), QueryRequest{})
	require.NoError(t, err)
	assert.Equal(t, StrategyTrending, resp.Type)
	assert.Equal(t, len(resp.Products), resp.Count)
}

func TestQueryRelatedRequiresProductID(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Query(context.Background(), QueryRequest{Type: StrategyRelated})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "productId is required")
}

func TestQueryRejectsUnknownType(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Query(context.Background(), QueryRequest{Type: "surprise"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "invalid type: surprise")
}

func TestQueryGuestPersonalizedFallsBackToTrending(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	guest, err := engine.Query(ctx, QueryRequest{Type: StrategyPersonalized, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, StrategyTrending, guest.Type)

	trending, err := engine.Query(ctx, QueryRequest{Type: StrategyTrending, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, trending.Products, guest.Products)
}

func TestQueryRelated(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	resp, err := engine.Query(context.Background(), QueryRequest{
		Type:      StrategyRelated,
		ProductID: "p1",
		Limit:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, StrategyRelated, resp.Type)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "p2", resp.Products[0].ID)
}

func TestQueryStripsScoringFields(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	resp, err := engine.Query(context.Background(), QueryRequest{
		Type:      StrategyRelated,
		ProductID: "p1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Products)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"score"`)
	assert.NotContains(t, string(raw), `"vendorMultiplier"`)
}
