// Package server provides HTTP handlers and server setup for the
// recommendation service.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"marketrec/internal/recs"
)

// Handler holds the HTTP handlers
type Handler struct {
	engine *recs.Engine
}

// NewHandler creates a new handler over the given engine
func NewHandler(engine *recs.Engine) *Handler {
	return &Handler{
		engine: engine,
	}
}

// Recommendations handles GET /v1/recommendations
func (h *Handler) Recommendations(c echo.Context) error {
	req := recs.QueryRequest{
		Type:      c.QueryParam("type"),
		ProductID: c.QueryParam("productId"),
		UserID:    c.QueryParam("userId"),
	}

	var err error
	if req.Limit, err = intParam(c, "limit"); err != nil {
		return invalidRequest(c, "limit must be an integer")
	}
	if req.MaxPerVendor, err = intParam(c, "maxPerVendor"); err != nil {
		return invalidRequest(c, "maxPerVendor must be an integer")
	}

	resp, err := h.engine.Query(c.Request().Context(), req)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// CacheStats handles GET /v1/cache/stats
func (h *Handler) CacheStats(c echo.Context) error {
	count, keys := h.engine.CacheStats()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": count,
		"keys":  keys,
	})
}

// CacheClear handles POST /v1/cache/clear. An optional pattern query
// parameter restricts clearing to matching keys.
func (h *Handler) CacheClear(c echo.Context) error {
	pattern := c.QueryParam("pattern")
	h.engine.ClearCache(pattern)
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}

// intParam parses an optional integer query parameter; absent means zero.
func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// errorResponse writes the service's uniform error body.
func errorResponse(c echo.Context, status int, errType, message string) error {
	return c.JSON(status, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	})
}

func invalidRequest(c echo.Context, message string) error {
	return errorResponse(c, http.StatusBadRequest, "invalid_request_error", message)
}

// handleError converts engine errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var verr *recs.ValidationError
	if errors.As(err, &verr) {
		return invalidRequest(c, verr.Message)
	}

	// Unexpected failure: log the wrapped chain (it carries the
	// product/user/strategy context) and surface it as details.
	slog.Error("recommendation request failed",
		"path", c.Request().URL.Path,
		"query", c.Request().URL.RawQuery,
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
			"details": err.Error(),
		},
	})
}
