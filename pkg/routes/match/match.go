// Package match exposes the read and trigger surface for matches.
package match

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/lendfield/clover/pkg/models"
)

// Store is the match persistence surface the routes need.
type Store interface {
	ListByRequest(ctx context.Context, requestID string) ([]models.Match, error)
	ListByItem(ctx context.Context, itemID string) ([]models.Match, error)
}

// Matcher runs the matching pipeline on demand.
type Matcher interface {
	FindMatchesForRequest(ctx context.Context, requestID string) ([]models.Match, error)
	FindRequestsForItem(ctx context.Context, itemID string) ([]models.Match, error)
}

// Handler serves match routes
type Handler struct {
	store  Store
	engine Matcher
	logger ectologger.Logger
}

// NewHandler creates a new match route handler
func NewHandler(store Store, engine Matcher, logger ectologger.Logger) *Handler {
	return &Handler{
		store:  store,
		engine: engine,
		logger: logger,
	}
}

// Register registers match routes on the API group
func (h *Handler) Register(g *echo.Group) {
	g.GET("/requests/:id/matches", h.ListForRequest)
	g.POST("/requests/:id/matches/refresh", h.RefreshForRequest)
	g.GET("/items/:id/matches", h.ListForItem)
	g.POST("/items/:id/matches/refresh", h.RefreshForItem)
}

// ListForRequest lists a request's matches ordered by score descending
func (h *Handler) ListForRequest(c echo.Context) error {
	ctx := c.Request().Context()

	requestID := c.Param("id")
	if requestID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "request id is required")
	}

	matches, err := h.store.ListByRequest(ctx, requestID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, matches)
}

// RefreshForRequest runs the forward matching pass synchronously and returns
// the request's matches
func (h *Handler) RefreshForRequest(c echo.Context) error {
	ctx := c.Request().Context()

	requestID := c.Param("id")
	if requestID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "request id is required")
	}

	matches, err := h.engine.FindMatchesForRequest(ctx, requestID)
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"request_id": requestID,
		"matches":    len(matches),
	}).Info("Ran matching pipeline for request")

	return c.JSON(http.StatusOK, matches)
}

// ListForItem lists an item's matches ordered by score descending
func (h *Handler) ListForItem(c echo.Context) error {
	ctx := c.Request().Context()

	itemID := c.Param("id")
	if itemID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "item id is required")
	}

	matches, err := h.store.ListByItem(ctx, itemID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, matches)
}

// RefreshForItem runs the reverse matching pass synchronously and returns the
// matches it created
func (h *Handler) RefreshForItem(c echo.Context) error {
	ctx := c.Request().Context()

	itemID := c.Param("id")
	if itemID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "item id is required")
	}

	matches, err := h.engine.FindRequestsForItem(ctx, itemID)
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"item_id": itemID,
		"matches": len(matches),
	}).Info("Ran matching pipeline for item")

	return c.JSON(http.StatusOK, matches)
}
