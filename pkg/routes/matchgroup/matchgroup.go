// Package matchgroup exposes the borrower/lender opportunity group surface.
package matchgroup

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/lendfield/clover/pkg/models"
)

// Store reads persisted groups.
type Store interface {
	ListByBorrower(ctx context.Context, borrowerID string) ([]models.MatchGroup, error)
}

// Refresher recomputes a borrower's groups.
type Refresher interface {
	Refresh(ctx context.Context, borrowerID string) ([]models.MatchGroup, error)
}

// Handler serves match group routes
type Handler struct {
	store     Store
	refresher Refresher
	logger    ectologger.Logger
}

// NewHandler creates a new match group route handler
func NewHandler(store Store, refresher Refresher, logger ectologger.Logger) *Handler {
	return &Handler{
		store:     store,
		refresher: refresher,
		logger:    logger,
	}
}

// Register registers match group routes on the API group
func (h *Handler) Register(g *echo.Group) {
	g.GET("/borrowers/:id/match-groups", h.ListForBorrower)
	g.POST("/borrowers/:id/match-groups/refresh", h.RefreshForBorrower)
}

// ListForBorrower lists a borrower's groups ordered by score descending
func (h *Handler) ListForBorrower(c echo.Context) error {
	ctx := c.Request().Context()

	borrowerID := c.Param("id")
	if borrowerID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "borrower id is required")
	}

	groups, err := h.store.ListByBorrower(ctx, borrowerID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, groups)
}

// RefreshForBorrower recomputes and returns the borrower's groups
func (h *Handler) RefreshForBorrower(c echo.Context) error {
	ctx := c.Request().Context()

	borrowerID := c.Param("id")
	if borrowerID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "borrower id is required")
	}

	groups, err := h.refresher.Refresh(ctx, borrowerID)
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"borrower_id": borrowerID,
		"groups":      len(groups),
	}).Info("Refreshed match groups")

	return c.JSON(http.StatusOK, groups)
}
