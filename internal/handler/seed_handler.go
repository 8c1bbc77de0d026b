package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/repository"
	"storefront/internal/seed"
)

// SeedHandler handles seed data endpoints.
type SeedHandler struct {
	store repository.Store
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(store repository.Store) *SeedHandler {
	return &SeedHandler{store: store}
}

// SeedResponse represents the seed response.
type SeedResponse struct {
	Message string      `json:"message"`
	Created seed.Result `json:"created"`
}

// Seed godoc
// @Summary Load the demo catalog and default accounts
// @Description Creates the demo catalog when no category exists and any missing default account.
// @Tags seed
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SeedResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/seed [post]
func (h *SeedHandler) Seed(c echo.Context) error {
	res, err := seed.Run(c.Request().Context(), h.store)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, SeedResponse{
		Message: "Seed completed successfully",
		Created: res,
	})
}
