package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-ratings/internal/middleware"
	"github.com/iliyamo/store-ratings/internal/repository"
)

// OwnerHandler serves the owner dashboard.
type OwnerHandler struct {
	Ratings *repository.RatingRepo
}

func NewOwnerHandler(r *repository.RatingRepo) *OwnerHandler {
	return &OwnerHandler{Ratings: r}
}

// Dashboard returns every store owned by the caller with its full
// rating list.  One join query grouped by store; an owner with no
// stores gets an empty array.
func (h *OwnerHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stores, err := h.Ratings.ListForOwner(ctx, middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "load dashboard failed"})
	}
	return c.JSON(http.StatusOK, stores)
}
