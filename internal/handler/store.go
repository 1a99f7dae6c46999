package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-ratings/internal/repository"
)

// StoreHandler serves the unauthenticated browse endpoints: the store
// listing with cached aggregates and the per-store rating list.
type StoreHandler struct {
	Stores  *repository.StoreRepo
	Ratings *repository.RatingRepo
}

func NewStoreHandler(s *repository.StoreRepo, r *repository.RatingRepo) *StoreHandler {
	return &StoreHandler{Stores: s, Ratings: r}
}

// ListStores returns every store with its average rating and rating
// count.  Public; usually served from the Redis response cache.
func (h *StoreHandler) ListStores(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stores, err := h.Stores.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "list stores failed"})
	}
	return c.JSON(http.StatusOK, stores)
}

// ListStoreRatings returns all ratings for one store joined with the
// rater's name, most recent first.
func (h *StoreHandler) ListStoreRatings(c echo.Context) error {
	storeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || storeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "invalid store id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Stores.GetByID(ctx, storeID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"msg": "Store not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "query failed"})
	}

	ratings, err := h.Ratings.ListForStore(ctx, storeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "list ratings failed"})
	}
	return c.JSON(http.StatusOK, ratings)
}
