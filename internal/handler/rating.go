package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-ratings/internal/middleware"
	"github.com/iliyamo/store-ratings/internal/queue"
	"github.com/iliyamo/store-ratings/internal/repository"
	queuepublisher "github.com/iliyamo/store-ratings/internal/service"
)

// RatingHandler serves the rating submission endpoint.
type RatingHandler struct {
	Ratings *repository.RatingRepo
	Cache   *middleware.ResponseCache
}

func NewRatingHandler(r *repository.RatingRepo, cache *middleware.ResponseCache) *RatingHandler {
	return &RatingHandler{Ratings: r, Cache: cache}
}

type submitRatingReq struct {
	StoreID uint64  `json:"store_id"`
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

// Submit records or overwrites the caller's rating for a store.  The
// repository runs the upsert and the aggregate refresh in one locked
// transaction, so a success response means the store's averages
// already reflect this rating.  A domain event is published after
// commit on a best-effort basis.
func (h *RatingHandler) Submit(c echo.Context) error {
	var req submitRatingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "invalid body"})
	}
	if req.StoreID == 0 || req.Rating == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "store_id and rating are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID := middleware.UserID(c)
	if err := h.Ratings.Submit(ctx, userID, req.StoreID, req.Rating, req.Comment); err != nil {
		switch err {
		case repository.ErrInvalidRating:
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "rating must be between 1 and 5"})
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"msg": "Store not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "submit rating failed"})
		}
	}

	// The public listing endpoints may be serving cached payloads that
	// predate this rating; drop them so the submitter's next read shows
	// the refreshed aggregate.
	if err := h.Cache.Invalidate(ctx, "/stores", fmt.Sprintf("/stores/%d/ratings", req.StoreID)); err != nil {
		c.Logger().Warnf("cache invalidate after rating: %v", err)
	}

	// Fire-and-forget; a broker outage must not fail the submission.
	ev := queue.RatingSubmittedEvent{
		StoreID:     req.StoreID,
		UserID:      userID,
		Rating:      req.Rating,
		Comment:     req.Comment,
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() { _ = queuepublisher.PublishRatingSubmitted(context.Background(), ev) }()

	return c.JSON(http.StatusOK, echo.Map{"msg": "Rating submitted successfully"})
}
