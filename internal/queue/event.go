// Package queue defines message payloads exchanged over the message broker.
package queue

// RatingSubmittedEvent is published after a rating write has committed.
// It contains enough information for downstream consumers to log,
// notify store owners, or feed analytics without querying the primary
// database.
type RatingSubmittedEvent struct {
    StoreID     uint64  `json:"store_id"`
    UserID      uint64  `json:"user_id"`
    Rating      int     `json:"rating"`
    Comment     *string `json:"comment,omitempty"`
    SubmittedAt string  `json:"submitted_at"`
}
