package repository

import (
	"context"
	"database/sql"
	"time"
)

// RatingRepo owns the rating ledger: the UNIQUE(store_id, user_id)
// upsert and the denormalized aggregate pair cached on the store row.
// All writes go through Submit so the aggregates can never drift from
// the underlying rating set.
type RatingRepo struct {
	db *sql.DB
}

// NewRatingRepo returns a new RatingRepo bound to the given database.
func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

// Submit records a rating of value for (userID, storeID), overwriting
// any previous rating by the same user, and refreshes the store's
// average_rating and total_ratings inside the same transaction.
//
// The store row is locked with SELECT ... FOR UPDATE before the upsert
// so concurrent submissions for the same store serialize instead of
// racing on the aggregate refresh.  The refresh itself is a single
// statement computed by the database, never a read-then-write pair.
func (r *RatingRepo) Submit(ctx context.Context, userID, storeID uint64, value int, comment *string) error {
	if value < 1 || value > 5 {
		return ErrInvalidRating
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the store row; serialization point for this store's aggregates.
	var id uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM stores WHERE id=? FOR UPDATE", storeID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	const upsert = `INSERT INTO ratings (store_id, user_id, rating, comment)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE rating=VALUES(rating), comment=VALUES(comment), updated_at=NOW()`
	if _, err := tx.ExecContext(ctx, upsert, storeID, userID, value, comment); err != nil {
		return err
	}

	const refresh = `UPDATE stores SET
		average_rating = (SELECT COALESCE(AVG(rating),0) FROM ratings WHERE store_id=?),
		total_ratings  = (SELECT COUNT(*) FROM ratings WHERE store_id=?)
		WHERE id=?`
	if _, err := tx.ExecContext(ctx, refresh, storeID, storeID, storeID); err != nil {
		return err
	}

	return tx.Commit()
}

// RatingDetail is one rating joined with the rater, returned by
// ListForStore and nested under each store by ListForOwner.
type RatingDetail struct {
	UserID    uint64    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListForStore returns all ratings for one store joined with the
// rater's name and email, most recent first.  No pagination; the
// expected per-store volume is small.
func (r *RatingRepo) ListForStore(ctx context.Context, storeID uint64) ([]RatingDetail, error) {
	const q = `SELECT u.id, u.name, u.email, r.rating, r.comment, r.created_at, r.updated_at
		FROM ratings r
		JOIN users u ON r.user_id = u.id
		WHERE r.store_id = ?
		ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RatingDetail, 0)
	for rows.Next() {
		var d RatingDetail
		if err := rows.Scan(&d.UserID, &d.UserName, &d.Email, &d.Rating, &d.Comment,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// OwnedStore is one store on the owner dashboard together with every
// rating it has received.
type OwnedStore struct {
	ID            uint64         `json:"id"`
	Name          string         `json:"name"`
	Address       string         `json:"address"`
	AverageRating float64        `json:"average_rating"`
	TotalRatings  uint32         `json:"total_ratings"`
	Ratings       []RatingDetail `json:"ratings"`
}

// ListForOwner returns every store owned by ownerID with its full
// rating list, grouped by store.  One LEFT JOIN query; stores that have
// not been rated yet appear with an empty ratings slice.
func (r *RatingRepo) ListForOwner(ctx context.Context, ownerID uint64) ([]OwnedStore, error) {
	const q = `SELECT s.id, s.name, s.address, s.average_rating, s.total_ratings,
		u.id, u.name, u.email, r.rating, r.comment, r.created_at, r.updated_at
		FROM stores s
		LEFT JOIN ratings r ON r.store_id = s.id
		LEFT JOIN users u ON r.user_id = u.id
		WHERE s.owner_id = ?
		ORDER BY s.id, r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]OwnedStore, 0)
	idx := make(map[uint64]int)
	for rows.Next() {
		var s OwnedStore
		var raterID sql.NullInt64
		var raterName, raterEmail sql.NullString
		var value sql.NullInt64
		var comment sql.NullString
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.AverageRating, &s.TotalRatings,
			&raterID, &raterName, &raterEmail, &value, &comment, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		i, seen := idx[s.ID]
		if !seen {
			s.Ratings = make([]RatingDetail, 0)
			out = append(out, s)
			i = len(out) - 1
			idx[s.ID] = i
		}
		if raterID.Valid {
			d := RatingDetail{
				UserID:    uint64(raterID.Int64),
				UserName:  raterName.String,
				Email:     raterEmail.String,
				Rating:    int(value.Int64),
				CreatedAt: createdAt.Time,
				UpdatedAt: updatedAt.Time,
			}
			if comment.Valid {
				c := comment.String
				d.Comment = &c
			}
			out[i].Ratings = append(out[i].Ratings, d)
		}
	}
	return out, rows.Err()
}

// Count returns the number of rating rows for the admin dashboard.
func (r *RatingRepo) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ratings").Scan(&n)
	return n, err
}
