package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/store-ratings/internal/model"
)

// StoreRepo provides CRUD operations for stores.  The aggregate
// columns (average_rating, total_ratings) are owned by RatingRepo and
// are only read here.
type StoreRepo struct{ DB *sql.DB }

func NewStoreRepo(db *sql.DB) *StoreRepo { return &StoreRepo{DB: db} }

// Create inserts a store with no owner and zeroed aggregates,
// returning its ID.
func (r *StoreRepo) Create(ctx context.Context, name, address string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO stores (name, address) VALUES (?,?)", name, address)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrStoreExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// StoreListing is the public listing shape returned by GET /stores.
type StoreListing struct {
	ID            uint64  `json:"id"`
	Name          string  `json:"name"`
	Address       string  `json:"address"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  uint32  `json:"total_ratings"`
}

// ListAll returns every store with its cached aggregates, ordered by id.
func (r *StoreRepo) ListAll(ctx context.Context) ([]StoreListing, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,address,average_rating,total_ratings FROM stores ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StoreListing, 0)
	for rows.Next() {
		var s StoreListing
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.AverageRating, &s.TotalRatings); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID fetches a single store row.
func (r *StoreRepo) GetByID(ctx context.Context, id uint64) (model.Store, error) {
	var s model.Store
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,address,owner_id,average_rating,total_ratings,created_at,updated_at FROM stores WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.Name, &s.Address, &s.OwnerID, &s.AverageRating, &s.TotalRatings, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

// AssignOwner points a store at an owning user and reports the store
// name for the response message.  Returns ErrNotFound for an unknown
// store id.
func (r *StoreRepo) AssignOwner(ctx context.Context, storeID, ownerID uint64) (string, error) {
	var name string
	err := r.DB.QueryRowContext(ctx, "SELECT name FROM stores WHERE id=? LIMIT 1", storeID).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", err
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE stores SET owner_id=? WHERE id=?", ownerID, storeID)
	if err != nil {
		return "", err
	}
	return name, nil
}

// StoreWithOwner joins a store with its owning user, when present.
type StoreWithOwner struct {
	StoreListing
	OwnerID    *uint64 `json:"owner_id"`
	OwnerName  *string `json:"owner_name"`
	OwnerEmail *string `json:"owner_email"`
}

// ListWithOwners returns every store LEFT JOINed with its owner for the
// admin view; stores without an owner carry null owner fields.
func (r *StoreRepo) ListWithOwners(ctx context.Context) ([]StoreWithOwner, error) {
	const q = `SELECT s.id, s.name, s.address, s.average_rating, s.total_ratings, s.owner_id,
		u.name, u.email
		FROM stores s
		LEFT JOIN users u ON s.owner_id = u.id
		ORDER BY s.id`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StoreWithOwner, 0)
	for rows.Next() {
		var s StoreWithOwner
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.AverageRating, &s.TotalRatings,
			&s.OwnerID, &s.OwnerName, &s.OwnerEmail); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of stores for the admin dashboard.
func (r *StoreRepo) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM stores").Scan(&n)
	return n, err
}
