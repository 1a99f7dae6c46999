package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/store-ratings/internal/model"
	"github.com/iliyamo/store-ratings/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,password_hash,address,role,reset_token_hash,reset_token_expiry,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Address, &u.Role,
		&u.ResetTokenHash, &u.ResetTokenExpiry, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create hashes the password and inserts a user, returning its ID.
// Unknown roles are never stored; callers validate the role first.
func (r *UserRepo) Create(ctx context.Context, name, email, password, address, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, address, role) VALUES (?,?,?,?,?)",
		name, email, hash, address, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdatePassword replaces the stored hash for a user.  Returns
// ErrNotFound when the user id does not exist.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, newPassword string, cost int) error {
	hash, err := utils.HashPassword(newPassword, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePasswordByEmail replaces the stored hash for the user with the
// given email and reports the matched user's name for the response.
func (r *UserRepo) UpdatePasswordByEmail(ctx context.Context, email, newPassword string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var id uint64
	var name string
	err := r.DB.QueryRowContext(ctx, "SELECT id,name FROM users WHERE email=? LIMIT 1", email).Scan(&id, &name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", err
	}
	if err := r.UpdatePassword(ctx, id, newPassword, cost); err != nil {
		return "", err
	}
	return name, nil
}

// SetResetToken stores the hash and expiry of a freshly issued password
// reset token on the user row identified by email.
func (r *UserRepo) SetResetToken(ctx context.Context, email, tokenHash string, expiry time.Time) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash=?, reset_token_expiry=? WHERE email=?",
		tokenHash, expiry, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeResetToken finds the user whose stored reset token hash matches
// and is not yet expired, replaces the password and clears the token.
// Expired or unknown tokens yield ErrNotFound; the caller reports both
// identically.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, tokenHash, newPassword string, cost int) error {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE reset_token_hash=? AND reset_token_expiry > UTC_TIMESTAMP() LIMIT 1",
		tokenHash).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	hash, err := utils.HashPassword(newPassword, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, reset_token_hash=NULL, reset_token_expiry=NULL WHERE id=?",
		hash, id)
	return err
}

// UserSummary is the admin-facing listing shape; the password hash and
// reset columns are deliberately excluded.
type UserSummary struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Role    string `json:"role"`
}

// ListAll returns every user ordered by id for the admin users table.
func (r *UserRepo) ListAll(ctx context.Context) ([]UserSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,email,address,role FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]UserSummary, 0)
	for rows.Next() {
		var u UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Address, &u.Role); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// OwnerOption is the minimal shape the admin frontend needs to populate
// the assign-store dropdown.
type OwnerOption struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListOwners returns users with the owner role ordered by name.
func (r *UserRepo) ListOwners(ctx context.Context) ([]OwnerOption, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,email FROM users WHERE role=? ORDER BY name", model.RoleOwner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]OwnerOption, 0)
	for rows.Next() {
		var o OwnerOption
		if err := rows.Scan(&o.ID, &o.Name, &o.Email); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Count returns the number of users for the admin dashboard.
func (r *UserRepo) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
