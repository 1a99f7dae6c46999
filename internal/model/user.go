package model

import "time"

// Role names stored in users.role.  Comparison is exact and
// case-sensitive everywhere; unknown values grant nothing.
const (
    RoleNormal = "normal"
    RoleOwner  = "owner"
    RoleAdmin  = "admin"
)

// User represents an application user record as stored in the
// `users` table.  Each field corresponds to a column in the
// database.  The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID               – primary key identifier of the user.
//  Name             – display name.
//  Email            – unique email address.
//  PasswordHash     – bcrypt hashed password.
//  Address          – free-form postal address.
//  Role             – one of "normal", "owner", "admin".
//  ResetTokenHash   – SHA‑256 hex digest of the active password reset token (nullable).
//  ResetTokenExpiry – when the reset token stops being accepted (nullable).
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
    ID               uint64     // users.id
    Name             string     // users.name
    Email            string     // users.email
    PasswordHash     string     // users.password_hash
    Address          string     // users.address
    Role             string     // users.role
    ResetTokenHash   *string    // users.reset_token_hash (nullable)
    ResetTokenExpiry *time.Time // users.reset_token_expiry (nullable)
    CreatedAt        time.Time  // users.created_at
    UpdatedAt        time.Time  // users.updated_at
}

// KnownRole reports whether s is one of the three recognised role names.
func KnownRole(s string) bool {
    return s == RoleNormal || s == RoleOwner || s == RoleAdmin
}
