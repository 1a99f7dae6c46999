package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(db), mock
}

// bcryptOf matches any argument that is a valid bcrypt hash of plain
// and is not the plaintext itself.
type bcryptOf struct{ plain string }

func (b bcryptOf) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok || s == b.plain {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s), []byte(b.plain)) == nil
}

func TestCreateStoresHashedPassword(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("Al", "al@example.com", bcryptOf{plain: "hunter22"}, "1 Main St", "normal").
		WillReturnResult(sqlmock.NewResult(5, 1))

	id, err := repo.Create(context.Background(), "Al", "AL@Example.com ", "hunter22", "1 Main St", "normal", bcrypt.MinCost)
	require.NoError(t, err)
	require.Equal(t, uint64(5), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'al@example.com' for key 'users.email'"))

	_, err := repo.Create(context.Background(), "Al", "al@example.com", "pw", "", "normal", bcrypt.MinCost)
	require.ErrorIs(t, err, ErrEmailExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeResetTokenExpired(t *testing.T) {
	repo, mock := newUserRepo(t)

	// The lookup is scoped to unexpired tokens, so an expired hash
	// behaves exactly like an unknown one.
	mock.ExpectQuery(`reset_token_expiry > UTC_TIMESTAMP\(\)`).
		WithArgs("deadbeef").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repo.ConsumeResetToken(context.Background(), "deadbeef", "new-pw", bcrypt.MinCost)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeResetTokenReplacesPasswordAndClearsToken(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery(`reset_token_expiry > UTC_TIMESTAMP\(\)`).
		WithArgs("cafe").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectExec(`UPDATE users SET password_hash=\?, reset_token_hash=NULL, reset_token_expiry=NULL WHERE id=\?`).
		WithArgs(bcryptOf{plain: "new-pw"}, uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ConsumeResetToken(context.Background(), "cafe", "new-pw", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePasswordUnknownUser(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(`UPDATE users SET password_hash=\? WHERE id=\?`).
		WithArgs(sqlmock.AnyArg(), uint64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), 999, "pw", bcrypt.MinCost)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetResetTokenStoresHashAndExpiry(t *testing.T) {
	repo, mock := newUserRepo(t)

	exp := time.Now().UTC().Add(15 * time.Minute)
	mock.ExpectExec(`UPDATE users SET reset_token_hash=\?, reset_token_expiry=\? WHERE email=\?`).
		WithArgs("abc123", exp, "al@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetResetToken(context.Background(), "Al@Example.com", "abc123", exp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListOwnersFiltersByRole(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery(`WHERE role=\? ORDER BY name`).
		WithArgs("owner").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(3, "Cara", "cara@example.com"))

	owners, err := repo.ListOwners(context.Background())
	require.NoError(t, err)
	require.Len(t, owners, 1)
	require.Equal(t, "Cara", owners[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
