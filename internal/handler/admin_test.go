package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-ratings/internal/repository"
)

func newAdminHandler(t *testing.T) (*AdminHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAdminHandler(testCfg(),
		repository.NewUserRepo(db),
		repository.NewStoreRepo(db),
		repository.NewRatingRepo(db),
		nil), mock
}

func TestAdminResetPasswordByEmailAnswersWithName(t *testing.T) {
	h, mock := newAdminHandler(t)
	mock.ExpectQuery(`SELECT id,name FROM users WHERE email=\?`).
		WithArgs("dana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(5, "Dana Quill"))
	mock.ExpectExec(`UPDATE users SET password_hash=\?`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(t, h.ResetPasswordByEmail, http.MethodPost, "/admin-reset-password",
		`{"email":"dana@example.com","newPassword":"fresh-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Password reset for Dana Quill")
	require.NotContains(t, rec.Body.String(), "dana@example.com")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminCreateUserMayAssignAnyRole(t *testing.T) {
	h, mock := newAdminHandler(t)
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(9, 1))

	rec := doJSON(t, h.CreateUser, http.MethodPost, "/admin/create-user",
		`{"name":"Cara","email":"cara@example.com","password":"pw","role":"owner"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"role":"owner"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminCreateStoreDuplicateName(t *testing.T) {
	h, mock := newAdminHandler(t)
	mock.ExpectExec(`INSERT INTO stores`).WillReturnError(errDuplicate())

	rec := doJSON(t, h.CreateStore, http.MethodPost, "/admin/create-store",
		`{"name":"Corner Shop","address":"1 Main St"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "Store already exists")
}

func TestAdminAssignStore(t *testing.T) {
	h, mock := newAdminHandler(t)
	mock.ExpectQuery(`SELECT name FROM stores WHERE id=\?`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Corner Shop"))
	mock.ExpectExec(`UPDATE stores SET owner_id=\? WHERE id=\?`).
		WithArgs(uint64(3), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(t, h.AssignStore, http.MethodPut, "/admin/assign-store",
		`{"storeId":5,"ownerId":3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `Corner Shop`)
	require.Contains(t, rec.Body.String(), "assigned successfully")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminAssignStoreUnknownStore(t *testing.T) {
	h, mock := newAdminHandler(t)
	mock.ExpectQuery(`SELECT name FROM stores WHERE id=\?`).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	rec := doJSON(t, h.AssignStore, http.MethodPut, "/admin/assign-store",
		`{"storeId":404,"ownerId":3}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Store not found")
}

func TestAdminDashboardCounts(t *testing.T) {
	h, mock := newAdminHandler(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(12))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM stores`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ratings`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(31))

	rec := doJSON(t, h.Dashboard, http.MethodGet, "/admin/dashboard", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]uint64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, uint64(12), resp["totalUsers"])
	require.Equal(t, uint64(4), resp["totalStores"])
	require.Equal(t, uint64(31), resp["totalRatings"])
}

func TestAdminStoresWithOwnersKeepsUnownedStores(t *testing.T) {
	h, mock := newAdminHandler(t)
	rows := sqlmock.NewRows([]string{"id", "name", "address", "avg", "total", "owner_id", "owner_name", "owner_email"}).
		AddRow(1, "Corner Shop", "1 Main St", 3.5, 2, 3, "Cara", "cara@example.com").
		AddRow(2, "Bakery", "2 High St", 0, 0, nil, nil, nil)
	mock.ExpectQuery(`LEFT JOIN users u ON s\.owner_id = u\.id`).WillReturnRows(rows)

	rec := doJSON(t, h.StoresWithOwners, http.MethodGet, "/admin/stores-with-owners", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []struct {
		Name      string  `json:"name"`
		OwnerName *string `json:"owner_name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	require.NotNil(t, resp[0].OwnerName)
	require.Equal(t, "Cara", *resp[0].OwnerName)
	require.Nil(t, resp[1].OwnerName)
}
