package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-ratings/internal/repository"
)

func newOwnerHandler(t *testing.T) (*OwnerHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewOwnerHandler(repository.NewRatingRepo(db)), mock
}

func dashboardAs(t *testing.T, h *OwnerHandler, ownerID uint64) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/owner/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", ownerID)
	c.Set("role", "owner")
	require.NoError(t, h.Dashboard(c))
	return rec
}

var ownedCols = []string{"s_id", "s_name", "s_address", "avg", "total",
	"u_id", "u_name", "u_email", "rating", "comment", "created_at", "updated_at"}

func TestDashboardScopedToCaller(t *testing.T) {
	h, mock := newOwnerHandler(t)

	// The query is filtered by the authenticated user's id, so a newly
	// assigned store shows up for its owner and for nobody else.
	mock.ExpectQuery(`WHERE s\.owner_id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(ownedCols).
			AddRow(5, "Corner Shop", "1 Main St", 0, 0, nil, nil, nil, nil, nil, nil, nil))

	rec := dashboardAs(t, h, 3)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []repository.OwnedStore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Equal(t, "Corner Shop", resp[0].Name)
	require.Empty(t, resp[0].Ratings)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardOtherOwnerSeesNothing(t *testing.T) {
	h, mock := newOwnerHandler(t)

	mock.ExpectQuery(`WHERE s\.owner_id = \?`).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(ownedCols))

	rec := dashboardAs(t, h, 4)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}
