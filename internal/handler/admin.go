package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-ratings/internal/config"
	"github.com/iliyamo/store-ratings/internal/middleware"
	"github.com/iliyamo/store-ratings/internal/model"
	"github.com/iliyamo/store-ratings/internal/repository"
)

// AdminHandler bundles the privileged creation, mutation and listing
// endpoints.  Every route it serves is gated by the admin role.
type AdminHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Stores  *repository.StoreRepo
	Ratings *repository.RatingRepo
	Cache   *middleware.ResponseCache
}

func NewAdminHandler(cfg config.Config, u *repository.UserRepo, s *repository.StoreRepo, r *repository.RatingRepo, cache *middleware.ResponseCache) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Users: u, Stores: s, Ratings: r, Cache: cache}
}

// ----- DTOs -----

type createUserReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}
type createStoreReq struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}
type changePasswordReq struct {
	UserID      uint64 `json:"userId"`
	NewPassword string `json:"newPassword"`
}
type assignStoreReq struct {
	StoreID uint64 `json:"storeId"`
	OwnerID uint64 `json:"ownerId"`
}
type adminResetReq struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// CreateUser: privileged account creation; unlike signup, any known
// role may be assigned.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "name, email and password are required"})
	}
	role := req.Role
	if !model.KnownRole(role) {
		role = model.RoleNormal
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, req.Address, role, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"msg": "User already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":    uid,
		"name":  req.Name,
		"email": req.Email,
		"role":  role,
	})
}

// CreateStore: add a store with no owner and zeroed aggregates.
func (h *AdminHandler) CreateStore(c echo.Context) error {
	var req createStoreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "invalid body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Stores.Create(ctx, req.Name, req.Address)
	if err != nil {
		if err == repository.ErrStoreExists {
			return c.JSON(http.StatusConflict, echo.Map{"msg": "Store already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "create store failed"})
	}
	// The public listing is cached; drop it so the new store shows up.
	if err := h.Cache.Invalidate(ctx, "/stores"); err != nil {
		c.Logger().Warnf("cache invalidate after create store: %v", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":      id,
		"name":    req.Name,
		"address": req.Address,
	})
}

// ChangeUserPassword: set a new password for any user by id, without
// knowing the old one.
func (h *AdminHandler) ChangeUserPassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "userId and newPassword are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, req.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"msg": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "query failed"})
	}
	if err := h.Users.UpdatePassword(ctx, req.UserID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "update password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": fmt.Sprintf("Password changed for %s", u.Name)})
}

// ResetPasswordByEmail: set a new password for the user with the given
// email; used by the admin console's reset flow.
func (h *AdminHandler) ResetPasswordByEmail(c echo.Context) error {
	var req adminResetReq
	if err := c.Bind(&req); err != nil || req.Email == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "email and newPassword are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	name, err := h.Users.UpdatePasswordByEmail(ctx, req.Email, req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"msg": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "reset password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": fmt.Sprintf("Password reset for %s", name)})
}

// AssignStore: point a store at an owning user.
func (h *AdminHandler) AssignStore(c echo.Context) error {
	var req assignStoreReq
	if err := c.Bind(&req); err != nil || req.StoreID == 0 || req.OwnerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "storeId and ownerId are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	name, err := h.Stores.AssignOwner(ctx, req.StoreID, req.OwnerID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"msg": "Store not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "assign store failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": fmt.Sprintf("Store %q assigned successfully", name)})
}

// Dashboard: entity counts for the admin landing page.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "count users failed"})
	}
	stores, err := h.Stores.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "count stores failed"})
	}
	ratings, err := h.Ratings.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "count ratings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"totalUsers":   users,
		"totalStores":  stores,
		"totalRatings": ratings,
	})
}

// ListUsers: every user ordered by id, without credential columns.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "list users failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// ListOwners: owner-role users for the assign-store dropdown.
func (h *AdminHandler) ListOwners(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	owners, err := h.Users.ListOwners(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "list owners failed"})
	}
	return c.JSON(http.StatusOK, owners)
}

// StoresWithOwners: every store joined with its owner, when present.
func (h *AdminHandler) StoresWithOwners(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stores, err := h.Stores.ListWithOwners(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "list stores failed"})
	}
	return c.JSON(http.StatusOK, stores)
}
