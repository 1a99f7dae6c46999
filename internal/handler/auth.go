package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-ratings/internal/config"
	"github.com/iliyamo/store-ratings/internal/middleware"
	"github.com/iliyamo/store-ratings/internal/model"
	"github.com/iliyamo/store-ratings/internal/repository"
	"github.com/iliyamo/store-ratings/internal/utils"
)

// AuthHandler bundles dependencies for signup, login, password change
// and password reset endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Role     string `json:"role"` // optional; anything unknown becomes "normal"
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type forgotReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}
type updatePasswordReq struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type userPart struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}
type loginResp struct {
	Token string   `json:"token"`
	User  userPart `json:"user"`
}

// Signup: self-service account creation.  The role field is accepted
// but coerced to "normal" unless it names a known role; privilege
// escalation happens only through the admin create path.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
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

// Login: verify credentials and return a signed token plus the user's
// identity.  Email lookup misses and password mismatches produce the
// same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "issue token failed"})
	}

	return c.JSON(http.StatusOK, loginResp{
		Token: access.Token,
		User:  userPart{ID: u.ID, Name: u.Name, Role: u.Role},
	})
}

// ForgotPassword: issue a time-boxed reset token.  Only the SHA-256
// hash is stored; the raw token is returned in the response.  That
// return is a development stand-in for out-of-band delivery and is
// kept deliberately.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reset, err := utils.NewResetToken(h.Cfg.ResetTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "issue reset token failed"})
	}
	if err := h.Users.SetResetToken(ctx, req.Email, utils.HashResetRaw(reset.Raw), reset.Exp); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"msg": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "save reset token failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"msg":        "Password reset token generated",
		"resetToken": reset.Raw, // dev shortcut: no out-of-band delivery
	})
}

// ResetPassword: consume a reset token and set a new password.  An
// unknown token and an expired one get the same answer.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "token and newPassword are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Users.ConsumeResetToken(ctx, utils.HashResetRaw(req.Token), req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid or expired token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "reset password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Password reset successful! Please login."})
}

// UpdatePassword: verify the caller's old password and replace it.
// Registered once under /user and once under /owner with different
// role gates; the logic is identical.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	var req updatePasswordReq
	if err := c.Bind(&req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "oldPassword and newPassword are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid := middleware.UserID(c)
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"msg": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.OldPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Old password is incorrect"})
	}
	if err := h.Users.UpdatePassword(ctx, uid, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "update password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Password updated successfully"})
}
