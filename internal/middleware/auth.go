package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// Auth returns the single authorization gate used by every privileged
// route: it validates the Bearer access token and checks the decoded
// role against the allow-list in one pass.  The provided secret must
// match the one used when issuing tokens.  On success the token's
// subject and role are injected into the request context, where
// handlers access them via `c.Get("user_id")` (uint64) and
// `c.Get("role")` (string).
//
// Response policy: a missing, malformed, expired or forged token is
// answered with 401 and an identical body in every case, so callers
// cannot distinguish "expired" from "forged".  A valid token whose role
// is not in the allow-list is answered with 403.  Role comparison is
// exact-string and case-sensitive; unknown roles are never granted
// anything.
func Auth(secret string, roles ...string) echo.MiddlewareFunc {
    // Build a set of allowed roles for constant-time lookups.
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        // The returned handler is invoked for each incoming HTTP request.
        return func(c echo.Context) error {
            // Read the Authorization header.  A valid header starts with
            // "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "invalid or missing token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse the token using the HS256 signing method and our secret.
            // The callback supplies the signing key and ensures that the
            // algorithm matches what we expect; a different signing method
            // means the token was not issued by us.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            // Parse failures, bad signatures and expired tokens all land
            // here and all get the same 401 body.
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "invalid or missing token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "invalid or missing token"})
            }

            role, _ := claims["role"].(string)
            if !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"msg": "access denied"})
            }

            // JWT numeric claims decode as float64; convert the subject to
            // the uint64 user id type used by the repositories.
            sub, ok := claims["sub"].(float64)
            if !ok || sub <= 0 {
                return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "invalid or missing token"})
            }

            c.Set("user_id", uint64(sub))
            c.Set("role", role)
            return next(c)
        }
    }
}

// UserID extracts the authenticated user's id from the context.  It
// returns 0 when the request did not pass through Auth.
func UserID(c echo.Context) uint64 {
    if v, ok := c.Get("user_id").(uint64); ok {
        return v
    }
    return 0
}
