package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/store-ratings/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/store-ratings/internal/middleware" // import the unified auth gate
	"github.com/iliyamo/store-ratings/internal/model"      // role name constants
)

// Handlers collects every handler the router wires up.  main constructs
// the set once and passes it in; the router itself holds no state.
type Handlers struct {
	Auth   *handler.AuthHandler
	Store  *handler.StoreHandler
	Rating *handler.RatingHandler
	Owner  *handler.OwnerHandler
	Admin  *handler.AdminHandler
}

// Register wires every route onto the provided Echo instance.  Each
// privileged route is gated by exactly one middleware.Auth call with
// its role allow-list; there is no second, ad-hoc token check anywhere.
// The optional public middleware (response cache, rate limiter) are
// passed in by main so this package stays free of Redis concerns.
func Register(e *echo.Echo, h Handlers, jwtSecret string, publicCache echo.MiddlewareFunc, authLimit echo.MiddlewareFunc) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Unauthenticated account endpoints, rate limited.
	e.POST("/signup", h.Auth.Signup, authLimit)
	e.POST("/login", h.Auth.Login, authLimit)
	e.POST("/forgot-password", h.Auth.ForgotPassword, authLimit)
	e.POST("/reset-password", h.Auth.ResetPassword, authLimit)

	// Unauthenticated browse endpoints, served from the response cache.
	e.GET("/stores", h.Store.ListStores, publicCache)
	e.GET("/stores/:id/ratings", h.Store.ListStoreRatings, publicCache)

	// Rating submission: any authenticated role may rate.
	e.POST("/ratings", h.Rating.Submit,
		middleware.Auth(jwtSecret, model.RoleNormal, model.RoleOwner, model.RoleAdmin))

	// Self-service password changes, role-scoped as in the frontend.
	e.PUT("/user/update-password", h.Auth.UpdatePassword,
		middleware.Auth(jwtSecret, model.RoleNormal))
	e.PUT("/owner/update-password", h.Auth.UpdatePassword,
		middleware.Auth(jwtSecret, model.RoleOwner))

	// Owner dashboard.
	e.GET("/owner/dashboard", h.Owner.Dashboard,
		middleware.Auth(jwtSecret, model.RoleOwner))

	// Admin-only surface under one group with one gate.
	admin := e.Group("/admin", middleware.Auth(jwtSecret, model.RoleAdmin))
	admin.POST("/create-user", h.Admin.CreateUser)
	admin.POST("/create-store", h.Admin.CreateStore)
	admin.PUT("/change-user-password", h.Admin.ChangeUserPassword)
	admin.PUT("/assign-store", h.Admin.AssignStore)
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.GET("/users", h.Admin.ListUsers)
	admin.GET("/owners", h.Admin.ListOwners)
	admin.GET("/stores-with-owners", h.Admin.StoresWithOwners)

	// Legacy path kept for the frontend's reset form; same gate.
	e.POST("/admin-reset-password", h.Admin.ResetPasswordByEmail,
		middleware.Auth(jwtSecret, model.RoleAdmin))
}
