// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/phishing-awareness/internal/handler"
	"github.com/iliyamo/phishing-awareness/internal/metrics"
	"github.com/iliyamo/phishing-awareness/internal/middleware"
	"github.com/iliyamo/phishing-awareness/internal/model"
)

// RegisterRoutes registers the routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", metrics.Handler())
}

// orNoop lets callers pass a nil middleware.
func orNoop(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return mw
}

// RegisterAuth registers login and the endpoints any authenticated member
// of the resolved tenant may call.  limit runs after JWTAuth so buckets are
// keyed by the caller; login is limited per address.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, camp *handler.CampaignHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	limit = orNoop(limit)
	e.POST("/auth/login", a.Login, limit)

	// Route-level rather than a root group, so unknown paths still 404
	// instead of demanding a token.
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireTenantMember(),
		middleware.RequireRole(model.RoleStaff, model.RoleUser),
		limit,
	}
	e.GET("/me", a.Me, auth...)
	e.POST("/campaigns/:id/report", camp.Report, auth...)
	e.POST("/campaigns/:id/tutorial", camp.Tutorial, auth...)
	// Link targets embedded in campaign emails; authenticated by the login
	// cookie.
	e.GET("/campaigns/:id/report", camp.Report, auth...)
	e.GET("/campaigns/:id/tutorial", camp.Tutorial, auth...)
}
