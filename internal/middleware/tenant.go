package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/phishing-awareness/internal/metrics"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
)

// ResolveTenant runs the resolver on every request and stores the result
// in the request's context.Context.  Nothing is kept outside the request,
// so concurrent requests for different hosts cannot observe each other's
// tenant.  An empty directory leaves the scope unset (every scoped read
// then returns nothing) and is logged rather than failing the request.
func ResolveTenant(r *tenant.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()
			res, err := r.Resolve(ctx, req.Host, req.URL.Path)
			switch {
			case errors.Is(err, tenant.ErrNoClients):
				zerolog.Ctx(ctx).Warn().Str("host", req.Host).Msg("no clients configured, tenant unset")
				metrics.IncTenantResolution("")
				return next(c)
			case err != nil:
				zerolog.Ctx(ctx).Error().Err(err).Str("host", req.Host).Msg("tenant resolution failed")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "tenant_unavailable"})
			}

			metrics.IncTenantResolution(string(res.Source))
			zerolog.Ctx(ctx).UpdateContext(func(l zerolog.Context) zerolog.Context {
				return l.Uint64("client_id", res.Client.ID).Str("tenant_source", string(res.Source))
			})
			c.SetRequest(req.WithContext(tenant.WithClient(ctx, res.Client)))
			return next(c)
		}
	}
}

// RequireTenantMember rejects authenticated users whose token belongs to a
// different client than the resolved tenant.  Members of the platform
// client pass and act as the resolved tenant.  Must run after JWTAuth.
func RequireTenantMember() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Superadmin(c) {
				return next(c)
			}
			cid, ok := ClientID(c)
			scope := tenant.FromContext(c.Request().Context())
			if !ok || !scope.IsSet() || scope.ClientID() != cid {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "wrong_tenant"})
			}
			return next(c)
		}
	}
}

// RequireSuperadmin lets only requests resolved to the platform client through.
func RequireSuperadmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !tenant.FromContext(c.Request().Context()).IsSuperadmin() {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "superadmin_only"})
			}
			return next(c)
		}
	}
}
