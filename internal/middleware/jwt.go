package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/phishing-awareness/internal/utils"
)

// AccessCookie carries the access token for browser navigation, where
// links opened from a campaign email cannot set an Authorization header.
const AccessCookie = "access_token"

// bearer returns the token from the Authorization header, falling back to
// AccessCookie.
func bearer(c echo.Context) string {
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

// JWTAuth validates an access token and injects the user id, client id and
// role into the echo context.  The request logger gains user_id.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := bearer(c)
			if tok == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, tok)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			uid, _ := claims.UserID()

			c.Set(ctxUserID, uid)
			c.Set(ctxClientID, claims.ClientID)
			c.Set(ctxRole, claims.Role)
			c.Set(ctxSuperadmin, claims.Superadmin)

			ctx := c.Request().Context()
			zerolog.Ctx(ctx).UpdateContext(func(l zerolog.Context) zerolog.Context {
				return l.Uint64("user_id", uid)
			})
			return next(c)
		}
	}
}
