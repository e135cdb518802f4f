package middleware

// identity.go holds the context keys JWTAuth fills and the accessors
// handlers and other middleware read them through.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	ctxUserID     = "user_id"
	ctxClientID   = "client_id"
	ctxRole       = "role"
	ctxSuperadmin = "superadmin"
)

// UserID returns the authenticated user id.
func UserID(c echo.Context) (uint64, bool) {
	v, ok := c.Get(ctxUserID).(uint64)
	return v, ok
}

// ClientID returns the client id from the token.
func ClientID(c echo.Context) (uint64, bool) {
	v, ok := c.Get(ctxClientID).(uint64)
	return v, ok
}

// Role returns the token role or "".
func Role(c echo.Context) string {
	v, _ := c.Get(ctxRole).(string)
	return v
}

// Superadmin reports whether the token belongs to a platform user.
func Superadmin(c echo.Context) bool {
	v, _ := c.Get(ctxSuperadmin).(bool)
	return v
}

// userKey identifies the caller for rate limiting; "anon" before login.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
