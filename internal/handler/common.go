package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/phishing-awareness/internal/admin"
	"github.com/iliyamo/phishing-awareness/internal/dispatch"
	"github.com/iliyamo/phishing-awareness/internal/repository"
	"github.com/iliyamo/phishing-awareness/internal/validation"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

// requestCtx returns the request context with dbTimeout applied.  The
// tenant and logger stored by middleware travel with it.
func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func invalidID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_id"})
}

// bind decodes and validates the request body into req.  When ok is false
// the error response has already been written and err is its result.
func bind(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, validation.ErrorResponse(err))
	}
	return true, nil
}

// respondError maps domain errors to JSON responses.  Unknown errors are
// logged and reported as 500 without detail.
func respondError(c echo.Context, err error) error {
	var fe *admin.FieldError
	switch {
	case errors.As(err, &fe):
		return c.JSON(http.StatusBadRequest, validation.FieldError(fe.Field, fe.Reason))
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	case errors.Is(err, repository.ErrSlugExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slug_exists"})
	case errors.Is(err, repository.ErrUsernameExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "username_exists"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, repository.ErrClientImmutable):
		return c.JSON(http.StatusBadRequest, validation.FieldError("client_id", "immutable"))
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, admin.ErrSuperadminOnly):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "superadmin_only"})
	case errors.Is(err, admin.ErrNoTenant):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no_tenant"})
	case errors.Is(err, admin.ErrUnknownEntity):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown_entity"})
	case errors.Is(err, dispatch.ErrNoRecipients):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "no_recipients"})
	case errors.Is(err, dispatch.ErrNoTemplates):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "no_templates"})
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).
		Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
}

// items wraps list responses the same way for every resource.
func items[T any](c echo.Context, list []T) error {
	if list == nil {
		list = []T{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}
