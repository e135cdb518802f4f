package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/phishing-awareness/internal/admin"
)

// FormHandler serves edit-form schemas so the admin UI renders only the
// fields and choices the current tenant may use.
type FormHandler struct {
	Surface *admin.Surface
}

func NewFormHandler(surface *admin.Surface) *FormHandler {
	return &FormHandler{Surface: surface}
}

// Get handles GET /admin/forms/:entity.
func (h *FormHandler) Get(c echo.Context) error {
	e, ok := admin.ParseEntity(c.Param("entity"))
	if !ok {
		return respondError(c, admin.ErrUnknownEntity)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	f, err := h.Surface.Form(ctx, e)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}
