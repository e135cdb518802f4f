package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/phishing-awareness/internal/admin"
	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/storage"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
)

type TemplateStore interface {
	Create(ctx context.Context, t *model.EmailTemplate) error
	GetByID(ctx context.Context, id uint64) (*model.EmailTemplate, error)
	List(ctx context.Context) ([]*model.EmailTemplate, error)
	Update(ctx context.Context, t *model.EmailTemplate) error
	Delete(ctx context.Context, id uint64) error
}

// TemplateHandler manages email templates and the images embedded in them.
type TemplateHandler struct {
	Templates TemplateStore
	Surface   *admin.Surface
	Store     storage.Store
}

func NewTemplateHandler(templates TemplateStore, surface *admin.Surface, store storage.Store) *TemplateHandler {
	return &TemplateHandler{Templates: templates, Surface: surface, Store: store}
}

type templateReq struct {
	ClientID uint64 `json:"client_id"`
	Name     string `json:"name" validate:"required,max=255"`
	Sender   string `json:"sender" validate:"omitempty,email"`
	Subject  string `json:"subject" validate:"required,max=255"`
	Body     string `json:"body" validate:"required"`
}

func (r templateReq) apply(t *model.EmailTemplate) {
	if r.ClientID != 0 {
		t.ClientID = r.ClientID
	}
	t.Name = r.Name
	t.Sender = r.Sender
	t.Subject = r.Subject
	t.Body = r.Body
}

func (h *TemplateHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Templates.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return items(c, list)
}

func (h *TemplateHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	t, err := h.Templates.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TemplateHandler) Create(c echo.Context) error {
	var req templateReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	t := new(model.EmailTemplate)
	req.apply(t)
	if err := h.Surface.PrepareTemplate(ctx, tenant.FromContext(ctx), t); err != nil {
		return respondError(c, err)
	}
	if err := h.Templates.Create(ctx, t); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TemplateHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	var req templateReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	t, err := h.Templates.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	req.apply(t)
	if err := h.Surface.PrepareTemplate(ctx, tenant.FromContext(ctx), t); err != nil {
		return respondError(c, err)
	}
	if err := h.Templates.Update(ctx, t); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TemplateHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Templates.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage handles POST /admin/templates/images for the rich-text
// editor.  Images are stored under uploads/ and not tracked as attachments.
func (h *TemplateHandler) UploadImage(c echo.Context) error {
	fh, ok := uploadedFile(c)
	if !ok {
		return noFile(c)
	}
	f, err := fh.Open()
	if err != nil {
		return noFile(c)
	}
	defer f.Close()

	ctx, cancel := requestCtx(c)
	defer cancel()
	obj, err := h.Store.Save(ctx, "uploads", fh.Filename, f)
	if errors.Is(err, storage.ErrEmptyName) {
		return noFile(c)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, uploadResp{Status: "ok", URL: obj.URL, Name: obj.Name})
}
