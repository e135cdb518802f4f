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
	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/storage"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
)

type AttachmentStore interface {
	GetByID(ctx context.Context, id uint64) (*model.AttachmentView, error)
	List(ctx context.Context) ([]*model.AttachmentView, error)
	Delete(ctx context.Context, id uint64) error
}

// AttachmentHandler manages uploaded files and their tenant side-rows.
type AttachmentHandler struct {
	Attachments AttachmentStore
	Surface     *admin.Surface
	Store       storage.Store
}

func NewAttachmentHandler(attachments AttachmentStore, surface *admin.Surface, store storage.Store) *AttachmentHandler {
	return &AttachmentHandler{Attachments: attachments, Surface: surface, Store: store}
}

type attachmentReq struct {
	Name        string  `json:"name" validate:"required,max=255"`
	ClientID    *uint64 `json:"client_id"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

func (h *AttachmentHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Attachments.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return items(c, list)
}

func (h *AttachmentHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	a, err := h.Attachments.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Update renames an attachment or moves its side-row.  The file itself is
// replaced only through a new upload.
func (h *AttachmentHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	var req attachmentReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	cur, err := h.Attachments.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	a := cur.Attachment
	a.Name = req.Name
	in := admin.SideInput{Selection: req.ClientID, Description: req.Description}
	if _, err := h.Surface.SaveAttachment(ctx, tenant.FromContext(ctx), &a, in); err != nil {
		return respondError(c, err)
	}
	view, err := h.Attachments.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Delete removes the row and then the stored file.  A file that cannot be
// removed is logged; the row is already gone.
func (h *AttachmentHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	cur, err := h.Attachments.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Attachments.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	if err := h.Store.Delete(ctx, cur.Path); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", cur.Path).Msg("attachment file not removed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Upload handles POST /admin/attachments/upload.  The file is stored and
// an attachment created with its side-row pointing at the current tenant,
// or at the client_id form value when the superadmin sends one.
func (h *AttachmentHandler) Upload(c echo.Context) error {
	fh, ok := uploadedFile(c)
	if !ok {
		return noFile(c)
	}
	in := admin.SideInput{}
	if v := c.FormValue("client_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_client_id"})
		}
		in.Selection = &id
	}
	if v := c.FormValue("description"); v != "" {
		in.Description = &v
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	f, err := fh.Open()
	if err != nil {
		return noFile(c)
	}
	defer f.Close()
	obj, err := h.Store.Save(ctx, "attachments", fh.Filename, f)
	if errors.Is(err, storage.ErrEmptyName) {
		return noFile(c)
	}
	if err != nil {
		return respondError(c, err)
	}

	a := &model.Attachment{Name: obj.Name, Path: obj.Path, URL: obj.URL, UploadedAt: time.Now().UTC()}
	if _, err := h.Surface.SaveAttachment(ctx, tenant.FromContext(ctx), a, in); err != nil {
		if derr := h.Store.Delete(ctx, obj.Path); derr != nil {
			zerolog.Ctx(ctx).Warn().Err(derr).Str("path", obj.Path).Msg("orphaned upload not removed")
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, uploadResp{Status: "ok", URL: obj.URL, Name: obj.Name})
}
