package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

// ClientStore is the client repository as the admin surface uses it.
type ClientStore interface {
	Create(ctx context.Context, c *model.Client) error
	GetByID(ctx context.Context, id uint64) (*model.Client, error)
	List(ctx context.Context) ([]*model.Client, error)
	Update(ctx context.Context, c *model.Client) error
	Delete(ctx context.Context, id uint64) error
}

// DirectoryCache drops cached slug lookups after a client changes.
type DirectoryCache interface {
	Invalidate(ctx context.Context, slugs ...string) error
}

// ClientHandler manages the tenant directory.  Routes are mounted behind
// the superadmin check.
type ClientHandler struct {
	Clients   ClientStore
	Directory DirectoryCache
}

func NewClientHandler(clients ClientStore, dir DirectoryCache) *ClientHandler {
	return &ClientHandler{Clients: clients, Directory: dir}
}

type clientReq struct {
	Name               string `json:"name" validate:"required,max=255"`
	Slug               string `json:"slug" validate:"required,max=63,hostname_rfc1123,excludes=."`
	ContactName        string `json:"contact_name" validate:"max=255"`
	ContactEmail       string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone       string `json:"contact_phone" validate:"max=64"`
	ContactPlan        string `json:"contact_plan" validate:"max=64"`
	ContactPaymentDate string `json:"contact_payment_date" validate:"omitempty,datetime=2006-01-02"`
}

func (r clientReq) apply(c *model.Client) {
	c.Name = r.Name
	c.Slug = r.Slug
	c.ContactName = r.ContactName
	c.ContactEmail = r.ContactEmail
	c.ContactPhone = r.ContactPhone
	c.ContactPlan = r.ContactPlan
	c.ContactPaymentDate = r.ContactPaymentDate
}

// invalidate drops slugs from the directory cache.  A failure is logged:
// entries expire on their own.
func (h *ClientHandler) invalidate(ctx context.Context, slugs ...string) {
	if h.Directory == nil {
		return
	}
	if err := h.Directory.Invalidate(ctx, slugs...); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Strs("slugs", slugs).Msg("tenant cache invalidation failed")
	}
}

func (h *ClientHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Clients.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return items(c, list)
}

func (h *ClientHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	cl, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *ClientHandler) Create(c echo.Context) error {
	var req clientReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	cl := new(model.Client)
	req.apply(cl)
	if err := h.Clients.Create(ctx, cl); err != nil {
		return respondError(c, err)
	}
	h.invalidate(ctx, cl.Slug)
	return c.JSON(http.StatusCreated, cl)
}

func (h *ClientHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	var req clientReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	cl, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	oldSlug := cl.Slug
	req.apply(cl)
	if err := h.Clients.Update(ctx, cl); err != nil {
		return respondError(c, err)
	}
	h.invalidate(ctx, oldSlug, cl.Slug)
	return c.JSON(http.StatusOK, cl)
}

func (h *ClientHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	cl, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Clients.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	h.invalidate(ctx, cl.Slug)
	return c.NoContent(http.StatusNoContent)
}
