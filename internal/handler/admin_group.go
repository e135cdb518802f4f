package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/phishing-awareness/internal/admin"
	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
)

type GroupStore interface {
	GetByID(ctx context.Context, id uint64) (*model.GroupView, error)
	List(ctx context.Context) ([]*model.GroupView, error)
	Delete(ctx context.Context, id uint64) error
}

// GroupHandler manages groups.  Groups carry no client column; saves go
// through the surface so the tenant side-row follows every write.
type GroupHandler struct {
	Groups  GroupStore
	Surface *admin.Surface
}

func NewGroupHandler(groups GroupStore, surface *admin.Surface) *GroupHandler {
	return &GroupHandler{Groups: groups, Surface: surface}
}

type groupReq struct {
	Name        string  `json:"name" validate:"required,max=150"`
	ClientID    *uint64 `json:"client_id"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

func (r groupReq) side() admin.SideInput {
	return admin.SideInput{Selection: r.ClientID, Description: r.Description}
}

func (h *GroupHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Groups.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return items(c, list)
}

func (h *GroupHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *GroupHandler) Create(c echo.Context) error {
	var req groupReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	return h.save(c, &model.Group{Name: req.Name}, req, http.StatusCreated)
}

func (h *GroupHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	var req groupReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	return h.save(c, &model.Group{ID: id, Name: req.Name}, req, http.StatusOK)
}

func (h *GroupHandler) save(c echo.Context, g *model.Group, req groupReq, status int) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	if _, err := h.Surface.SaveGroup(ctx, tenant.FromContext(ctx), g, req.side()); err != nil {
		return respondError(c, err)
	}
	view, err := h.Groups.GetByID(ctx, g.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status, view)
}

func (h *GroupHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Groups.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
