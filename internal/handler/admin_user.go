package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/phishing-awareness/internal/admin"
	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/repository"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
	"github.com/iliyamo/phishing-awareness/internal/utils"
	"github.com/iliyamo/phishing-awareness/internal/validation"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id uint64) error
}

// UserHandler manages accounts of the current tenant and their group
// memberships.
type UserHandler struct {
	Users      UserStore
	Surface    *admin.Surface
	BcryptCost int
}

func NewUserHandler(users UserStore, surface *admin.Surface, bcryptCost int) *UserHandler {
	return &UserHandler{Users: users, Surface: surface, BcryptCost: bcryptCost}
}

type userReq struct {
	ClientID   uint64   `json:"client_id"`
	Username   string   `json:"username" validate:"required,max=150"`
	Email      string   `json:"email" validate:"omitempty,email,max=254"`
	Password   string   `json:"password" validate:"omitempty,min=8,max=128"`
	Department string   `json:"department" validate:"max=100"`
	Extension  string   `json:"extension" validate:"max=20"`
	UserGroup  string   `json:"user_group" validate:"max=100"`
	IsStaff    bool     `json:"is_staff"`
	IsActive   *bool    `json:"is_active"`
	GroupIDs   []uint64 `json:"group_ids"`
}

func (r userReq) apply(u *model.User) {
	u.Username = r.Username
	u.Email = r.Email
	u.Department = r.Department
	u.Extension = r.Extension
	u.UserGroup = r.UserGroup
	u.IsStaff = r.IsStaff
	if r.IsActive != nil {
		u.IsActive = *r.IsActive
	}
	u.GroupIDs = r.GroupIDs
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Users.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return items(c, list)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Create adds a user to the current tenant.  Only the superadmin chooses
// the client; everyone else is stamped with their own.
func (h *UserHandler) Create(c echo.Context) error {
	var req userReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, validation.FieldError("password", "required"))
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u := &model.User{ClientID: req.ClientID, IsActive: true}
	req.apply(u)
	if err := h.Surface.PrepareUser(ctx, tenant.FromContext(ctx), u); err != nil {
		return respondError(c, err)
	}
	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}
	u.PasswordHash = hash
	if err := h.Users.Create(ctx, u); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Update edits a user.  The client never changes: the superadmin gets an
// error for a differing client_id, other tenants have it ignored.  An empty password keeps the current one.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	var req userReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	scope := tenant.FromContext(ctx)
	if scope.IsSuperadmin() && req.ClientID != 0 && req.ClientID != u.ClientID {
		return respondError(c, repository.ErrClientImmutable)
	}
	req.apply(u)
	if err := h.Surface.PrepareUser(ctx, scope, u); err != nil {
		return respondError(c, err)
	}
	u.PasswordHash = ""
	if req.Password != "" {
		if u.PasswordHash, err = utils.HashPassword(req.Password, h.BcryptCost); err != nil {
			return respondError(c, err)
		}
	}
	if err := h.Users.Update(ctx, u); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
