package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/phishing-awareness/internal/config"
	"github.com/iliyamo/phishing-awareness/internal/middleware"
	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/repository"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
	"github.com/iliyamo/phishing-awareness/internal/utils"
)

// LoginUsers finds a user by username or email regardless of tenant.
type LoginUsers interface {
	GetByLogin(ctx context.Context, login string) (*model.User, error)
}

// ClientLookup loads a client by id regardless of tenant.
type ClientLookup interface {
	ByID(ctx context.Context, id uint64) (*model.Client, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Users   LoginUsers
	Clients ClientLookup
}

func NewAuthHandler(cfg config.Config, u LoginUsers, c ClientLookup) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Clients: c}
}

type loginReq struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID         uint64 `json:"id"`
	ClientID   uint64 `json:"client_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Superadmin bool   `json:"superadmin"`
}

type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

// Login verifies credentials and issues an access token.  A user may only
// log in under its own client's host; platform users may log in anywhere.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByLogin(ctx, req.Login)
	if errors.Is(err, repository.ErrNotFound) {
		utils.BurnPasswordCheck(req.Password)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials"})
	}
	if err != nil {
		return respondError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "inactive_user"})
	}

	owner, err := h.Clients.ByID(ctx, u.ClientID)
	if err != nil {
		return respondError(c, err)
	}
	if owner == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials"})
	}
	scope := tenant.FromContext(ctx)
	if !owner.IsSuperadmin() && (!scope.IsSet() || scope.ClientID() != u.ClientID) {
		zerolog.Ctx(ctx).Warn().Uint64("user_id", u.ID).Uint64("user_client_id", u.ClientID).Msg("login under foreign tenant")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "wrong_tenant"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.ClientID, u.Role(), owner.IsSuperadmin(), h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue_access_failed"})
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    access.Token,
		Path:     "/",
		Expires:  access.Exp,
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, authResp{
		User: userPart{
			ID: u.ID, ClientID: u.ClientID, Username: u.Username, Email: u.Email,
			Role: u.Role(), Superadmin: owner.IsSuperadmin(),
		},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Me returns the caller's token identity and the tenant the request
// resolved to.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	cid, _ := middleware.ClientID(c)
	resp := echo.Map{
		"user_id":    uid,
		"client_id":  cid,
		"role":       middleware.Role(c),
		"superadmin": middleware.Superadmin(c),
		"tenant":     nil,
	}
	if cl := tenant.FromContext(c.Request().Context()).Client(); cl != nil {
		resp["tenant"] = echo.Map{"id": cl.ID, "slug": cl.Slug, "name": cl.Name}
	}
	return c.JSON(http.StatusOK, resp)
}
