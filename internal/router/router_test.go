package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/phishing-awareness/internal/handler"
	"github.com/iliyamo/phishing-awareness/internal/middleware"
	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
	"github.com/iliyamo/phishing-awareness/internal/utils"
)

const secret = "test-secret"

type directory []*model.Client

func (d directory) BySlug(_ context.Context, slug string) (*model.Client, error) {
	for _, c := range d {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, nil
}

func (d directory) Superadmin(context.Context) (*model.Client, error) { return d[0], nil }
func (d directory) First(context.Context) (*model.Client, error)      { return d[0], nil }

var clients = directory{
	{ID: 1, Slug: "admin", Platform: true},
	{ID: 2, Slug: "acme"},
}

// newServer mounts every route with a limiter that records the caller it
// sees and answers 429 itself, so no handler dependency is reached.
func newServer(t *testing.T) (*echo.Echo, *[]uint64) {
	t.Helper()
	seen := new([]uint64)
	limit := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, _ := middleware.UserID(c)
			*seen = append(*seen, uid)
			return c.NoContent(http.StatusTooManyRequests)
		}
	}
	e := echo.New()
	e.Use(middleware.RequestLogger(zerolog.Nop()), middleware.ResolveTenant(tenant.NewResolver(clients, "/admin/")))
	RegisterRoutes(e)
	RegisterAuth(e, &handler.AuthHandler{}, &handler.CampaignHandler{}, secret, limit)
	RegisterAdmin(e, "/admin", AdminHandlers{
		Clients: &handler.ClientHandler{}, Users: &handler.UserHandler{}, Groups: &handler.GroupHandler{},
		Attachments: &handler.AttachmentHandler{}, Templates: &handler.TemplateHandler{},
		Campaigns: &handler.CampaignAdminHandler{}, Forms: &handler.FormHandler{}, Logs: &handler.LogHandler{},
	}, secret, limit, nil)
	return e, seen
}

func serve(e *echo.Echo, method, path string, build func(*http.Request)) int {
	req := httptest.NewRequest(method, path, nil)
	req.Host = "acme.test"
	if build != nil {
		build(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func accessToken(t *testing.T, uid uint64, role string) string {
	t.Helper()
	at, err := utils.NewAccessToken(secret, uid, 2, role, false, 5)
	require.NoError(t, err)
	return at.Token
}

func TestEmailLinksAreGetRoutes(t *testing.T) {
	e, seen := newServer(t)

	for _, path := range []string{"/campaigns/4/report", "/campaigns/4/tutorial"} {
		assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, path, nil), path)
	}

	tok := accessToken(t, 5, model.RoleUser)
	code := serve(e, http.MethodGet, "/campaigns/4/report", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: tok})
	})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, []uint64{5}, *seen)
}

func TestLimiterRunsAfterAuthentication(t *testing.T) {
	e, seen := newServer(t)
	tok := accessToken(t, 7, model.RoleStaff)

	code := serve(e, http.MethodGet, "/admin/users", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
	})
	assert.Equal(t, http.StatusTooManyRequests, code)

	// Login has no identity yet and is limited anonymously.
	assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodPost, "/auth/login", nil))
	assert.Equal(t, []uint64{7, 0}, *seen)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/healthz", nil))
}
