package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/phishing-awareness/internal/config"
	"github.com/iliyamo/phishing-awareness/internal/middleware"
	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/repository"
	"github.com/iliyamo/phishing-awareness/internal/utils"
)

const testSecret = "test-secret"

type fakeLoginUsers map[string]*model.User

func (f fakeLoginUsers) GetByLogin(_ context.Context, login string) (*model.User, error) {
	if u, ok := f[login]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

type fakeClientLookup struct{}

func (fakeClientLookup) ByID(_ context.Context, id uint64) (*model.Client, error) {
	for _, c := range []*model.Client{platform, acme, globex} {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	hash, err := utils.HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	users := fakeLoginUsers{
		"alice": {ID: 7, ClientID: acme.ID, Username: "alice", Email: "alice@acme.test", PasswordHash: hash, IsStaff: true, IsActive: true},
		"root":  {ID: 1, ClientID: platform.ID, Username: "root", PasswordHash: hash, IsStaff: true, IsActive: true},
		"gone":  {ID: 8, ClientID: acme.ID, Username: "gone", PasswordHash: hash, IsActive: false},
	}
	return NewAuthHandler(config.Config{JWTSecret: testSecret, AccessTTLMin: 5}, users, fakeClientLookup{})
}

func TestLogin_IssuesTenantToken(t *testing.T) {
	h := newAuthHandler(t)
	rec := call(t, h.Login, jsonReq(http.MethodPost, "/auth/login", loginReq{Login: "alice", Password: "s3cret-pass"}), acme, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	access := body["access"].(map[string]any)
	claims, err := utils.ParseAccessToken(testSecret, access["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, acme.ID, claims.ClientID)
	assert.Equal(t, model.RoleStaff, claims.Role)
	assert.False(t, claims.Superadmin)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.AccessCookie, cookies[0].Name)
	assert.Equal(t, access["token"], cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLogin_ForeignTenantRejected(t *testing.T) {
	h := newAuthHandler(t)
	rec := call(t, h.Login, jsonReq(http.MethodPost, "/auth/login", loginReq{Login: "alice", Password: "s3cret-pass"}), globex, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "wrong_tenant", decode(t, rec)["error"])
}

func TestLogin_PlatformUserAnywhere(t *testing.T) {
	h := newAuthHandler(t)
	rec := call(t, h.Login, jsonReq(http.MethodPost, "/auth/login", loginReq{Login: "root", Password: "s3cret-pass"}), globex, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	access := decode(t, rec)["access"].(map[string]any)
	claims, err := utils.ParseAccessToken(testSecret, access["token"].(string))
	require.NoError(t, err)
	assert.True(t, claims.Superadmin)
}

func TestLogin_Failures(t *testing.T) {
	h := newAuthHandler(t)
	cases := []struct {
		name string
		req  loginReq
		code int
	}{
		{"wrong password", loginReq{Login: "alice", Password: "nope"}, http.StatusUnauthorized},
		{"unknown user", loginReq{Login: "mallory", Password: "s3cret-pass"}, http.StatusUnauthorized},
		{"inactive", loginReq{Login: "gone", Password: "s3cret-pass"}, http.StatusForbidden},
		{"missing password", loginReq{Login: "alice"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, h.Login, jsonReq(http.MethodPost, "/auth/login", tc.req), acme, nil)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestMe_ReportsResolvedTenant(t *testing.T) {
	h := newAuthHandler(t)
	rec := call(t, h.Me, httptest.NewRequest(http.MethodGet, "/me", nil), acme, staff(7, acme.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.EqualValues(t, 7, body["user_id"])
	assert.Equal(t, "acme", body["tenant"].(map[string]any)["slug"])
}
