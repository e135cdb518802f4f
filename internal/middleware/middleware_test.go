package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/phishing-awareness/internal/config"
	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
	"github.com/iliyamo/phishing-awareness/internal/utils"
)

const secret = "test-secret"

type directory struct {
	clients []*model.Client
	err     error
}

func (d directory) BySlug(_ context.Context, slug string) (*model.Client, error) {
	for _, c := range d.clients {
		if c.Slug == slug {
			return c, d.err
		}
	}
	return nil, d.err
}

func (d directory) Superadmin(context.Context) (*model.Client, error) {
	for _, c := range d.clients {
		if c.Platform {
			return c, d.err
		}
	}
	return nil, d.err
}

func (d directory) First(context.Context) (*model.Client, error) {
	if len(d.clients) == 0 {
		return nil, d.err
	}
	return d.clients[0], d.err
}

var dir = directory{clients: []*model.Client{
	{ID: 1, Slug: "admin", Platform: true},
	{ID: 2, Slug: "acme"},
	{ID: 3, Slug: "globex"},
}}

// whoami echoes the client id seen by the handler.
func whoami(c echo.Context) error {
	s := tenant.FromContext(c.Request().Context())
	if !s.IsSet() {
		return c.String(http.StatusOK, "unset")
	}
	return c.String(http.StatusOK, strconv.FormatUint(s.ClientID(), 10))
}

func newEcho(d tenant.Directory) *echo.Echo {
	e := echo.New()
	e.Use(RequestLogger(zerolog.Nop()), ResolveTenant(tenant.NewResolver(d, "/admin")))
	return e
}

func do(e *echo.Echo, method, host, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Host = host
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, uid, cid uint64, role string, sa bool) string {
	t.Helper()
	at, err := utils.NewAccessToken(secret, uid, cid, role, sa, 5)
	require.NoError(t, err)
	return at.Token
}

func TestResolveTenant(t *testing.T) {
	e := newEcho(dir)
	e.GET("/*", whoami)

	assert.Equal(t, "2", do(e, http.MethodGet, "acme.example.com", "/", "").Body.String())
	assert.Equal(t, "3", do(e, http.MethodGet, "globex.example.com:8080", "/admin/users", "").Body.String())
	assert.Equal(t, "1", do(e, http.MethodGet, "unknown.example.com", "/admin/users", "").Body.String())
	assert.Equal(t, "1", do(e, http.MethodGet, "unknown.example.com", "/campaigns", "").Body.String())

	rec := do(e, http.MethodGet, "acme.example.com", "/", "")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestResolveTenantEmptyDirectoryLeavesUnset(t *testing.T) {
	e := newEcho(directory{})
	e.GET("/*", whoami)
	rec := do(e, http.MethodGet, "acme.example.com", "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unset", rec.Body.String())
}

func TestResolveTenantLookupError(t *testing.T) {
	e := newEcho(directory{clients: dir.clients, err: fmt.Errorf("db down")})
	e.GET("/*", whoami)
	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "acme.example.com", "/", "").Code)
}

func TestTenantContextDoesNotLeakAcrossConcurrentRequests(t *testing.T) {
	e := newEcho(dir)
	e.GET("/slow", func(c echo.Context) error {
		time.Sleep(2 * time.Millisecond)
		return whoami(c)
	})

	hosts := map[string]string{"acme.example.com": "2", "globex.example.com": "3", "admin.example.com": "1"}
	var wg sync.WaitGroup
	errs := make(chan string, 300)
	for i := 0; i < 100; i++ {
		for host, want := range hosts {
			wg.Add(1)
			go func(host, want string) {
				defer wg.Done()
				if got := do(e, http.MethodGet, host, "/slow", "").Body.String(); got != want {
					errs <- fmt.Sprintf("%s: got %s want %s", host, got, want)
				}
			}(host, want)
		}
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

func TestJWTAuthAndRole(t *testing.T) {
	e := newEcho(dir)
	g := e.Group("/admin", JWTAuth(secret), RequireTenantMember(), RequireRole(model.RoleStaff))
	g.GET("/whoami", func(c echo.Context) error {
		uid, _ := UserID(c)
		return c.String(http.StatusOK, strconv.FormatUint(uid, 10))
	})

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "acme.test", "/admin/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "acme.test", "/admin/whoami", "garbage").Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "acme.test", "/admin/whoami", token(t, 5, 2, model.RoleUser, false)).Code)

	rec := do(e, http.MethodGet, "acme.test", "/admin/whoami", token(t, 5, 2, model.RoleStaff, false))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Body.String())
}

func TestJWTAuthAcceptsAccessCookie(t *testing.T) {
	e := newEcho(dir)
	e.GET("/campaigns/:id/report", whoami, JWTAuth(secret), RequireTenantMember())

	req := httptest.NewRequest(http.MethodGet, "/campaigns/4/report", nil)
	req.Host = "acme.test"
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: token(t, 5, 2, model.RoleUser, false)})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/campaigns/4/report", nil)
	req.Host = "acme.test"
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "garbage"})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireTenantMember(t *testing.T) {
	e := newEcho(dir)
	e.GET("/me", whoami, JWTAuth(secret), RequireTenantMember())

	// An acme token used on globex's host.
	rec := do(e, http.MethodGet, "globex.test", "/me", token(t, 5, 2, model.RoleStaff, false))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Platform staff act as the resolved tenant.
	rec = do(e, http.MethodGet, "globex.test", "/me", token(t, 9, 1, model.RoleStaff, true))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Body.String())
}

func TestRequireSuperadmin(t *testing.T) {
	e := newEcho(dir)
	e.GET("/admin/clients", whoami, RequireSuperadmin())
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "acme.test", "/admin/clients", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "admin.test", "/admin/clients", "").Code)
}

func newRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestTokenBucket(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour, Prefix: "rl"}
	e := newEcho(dir)
	e.GET("/ping", whoami, NewTokenBucket(cfg, rdb))

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "acme.test", "/ping", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "acme.test", "/ping", "").Code)
	rec := do(e, http.MethodGet, "acme.test", "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Another tenant has its own bucket.
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "globex.test", "/ping", "").Code)
}

func TestTokenBucketAfterAuthKeysByCaller(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour, Prefix: "rl"}
	e := newEcho(dir)
	e.GET("/me", whoami, JWTAuth(secret), RequireTenantMember(), NewTokenBucket(cfg, rdb))

	alice := token(t, 5, 2, model.RoleUser, false)
	bob := token(t, 6, 2, model.RoleUser, false)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "acme.test", "/me", alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodGet, "acme.test", "/me", alice).Code)
	// Same tenant and address, different caller.
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "acme.test", "/me", bob).Code)

	keys, err := rdb.Keys(context.Background(), "rl:*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Contains(t, strings.Join(keys, " "), ":user:5:")
	assert.Contains(t, strings.Join(keys, " "), ":user:6:")
}

func TestTokenBucketDisabled(t *testing.T) {
	e := newEcho(dir)
	e.GET("/ping", whoami, NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "acme.test", "/ping", "").Code)
	}
}

func TestRedisCacheIsPerTenant(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 10}
	var calls int
	e := newEcho(dir)
	e.GET("/dashboard", func(c echo.Context) error {
		calls++
		return whoami(c)
	}, NewRedisCache(cfg, rdb))

	rec := do(e, http.MethodGet, "acme.test", "/dashboard", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = do(e, http.MethodGet, "acme.test", "/dashboard", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "2", rec.Body.String())

	rec = do(e, http.MethodGet, "globex.test", "/dashboard", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "3", rec.Body.String())
	assert.Equal(t, 2, calls)
}

func TestRedisCacheSkipsOversizedBodies(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 4}
	e := newEcho(dir)
	e.GET("/big", func(c echo.Context) error { return c.String(http.StatusOK, "0123456789") }, NewRedisCache(cfg, rdb))

	do(e, http.MethodGet, "acme.test", "/big", "")
	rec := do(e, http.MethodGet, "acme.test", "/big", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "0123456789", rec.Body.String())
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)
	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}
