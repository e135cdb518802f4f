package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/phishing-awareness/internal/admin"
	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
	"github.com/iliyamo/phishing-awareness/internal/validation"
)

var (
	platform = &model.Client{ID: 1, Name: "Platform", Slug: "admin", Platform: true}
	acme     = &model.Client{ID: 2, Name: "Acme", Slug: "acme"}
	globex   = &model.Client{ID: 3, Name: "Globex", Slug: "globex"}
)

// call runs h against a request resolved to client.  identity, when set,
// plays the part of JWTAuth.
func call(t *testing.T, h echo.HandlerFunc, req *http.Request, client *model.Client, identity map[string]any, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = validation.New()
	if client != nil {
		req = req.WithContext(tenant.WithClient(req.Context(), client))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	for k, v := range identity {
		c.Set(k, v)
	}
	require.NoError(t, h(c))
	return rec
}

func jsonReq(method, target string, body any) *http.Request {
	var r io.Reader = http.NoBody
	if body != nil {
		bs, _ := json.Marshal(body)
		r = bytes.NewReader(bs)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func staff(userID, clientID uint64) map[string]any {
	return map[string]any{"user_id": userID, "client_id": clientID, "role": model.RoleStaff, "superadmin": false}
}

// surfaceDeps backs admin.Surface with a fixed set of clients, groups and
// templates filtered by the tenant in ctx, like the scoped repositories.
type surfaceDeps struct {
	groups       []*model.GroupView
	templates    []*model.EmailTemplate
	savedGroup   *model.GroupTenant
	savedAttach  *model.AttachmentTenant
	attachTenant map[uint64]*model.AttachmentTenant
	nextID       uint64
}

func newSurface() (*admin.Surface, *surfaceDeps) {
	a, g := uint64(2), uint64(3)
	d := &surfaceDeps{
		groups: []*model.GroupView{
			{Group: model.Group{ID: 10, Name: "Acme staff"}, ClientID: &a},
			{Group: model.Group{ID: 11, Name: "Globex staff"}, ClientID: &g},
		},
		templates: []*model.EmailTemplate{
			{ID: 20, ClientID: 2, Name: "Acme reset"},
			{ID: 21, ClientID: 3, Name: "Globex invoice"},
		},
		attachTenant: map[uint64]*model.AttachmentTenant{},
		nextID:       100,
	}
	return admin.NewSurface(fakeClients{}, fakeGroups{d}, fakeAttachments{d}, fakeTemplates{d}), d
}

type fakeClients struct{}

func (fakeClients) List(ctx context.Context) ([]*model.Client, error) {
	scope := tenant.FromContext(ctx)
	var out []*model.Client
	for _, c := range []*model.Client{platform, acme, globex} {
		if scope.Allows(c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (fakeClients) Superadmin(context.Context) (*model.Client, error) { return platform, nil }

type fakeGroups struct{ d *surfaceDeps }

func (f fakeGroups) List(ctx context.Context) ([]*model.GroupView, error) {
	scope := tenant.FromContext(ctx)
	var out []*model.GroupView
	for _, g := range f.d.groups {
		if g.ClientID != nil && scope.Allows(*g.ClientID) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f fakeGroups) Tenant(context.Context, uint64) (*model.GroupTenant, error) { return nil, nil }

func (f fakeGroups) Save(_ context.Context, g *model.Group, side model.GroupTenant) error {
	if g.ID == 0 {
		f.d.nextID++
		g.ID = f.d.nextID
	}
	side.GroupID = g.ID
	f.d.savedGroup = &side
	return nil
}

type fakeAttachments struct{ d *surfaceDeps }

func (f fakeAttachments) Tenant(_ context.Context, id uint64) (*model.AttachmentTenant, error) {
	return f.d.attachTenant[id], nil
}

func (f fakeAttachments) Save(_ context.Context, a *model.Attachment, side model.AttachmentTenant) error {
	if a.ID == 0 {
		f.d.nextID++
		a.ID = f.d.nextID
	}
	side.AttachmentID = a.ID
	f.d.savedAttach = &side
	return nil
}

type fakeTemplates struct{ d *surfaceDeps }

func (f fakeTemplates) List(ctx context.Context) ([]*model.EmailTemplate, error) {
	scope := tenant.FromContext(ctx)
	var out []*model.EmailTemplate
	for _, t := range f.d.templates {
		if scope.Allows(t.ClientID) {
			out = append(out, t)
		}
	}
	return out, nil
}
