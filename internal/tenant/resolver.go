package tenant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

// ErrNoClients is returned when the directory holds no client at all, so
// not even a fallback can be chosen.
var ErrNoClients = errors.New("tenant: no clients configured")

// Directory looks clients up for resolution.  Lookups are unscoped: they
// run before a tenant is known.  Each method returns a nil client and a nil
// error when nothing matches.
type Directory interface {
	BySlug(ctx context.Context, slug string) (*model.Client, error)
	Superadmin(ctx context.Context) (*model.Client, error)
	First(ctx context.Context) (*model.Client, error)
}

// Source tells how a request's client was chosen.
type Source string

const (
	SourceSlug            Source = "slug"
	SourceAdminFallback   Source = "admin_fallback"
	SourceDefaultFallback Source = "default_fallback"
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Client *model.Client
	Source Source
	Slug   string
}

// Resolver maps host names to clients.
type Resolver struct {
	dir         Directory
	adminPrefix string
}

// NewResolver builds a Resolver.  adminPrefix is the path prefix of the
// privileged admin surface, e.g. "/admin/".
func NewResolver(dir Directory, adminPrefix string) *Resolver {
	p := strings.TrimRight(strings.TrimSpace(adminPrefix), "/")
	if p == "" {
		p = "/admin"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return &Resolver{dir: dir, adminPrefix: p}
}

// Resolve picks the client for a request to host and path.
//
// The label before the first dot of the host is looked up as a slug.  When
// no client owns it, admin paths fall back to the superadmin client and
// every other path to the first client by id.
func (r *Resolver) Resolve(ctx context.Context, host, path string) (Resolution, error) {
	slug := SlugFromHost(host)
	if slug != "" {
		c, err := r.dir.BySlug(ctx, slug)
		if err != nil {
			return Resolution{}, fmt.Errorf("lookup slug %q: %w", slug, err)
		}
		if c != nil {
			return Resolution{Client: c, Source: SourceSlug, Slug: slug}, nil
		}
	}

	if r.isAdminPath(path) {
		c, err := r.dir.Superadmin(ctx)
		if err != nil {
			return Resolution{}, fmt.Errorf("lookup superadmin: %w", err)
		}
		if c != nil {
			return Resolution{Client: c, Source: SourceAdminFallback, Slug: slug}, nil
		}
	}

	c, err := r.dir.First(ctx)
	if err != nil {
		return Resolution{}, fmt.Errorf("lookup first client: %w", err)
	}
	if c == nil {
		return Resolution{Slug: slug}, ErrNoClients
	}
	return Resolution{Client: c, Source: SourceDefaultFallback, Slug: slug}, nil
}

func (r *Resolver) isAdminPath(path string) bool {
	return path == r.adminPrefix || strings.HasPrefix(path, r.adminPrefix+"/")
}

// SlugFromHost returns the lower-cased label before the first dot of host,
// with any port removed.
func SlugFromHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if i := strings.IndexByte(host, '.'); i >= 0 {
		host = host[:i]
	}
	return host
}
