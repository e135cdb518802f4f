// Package tenant carries the current client for one unit of work and
// resolves it from the inbound host name.
//
// The client travels on the request's context.Context.  There is no
// package-level "current tenant": two requests running at the same time
// each see only the client their own resolver stored.
package tenant

import (
	"context"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

type contextKey int

const clientKey contextKey = iota

// Scope is the tenant view of a context.  The zero Scope is unset.
type Scope struct {
	client *model.Client
}

// WithClient returns a copy of ctx operating as client c.  Passing nil
// yields a context whose Scope is unset.
func WithClient(ctx context.Context, c *model.Client) context.Context {
	return context.WithValue(ctx, clientKey, c)
}

// FromContext returns the Scope stored in ctx.  Reading a context that
// never went through WithClient is allowed and returns an unset Scope.
func FromContext(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	c, _ := ctx.Value(clientKey).(*model.Client)
	return Scope{client: c}
}

// ScopeOf builds a Scope directly, mostly for callers that validate input
// outside a request.
func ScopeOf(c *model.Client) Scope { return Scope{client: c} }

// IsSet reports whether a client has been stored.
func (s Scope) IsSet() bool { return s.client != nil }

// Client returns the stored client or nil.
func (s Scope) Client() *model.Client { return s.client }

// ClientID returns the stored client's id, 0 when unset.
func (s Scope) ClientID() uint64 {
	if s.client == nil {
		return 0
	}
	return s.client.ID
}

// IsSuperadmin reports whether the scope is exempt from tenant filtering.
func (s Scope) IsSuperadmin() bool { return s.client.IsSuperadmin() }

// Allows reports whether a record owned by clientID is visible in this scope.
// An unset scope allows nothing.
func (s Scope) Allows(clientID uint64) bool {
	if s.client == nil {
		return false
	}
	return s.client.Platform || s.client.ID == clientID
}
