package model

import "time"

// Client is a tenant account and the root of the ownership tree.  Every
// other record carries a direct or indirect reference to one.  Slug is the
// host-derived identifier (acme in acme.example.com).
//
// Fields:
//  ID                 – clients.id
//  Slug               – unique, lower-case host label
//  Platform           – marks the superadmin (platform-level) tenant
//  Contact*           – free-form contact metadata
type Client struct {
	ID                 uint64    `json:"id"`
	Name               string    `json:"name"`
	Slug               string    `json:"slug"`
	ContactName        string    `json:"contact_name"`
	ContactEmail       string    `json:"contact_email"`
	ContactPhone       string    `json:"contact_phone"`
	ContactPlan        string    `json:"contact_plan"`
	ContactPaymentDate string    `json:"contact_payment_date"`
	Platform           bool      `json:"is_platform"`
	CreatedAt          time.Time `json:"created_at"`
}

// IsSuperadmin reports whether the client sees records across all tenants.
// A nil client is never superadmin.
func (c *Client) IsSuperadmin() bool {
	return c != nil && c.Platform
}
