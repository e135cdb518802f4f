package model

import "encoding/json"

// NoClientLabel is displayed for groups and attachments that have no
// tenant side-row.
const NoClientLabel = "No client"

// Group is a named membership bucket (auth_groups).  It knows nothing about
// tenants; the association lives in the group_tenants side-table.
type Group struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// GroupTenant is a row of group_tenants.
type GroupTenant struct {
	GroupID     uint64 `json:"group_id"`
	ClientID    uint64 `json:"client_id"`
	Description string `json:"description"`
}

// GroupView is a group joined with its optional side-row.  ClientID is nil
// when the side-row is missing, which means "unset tenant".
type GroupView struct {
	Group
	ClientID    *uint64 `json:"client_id"`
	ClientName  string  `json:"client_name"`
	Description string  `json:"description"`
}

// ClientLabel returns the owning client's name, or NoClientLabel.
func (g GroupView) ClientLabel() string {
	if g.ClientID == nil {
		return NoClientLabel
	}
	return g.ClientName
}

// MarshalJSON adds client_label so listings show NoClientLabel for groups
// without a side-row.
func (g GroupView) MarshalJSON() ([]byte, error) {
	type view GroupView
	return json.Marshal(struct {
		view
		ClientLabel string `json:"client_label"`
	}{view(g), g.ClientLabel()})
}
