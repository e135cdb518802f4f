package model

import "time"

// User is an account that belongs to exactly one client.  ClientID is set
// once at creation and never reassigned.  GroupIDs holds the many-to-many
// memberships used for campaign targeting.
type User struct {
	ID           uint64    `json:"id"`
	ClientID     uint64    `json:"client_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Department   string    `json:"department,omitempty"`
	Extension    string    `json:"extension,omitempty"`
	UserGroup    string    `json:"user_group,omitempty"`
	IsStaff      bool      `json:"is_staff"`
	IsActive     bool      `json:"is_active"`
	GroupIDs     []uint64  `json:"group_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role returns the token role for the user: STAFF for admin surface
// operators and USER for everybody else.
func (u *User) Role() string {
	if u.IsStaff {
		return RoleStaff
	}
	return RoleUser
}

const (
	RoleStaff = "STAFF"
	RoleUser  = "USER"
)

func (u *User) OwnerID() uint64      { return u.ClientID }
func (u *User) SetOwnerID(id uint64) { u.ClientID = id }
