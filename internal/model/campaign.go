package model

import "time"

// Campaign combines target groups and email templates within a send window.
// NumberOfEmails is a hint only; dispatch sends one email per recipient.
type Campaign struct {
	ID             uint64    `json:"id"`
	ClientID       uint64    `json:"client_id"`
	Title          string    `json:"title"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	NumberOfEmails uint32    `json:"number_of_emails"`
	GroupIDs       []uint64  `json:"group_ids"`
	TemplateIDs    []uint64  `json:"template_ids"`
	CreatedAt      time.Time `json:"created_at"`
}

func (c *Campaign) OwnerID() uint64      { return c.ClientID }
func (c *Campaign) SetOwnerID(id uint64) { c.ClientID = id }
