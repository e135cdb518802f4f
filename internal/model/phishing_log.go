package model

import "time"

// Action is the interaction recorded by a PhishingTestLog.
type Action string

const (
	ActionReported Action = "reported"
	ActionClicked  Action = "clicked"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	return a == ActionReported || a == ActionClicked
}

// PhishingTestLog is an append-only interaction event.  Rows are never
// updated or deleted.
type PhishingTestLog struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	CampaignID uint64    `json:"campaign_id"`
	Action     Action    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`

	// Populated by list queries.
	Username      string `json:"username,omitempty"`
	CampaignTitle string `json:"campaign_title,omitempty"`
}

// CampaignStat is one dashboard cell: the number of logs per campaign and action.
type CampaignStat struct {
	CampaignID    uint64 `json:"campaign_id"`
	CampaignTitle string `json:"campaign_title"`
	Action        Action `json:"action"`
	Count         int64  `json:"count"`
}
