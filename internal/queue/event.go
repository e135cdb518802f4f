// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// CampaignDispatchedQueue is the durable queue campaign send results are
// published to.
const CampaignDispatchedQueue = "campaign.dispatched"

// CampaignDispatchedEvent is published after a campaign send finishes.  It
// carries the report totals so consumers can log or alert without querying
// the primary database.
type CampaignDispatchedEvent struct {
	CampaignID       uint64   `json:"campaign_id"`
	ClientID         uint64   `json:"client_id"`
	Title            string   `json:"title"`
	Delivered        int      `json:"delivered"`
	Failed           int      `json:"failed"`
	FailedRecipients []string `json:"failed_recipients,omitempty"`
	TriggeredBy      uint64   `json:"triggered_by"`
	DispatchedAt     string   `json:"dispatched_at"`
}
