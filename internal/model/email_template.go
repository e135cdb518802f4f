package model

// EmailTemplate is reusable simulated phishing content owned by a client.
// Body holds rich content stored as text (HTML produced by the editor).
type EmailTemplate struct {
	ID       uint64 `json:"id"`
	ClientID uint64 `json:"client_id"`
	Name     string `json:"name"`
	Sender   string `json:"sender,omitempty"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

func (t *EmailTemplate) OwnerID() uint64      { return t.ClientID }
func (t *EmailTemplate) SetOwnerID(id uint64) { t.ClientID = id }
