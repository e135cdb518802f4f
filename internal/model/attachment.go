package model

import (
	"encoding/json"
	"time"
)

// Attachment is an uploaded file.  Path is the storage-relative location and
// URL the public address returned to editors.
type Attachment struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// AttachmentTenant is a row of attachment_tenants.
type AttachmentTenant struct {
	AttachmentID uint64 `json:"attachment_id"`
	ClientID     uint64 `json:"client_id"`
	Description  string `json:"description"`
}

// AttachmentView joins an attachment with its optional side-row.
type AttachmentView struct {
	Attachment
	ClientID    *uint64 `json:"client_id"`
	ClientName  string  `json:"client_name"`
	Description string  `json:"description"`
}

// ClientLabel returns the owning client's name, or NoClientLabel.
func (a AttachmentView) ClientLabel() string {
	if a.ClientID == nil {
		return NoClientLabel
	}
	return a.ClientName
}

func (a AttachmentView) MarshalJSON() ([]byte, error) {
	type view AttachmentView
	return json.Marshal(struct {
		view
		ClientLabel string `json:"client_label"`
	}{view(a), a.ClientLabel()})
}
