package admin

import (
	"context"

	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
)

// SideInput is what an editor submits for a group or attachment's tenant
// side-row.  Selection is honoured for the superadmin only; a nil
// Description keeps the stored one.
type SideInput struct {
	Selection   *uint64
	Description *string
}

// sideTenant picks the owning client: explicit selection (superadmin only),
// then the current tenant, then the superadmin client.  When the superadmin
// edits an existing row without a selection the stored owner is kept, the
// same value the form would have been pre-filled with.
func (s *Surface) sideTenant(ctx context.Context, scope tenant.Scope, in SideInput, stored *uint64) (uint64, error) {
	if scope.IsSuperadmin() {
		if in.Selection != nil {
			choices, err := s.clientChoices(ctx)
			if err != nil {
				return 0, err
			}
			if err := checkPicks(fieldClient, []uint64{*in.Selection}, choices); err != nil {
				return 0, err
			}
			return *in.Selection, nil
		}
		if stored != nil {
			return *stored, nil
		}
	}
	if scope.IsSet() {
		return scope.ClientID(), nil
	}
	sa, err := s.clients.Superadmin(ctx)
	if err != nil {
		return 0, err
	}
	if sa == nil {
		return 0, ErrNoTenant
	}
	return sa.ID, nil
}

func description(in SideInput, stored string) string {
	if in.Description != nil {
		return *in.Description
	}
	return stored
}

// SaveGroup writes g and keeps its side-row pointing at the chosen client.
func (s *Surface) SaveGroup(ctx context.Context, scope tenant.Scope, g *model.Group, in SideInput) (model.GroupTenant, error) {
	var stored *model.GroupTenant
	if g.ID != 0 {
		var err error
		if stored, err = s.groups.Tenant(ctx, g.ID); err != nil {
			return model.GroupTenant{}, err
		}
	}
	var storedID *uint64
	var storedDesc string
	if stored != nil {
		storedID, storedDesc = &stored.ClientID, stored.Description
	}
	clientID, err := s.sideTenant(ctx, scope, in, storedID)
	if err != nil {
		return model.GroupTenant{}, err
	}
	side := model.GroupTenant{GroupID: g.ID, ClientID: clientID, Description: description(in, storedDesc)}
	if err := s.groups.Save(ctx, g, side); err != nil {
		return model.GroupTenant{}, err
	}
	side.GroupID = g.ID
	return side, nil
}

// SaveAttachment writes a and keeps its side-row pointing at the chosen client.
func (s *Surface) SaveAttachment(ctx context.Context, scope tenant.Scope, a *model.Attachment, in SideInput) (model.AttachmentTenant, error) {
	var stored *model.AttachmentTenant
	if a.ID != 0 {
		var err error
		if stored, err = s.attachments.Tenant(ctx, a.ID); err != nil {
			return model.AttachmentTenant{}, err
		}
	}
	var storedID *uint64
	var storedDesc string
	if stored != nil {
		storedID, storedDesc = &stored.ClientID, stored.Description
	}
	clientID, err := s.sideTenant(ctx, scope, in, storedID)
	if err != nil {
		return model.AttachmentTenant{}, err
	}
	side := model.AttachmentTenant{AttachmentID: a.ID, ClientID: clientID, Description: description(in, storedDesc)}
	if err := s.attachments.Save(ctx, a, side); err != nil {
		return model.AttachmentTenant{}, err
	}
	side.AttachmentID = a.ID
	return side, nil
}
