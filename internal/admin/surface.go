package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
)

var (
	// ErrNoTenant is returned when a record would be saved without any
	// resolvable owning client.
	ErrNoTenant = errors.New("admin: no tenant to assign")
	// ErrSuperadminOnly guards entities only the platform client may edit.
	ErrSuperadminOnly = errors.New("admin: superadmin only")
	ErrUnknownEntity  = errors.New("admin: unknown entity")
)

// FieldError rejects one submitted field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return fmt.Sprintf("admin: %s: %s", e.Field, e.Reason) }

// Owned is a record that carries its client id directly.
type Owned interface {
	OwnerID() uint64
	SetOwnerID(id uint64)
}

// Clients is the slice of the client repository the surface reads.
type Clients interface {
	List(ctx context.Context) ([]*model.Client, error)
	Superadmin(ctx context.Context) (*model.Client, error)
}

type Groups interface {
	List(ctx context.Context) ([]*model.GroupView, error)
	Tenant(ctx context.Context, groupID uint64) (*model.GroupTenant, error)
	Save(ctx context.Context, g *model.Group, side model.GroupTenant) error
}

type Attachments interface {
	Tenant(ctx context.Context, attachmentID uint64) (*model.AttachmentTenant, error)
	Save(ctx context.Context, a *model.Attachment, side model.AttachmentTenant) error
}

type Templates interface {
	List(ctx context.Context) ([]*model.EmailTemplate, error)
}

// Surface applies tenant rules to forms and saves.  Picker choices come
// from the tenant-scoped repositories, so they are restricted by the
// context's tenant without further filtering here.
type Surface struct {
	clients     Clients
	groups      Groups
	attachments Attachments
	templates   Templates
}

func NewSurface(clients Clients, groups Groups, attachments Attachments, templates Templates) *Surface {
	return &Surface{clients: clients, groups: groups, attachments: attachments, templates: templates}
}

// Stamp forces rec onto the scope's client unless the scope is the
// superadmin, whose explicit choice stands.
func Stamp(scope tenant.Scope, rec Owned) error {
	if !scope.IsSet() {
		return ErrNoTenant
	}
	if !scope.IsSuperadmin() {
		rec.SetOwnerID(scope.ClientID())
	}
	return nil
}

// Form returns the edit form of e as seen by the tenant in ctx.  For
// ordinary tenants the client field is removed outright; for the
// superadmin it is offered with every client as a choice.
func (s *Surface) Form(ctx context.Context, e Entity) (*Form, error) {
	fields := baseFields(e)
	if fields == nil {
		return nil, ErrUnknownEntity
	}
	scope := tenant.FromContext(ctx)
	if e == EntityClient && !scope.IsSuperadmin() {
		return nil, ErrSuperadminOnly
	}
	f := &Form{Entity: e, Fields: fields}

	if fld := f.Field(fieldClient); fld != nil {
		if !scope.IsSuperadmin() {
			f.remove(fieldClient)
		} else {
			choices, err := s.clientChoices(ctx)
			if err != nil {
				return nil, err
			}
			fld.Choices = choices
		}
	}
	if fld := f.Field(fieldGroups); fld != nil {
		choices, err := s.groupChoices(ctx)
		if err != nil {
			return nil, err
		}
		fld.Choices = choices
	}
	if fld := f.Field(fieldTemplates); fld != nil {
		choices, err := s.templateChoices(ctx)
		if err != nil {
			return nil, err
		}
		fld.Choices = choices
	}
	return f, nil
}

func (s *Surface) clientChoices(ctx context.Context) ([]Choice, error) {
	cs, err := s.clients.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Choice, 0, len(cs))
	for _, c := range cs {
		out = append(out, Choice{Value: c.ID, Label: c.Name})
	}
	return out, nil
}

func (s *Surface) groupChoices(ctx context.Context) ([]Choice, error) {
	gs, err := s.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Choice, 0, len(gs))
	for _, g := range gs {
		out = append(out, Choice{Value: g.ID, Label: g.Name})
	}
	return out, nil
}

func (s *Surface) templateChoices(ctx context.Context) ([]Choice, error) {
	ts, err := s.templates.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Choice, 0, len(ts))
	for _, t := range ts {
		out = append(out, Choice{Value: t.ID, Label: t.Name})
	}
	return out, nil
}

// checkPicks rejects any id that is not among choices.
func checkPicks(field string, picked []uint64, choices []Choice) error {
	allowed := make(map[uint64]bool, len(choices))
	for _, c := range choices {
		allowed[c.Value] = true
	}
	for _, id := range picked {
		if !allowed[id] {
			return &FieldError{Field: field, Reason: fmt.Sprintf("%d is not a valid choice", id)}
		}
	}
	return nil
}

// ownerFor settles the client of a directly owned record.  Ordinary tenants
// are stamped; the superadmin must name an existing client.
func (s *Surface) ownerFor(ctx context.Context, scope tenant.Scope, rec Owned) error {
	if err := Stamp(scope, rec); err != nil {
		return err
	}
	if !scope.IsSuperadmin() {
		return nil
	}
	if rec.OwnerID() == 0 {
		return &FieldError{Field: fieldClient, Reason: "required"}
	}
	choices, err := s.clientChoices(ctx)
	if err != nil {
		return err
	}
	return checkPicks(fieldClient, []uint64{rec.OwnerID()}, choices)
}

// PrepareUser validates and stamps u before it is written.  On update the
// repository refuses client changes, so an ordinary tenant's submission is
// simply pinned to its own client.
func (s *Surface) PrepareUser(ctx context.Context, scope tenant.Scope, u *model.User) error {
	if err := s.ownerFor(ctx, scope, u); err != nil {
		return err
	}
	choices, err := s.groupChoices(ctx)
	if err != nil {
		return err
	}
	return checkPicks(fieldGroups, u.GroupIDs, choices)
}

// PrepareTemplate validates and stamps t before it is written.
func (s *Surface) PrepareTemplate(ctx context.Context, scope tenant.Scope, t *model.EmailTemplate) error {
	return s.ownerFor(ctx, scope, t)
}

// PrepareCampaign validates and stamps c, including its group and template
// picks, before it is written.
func (s *Surface) PrepareCampaign(ctx context.Context, scope tenant.Scope, c *model.Campaign) error {
	if err := s.ownerFor(ctx, scope, c); err != nil {
		return err
	}
	if !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return &FieldError{Field: "end_date", Reason: "must not be before start_date"}
	}
	groups, err := s.groupChoices(ctx)
	if err != nil {
		return err
	}
	if err := checkPicks(fieldGroups, c.GroupIDs, groups); err != nil {
		return err
	}
	templates, err := s.templateChoices(ctx)
	if err != nil {
		return err
	}
	return checkPicks(fieldTemplates, c.TemplateIDs, templates)
}
