// Package admin enforces tenant isolation on the record-editing surface:
// which fields a form offers, which choices its pickers list, and which
// client a saved record ends up belonging to.
package admin

// Entity names an editable record type.
type Entity string

const (
	EntityClient     Entity = "client"
	EntityUser       Entity = "user"
	EntityGroup      Entity = "group"
	EntityAttachment Entity = "attachment"
	EntityTemplate   Entity = "template"
	EntityCampaign   Entity = "campaign"
)

// ParseEntity accepts singular or plural names ("users" -> EntityUser).
func ParseEntity(s string) (Entity, bool) {
	switch s {
	case "client", "clients":
		return EntityClient, true
	case "user", "users":
		return EntityUser, true
	case "group", "groups":
		return EntityGroup, true
	case "attachment", "attachments":
		return EntityAttachment, true
	case "template", "templates":
		return EntityTemplate, true
	case "campaign", "campaigns":
		return EntityCampaign, true
	}
	return "", false
}

// Choice is one selectable option of a picker field.
type Choice struct {
	Value uint64 `json:"value"`
	Label string `json:"label"`
}

// Field describes one input of an edit form.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Multiple bool     `json:"multiple,omitempty"`
	Choices  []Choice `json:"choices,omitempty"`
}

// Form is the schema an editor renders.  A field that is absent cannot be
// submitted.
type Form struct {
	Entity Entity  `json:"entity"`
	Fields []Field `json:"fields"`
}

// Field returns the named field, or nil.
func (f *Form) Field(name string) *Field {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return &f.Fields[i]
		}
	}
	return nil
}

// Has reports whether the form offers name.
func (f *Form) Has(name string) bool { return f.Field(name) != nil }

func (f *Form) remove(name string) {
	out := f.Fields[:0]
	for _, fld := range f.Fields {
		if fld.Name != name {
			out = append(out, fld)
		}
	}
	f.Fields = out
}

const (
	fieldClient    = "client_id"
	fieldGroups    = "group_ids"
	fieldTemplates = "template_ids"
)

// baseFields lists the inputs of each entity before tenant rules apply.
// Each call returns a fresh slice.
func baseFields(e Entity) []Field {
	switch e {
	case EntityClient:
		return []Field{
			{Name: "name", Type: "text", Required: true},
			{Name: "slug", Type: "text", Required: true},
			{Name: "contact_name", Type: "text"},
			{Name: "contact_email", Type: "email"},
			{Name: "contact_phone", Type: "text"},
			{Name: "contact_plan", Type: "text"},
			{Name: "contact_payment_date", Type: "text"},
		}
	case EntityUser:
		return []Field{
			{Name: fieldClient, Type: "select", Required: true},
			{Name: "username", Type: "text", Required: true},
			{Name: "email", Type: "email"},
			{Name: "password", Type: "password"},
			{Name: "department", Type: "text"},
			{Name: "extension", Type: "text"},
			{Name: "user_group", Type: "text"},
			{Name: "is_staff", Type: "checkbox"},
			{Name: "is_active", Type: "checkbox"},
			{Name: fieldGroups, Type: "select", Multiple: true},
		}
	case EntityGroup:
		return []Field{
			{Name: "name", Type: "text", Required: true},
			{Name: fieldClient, Type: "select"},
			{Name: "description", Type: "textarea"},
		}
	case EntityAttachment:
		return []Field{
			{Name: "name", Type: "text", Required: true},
			{Name: "file", Type: "file"},
			{Name: fieldClient, Type: "select"},
			{Name: "description", Type: "textarea"},
		}
	case EntityTemplate:
		return []Field{
			{Name: fieldClient, Type: "select", Required: true},
			{Name: "name", Type: "text", Required: true},
			{Name: "sender", Type: "text"},
			{Name: "subject", Type: "text", Required: true},
			{Name: "body", Type: "richtext", Required: true},
		}
	case EntityCampaign:
		return []Field{
			{Name: fieldClient, Type: "select", Required: true},
			{Name: "title", Type: "text", Required: true},
			{Name: "start_date", Type: "datetime", Required: true},
			{Name: "end_date", Type: "datetime", Required: true},
			{Name: "number_of_emails", Type: "number"},
			{Name: fieldGroups, Type: "select", Multiple: true},
			{Name: fieldTemplates, Type: "select", Multiple: true},
		}
	}
	return nil
}
