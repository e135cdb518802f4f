package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

const templateColumns = "t.id, t.client_id, t.name, t.sender, t.subject, t.body"

type TemplateRepo struct{ DB *sql.DB }

func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{DB: db} }

func scanTemplate(row interface{ Scan(...any) error }) (*model.EmailTemplate, error) {
	t := new(model.EmailTemplate)
	var sender sql.NullString
	if err := row.Scan(&t.ID, &t.ClientID, &t.Name, &sender, &t.Subject, &t.Body); err != nil {
		return nil, err
	}
	t.Sender = sender.String
	return t, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *TemplateRepo) Create(ctx context.Context, t *model.EmailTemplate) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO email_templates (client_id, name, sender, subject, body) VALUES (?, ?, ?, ?, ?)",
		t.ClientID, t.Name, nullable(t.Sender), t.Subject, t.Body)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (r *TemplateRepo) GetByID(ctx context.Context, id uint64) (*model.EmailTemplate, error) {
	clause, args := tenantClause(ctx, "t.client_id")
	t, err := scanTemplate(r.DB.QueryRowContext(ctx,
		"SELECT "+templateColumns+" FROM email_templates t WHERE t.id = ? AND "+clause,
		append([]any{id}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *TemplateRepo) list(ctx context.Context, q string, args ...any) ([]*model.EmailTemplate, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.EmailTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TemplateRepo) List(ctx context.Context) ([]*model.EmailTemplate, error) {
	clause, args := tenantClause(ctx, "t.client_id")
	return r.list(ctx, "SELECT "+templateColumns+" FROM email_templates t WHERE "+clause+" ORDER BY t.id", args...)
}

// ForCampaign returns the templates attached to a campaign, restricted to
// the current tenant.
func (r *TemplateRepo) ForCampaign(ctx context.Context, campaignID uint64) ([]*model.EmailTemplate, error) {
	clause, args := tenantClause(ctx, "t.client_id")
	return r.list(ctx,
		"SELECT "+templateColumns+` FROM email_templates t
		 JOIN campaign_templates ct ON ct.template_id = t.id
		 WHERE ct.campaign_id = ? AND `+clause+" ORDER BY t.id",
		append([]any{campaignID}, args...)...)
}

// Update rewrites t.  The row must be visible to the current tenant.
func (r *TemplateRepo) Update(ctx context.Context, t *model.EmailTemplate) error {
	if _, err := r.GetByID(ctx, t.ID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE email_templates SET client_id = ?, name = ?, sender = ?, subject = ?, body = ? WHERE id = ?",
		t.ClientID, t.Name, nullable(t.Sender), t.Subject, t.Body, t.ID)
	return err
}

func (r *TemplateRepo) Delete(ctx context.Context, id uint64) error {
	clause, args := tenantClause(ctx, "client_id")
	res, err := r.DB.ExecContext(ctx, "DELETE FROM email_templates WHERE id = ? AND "+clause, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
