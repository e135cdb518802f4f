package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

const campaignColumns = "c.id, c.client_id, c.title, c.start_date, c.end_date, c.number_of_emails, c.created_at"

type CampaignRepo struct{ DB *sql.DB }

func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{DB: db} }

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	c := new(model.Campaign)
	if err := row.Scan(&c.ID, &c.ClientID, &c.Title, &c.StartDate, &c.EndDate, &c.NumberOfEmails, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts c and its group/template links in one transaction.
func (r *CampaignRepo) Create(ctx context.Context, c *model.Campaign) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO campaigns (client_id, title, start_date, end_date, number_of_emails)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ClientID, c.Title, c.StartDate, c.EndDate, c.NumberOfEmails)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return replaceCampaignLinks(ctx, tx, c)
}

func replaceCampaignLinks(ctx context.Context, tx *sql.Tx, c *model.Campaign) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM campaign_groups WHERE campaign_id = ?", c.ID); err != nil {
		return err
	}
	for _, gid := range dedupe(c.GroupIDs) {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO campaign_groups (campaign_id, group_id) VALUES (?, ?)", c.ID, gid); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM campaign_templates WHERE campaign_id = ?", c.ID); err != nil {
		return err
	}
	for _, tid := range dedupe(c.TemplateIDs) {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO campaign_templates (campaign_id, template_id) VALUES (?, ?)", c.ID, tid); err != nil {
			return err
		}
	}
	return nil
}

// GetByID fetches a campaign visible to the current tenant with its links.
func (r *CampaignRepo) GetByID(ctx context.Context, id uint64) (*model.Campaign, error) {
	clause, args := tenantClause(ctx, "c.client_id")
	c, err := scanCampaign(r.DB.QueryRowContext(ctx,
		"SELECT "+campaignColumns+" FROM campaigns c WHERE c.id = ? AND "+clause,
		append([]any{id}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadLinks(ctx, []*model.Campaign{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context) ([]*model.Campaign, error) {
	clause, args := tenantClause(ctx, "c.client_id")
	rows, err := r.DB.QueryContext(ctx, "SELECT "+campaignColumns+" FROM campaigns c WHERE "+clause+" ORDER BY c.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadLinks(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadLinks fills GroupIDs and TemplateIDs with one query per join table.
func (r *CampaignRepo) loadLinks(ctx context.Context, cs []*model.Campaign) error {
	if len(cs) == 0 {
		return nil
	}
	byID := make(map[uint64]*model.Campaign, len(cs))
	ids := make([]uint64, 0, len(cs))
	for _, c := range cs {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}
	in := "(" + placeholders(len(ids)) + ")"

	load := func(q string, set func(c *model.Campaign, id uint64)) error {
		rows, err := r.DB.QueryContext(ctx, q, uint64Args(ids)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var cid, oid uint64
			if err := rows.Scan(&cid, &oid); err != nil {
				return err
			}
			if c := byID[cid]; c != nil {
				set(c, oid)
			}
		}
		return rows.Err()
	}
	if err := load("SELECT campaign_id, group_id FROM campaign_groups WHERE campaign_id IN "+in+" ORDER BY campaign_id, group_id",
		func(c *model.Campaign, id uint64) { c.GroupIDs = append(c.GroupIDs, id) }); err != nil {
		return err
	}
	return load("SELECT campaign_id, template_id FROM campaign_templates WHERE campaign_id IN "+in+" ORDER BY campaign_id, template_id",
		func(c *model.Campaign, id uint64) { c.TemplateIDs = append(c.TemplateIDs, id) })
}

// Update rewrites c and replaces its links.  The row must be visible to the
// current tenant.
func (r *CampaignRepo) Update(ctx context.Context, c *model.Campaign) (err error) {
	if _, err := r.GetByID(ctx, c.ID); err != nil {
		return err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`UPDATE campaigns SET client_id = ?, title = ?, start_date = ?, end_date = ?, number_of_emails = ?
		 WHERE id = ?`,
		c.ClientID, c.Title, c.StartDate, c.EndDate, c.NumberOfEmails, c.ID); err != nil {
		return err
	}
	return replaceCampaignLinks(ctx, tx, c)
}

func (r *CampaignRepo) Delete(ctx context.Context, id uint64) error {
	clause, args := tenantClause(ctx, "client_id")
	res, err := r.DB.ExecContext(ctx, "DELETE FROM campaigns WHERE id = ? AND "+clause, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
