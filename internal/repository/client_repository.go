package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

const clientColumns = `id, name, slug, contact_name, contact_email, contact_phone,
	contact_plan, contact_payment_date, is_platform, created_at`

// ClientRepo stores tenants.  BySlug, Superadmin and First implement
// tenant.Directory and are unscoped: they run before the request's tenant
// is known.  Every other read is scoped so an ordinary tenant only ever
// sees its own row.
type ClientRepo struct {
	db *sql.DB
}

func NewClientRepo(db *sql.DB) *ClientRepo {
	return &ClientRepo{db: db}
}

func scanClient(row interface{ Scan(...any) error }) (*model.Client, error) {
	c := new(model.Client)
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ContactName, &c.ContactEmail, &c.ContactPhone,
		&c.ContactPlan, &c.ContactPaymentDate, &c.Platform, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// lookup runs an unscoped single-row query and maps "no rows" to nil.
func (r *ClientRepo) lookup(ctx context.Context, q string, args ...any) (*model.Client, error) {
	c, err := scanClient(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// BySlug returns the client owning slug or nil.
func (r *ClientRepo) BySlug(ctx context.Context, slug string) (*model.Client, error) {
	return r.lookup(ctx, "SELECT "+clientColumns+" FROM clients WHERE slug = ? LIMIT 1", strings.ToLower(slug))
}

// Superadmin returns the lowest-id platform client or nil.
func (r *ClientRepo) Superadmin(ctx context.Context) (*model.Client, error) {
	return r.lookup(ctx, "SELECT "+clientColumns+" FROM clients WHERE is_platform = 1 ORDER BY id LIMIT 1")
}

// First returns the lowest-id client or nil.
func (r *ClientRepo) First(ctx context.Context) (*model.Client, error) {
	return r.lookup(ctx, "SELECT "+clientColumns+" FROM clients ORDER BY id LIMIT 1")
}

// ByID returns the client with id or nil, ignoring the tenant in ctx.
// Login uses it to learn whether a user's client is the platform.
func (r *ClientRepo) ByID(ctx context.Context, id uint64) (*model.Client, error) {
	return r.lookup(ctx, "SELECT "+clientColumns+" FROM clients WHERE id = ? LIMIT 1", id)
}

// Create inserts c and fills its ID and CreatedAt.
func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (name, slug, contact_name, contact_email, contact_phone,
			contact_plan, contact_payment_date, is_platform)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Slug, c.ContactName, c.ContactEmail, c.ContactPhone,
		c.ContactPlan, c.ContactPaymentDate, c.Platform)
	if err != nil {
		if isDuplicate(err) {
			return ErrSlugExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM clients WHERE id = ?", c.ID).Scan(&c.CreatedAt)
}

// GetByID fetches a client visible to the current tenant.
func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (*model.Client, error) {
	clause, args := tenantClause(ctx, "id")
	q := "SELECT " + clientColumns + " FROM clients WHERE id = ? AND " + clause
	c, err := scanClient(r.db.QueryRowContext(ctx, q, append([]any{id}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// List returns the clients visible to the current tenant ordered by id.
func (r *ClientRepo) List(ctx context.Context) ([]*model.Client, error) {
	clause, args := tenantClause(ctx, "id")
	rows, err := r.db.QueryContext(ctx, "SELECT "+clientColumns+" FROM clients WHERE "+clause+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update rewrites the editable columns of c.  The platform flag is not
// editable through this path.
func (r *ClientRepo) Update(ctx context.Context, c *model.Client) error {
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	clause, args := tenantClause(ctx, "id")
	q := `UPDATE clients
	      SET name = ?, slug = ?, contact_name = ?, contact_email = ?, contact_phone = ?,
	          contact_plan = ?, contact_payment_date = ?
	      WHERE id = ? AND ` + clause
	res, err := r.db.ExecContext(ctx, q, append([]any{c.Name, c.Slug, c.ContactName, c.ContactEmail,
		c.ContactPhone, c.ContactPlan, c.ContactPaymentDate, c.ID}, args...)...)
	if err != nil {
		if isDuplicate(err) {
			return ErrSlugExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows for no-op updates too.
		if _, gerr := r.GetByID(ctx, c.ID); gerr != nil {
			return gerr
		}
	}
	return nil
}

// Delete removes a client and everything it owns.  Users, templates,
// campaigns, logs and side-rows go through ON DELETE CASCADE; groups and
// attachments are tenant-unaware, so the ones attached to this client are
// removed explicitly in the same transaction.  The platform client cannot
// be deleted.
func (r *ClientRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
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

	var platform bool
	if err = tx.QueryRowContext(ctx, "SELECT is_platform FROM clients WHERE id = ? FOR UPDATE", id).Scan(&platform); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if platform {
		return ErrConflict
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE g FROM auth_groups g JOIN group_tenants gt ON gt.group_id = g.id WHERE gt.client_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE a FROM attachments a JOIN attachment_tenants at ON at.attachment_id = a.id WHERE at.client_id = ?`, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	return err
}
