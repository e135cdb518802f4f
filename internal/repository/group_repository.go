package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

// Groups are tenant-unaware; ownership is the optional group_tenants row.
// A group without that row belongs to no tenant and is therefore visible
// only to the superadmin.
const groupSelect = `SELECT g.id, g.name, gt.client_id, COALESCE(c.name, ''), COALESCE(gt.description, '')
	FROM auth_groups g
	LEFT JOIN group_tenants gt ON gt.group_id = g.id
	LEFT JOIN clients c ON c.id = gt.client_id`

type GroupRepo struct{ DB *sql.DB }

func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{DB: db} }

func scanGroup(row interface{ Scan(...any) error }) (*model.GroupView, error) {
	g := new(model.GroupView)
	var cid sql.NullInt64
	if err := row.Scan(&g.ID, &g.Name, &cid, &g.ClientName, &g.Description); err != nil {
		return nil, err
	}
	if cid.Valid {
		id := uint64(cid.Int64)
		g.ClientID = &id
	}
	return g, nil
}

// GetByID fetches a group visible to the current tenant.
func (r *GroupRepo) GetByID(ctx context.Context, id uint64) (*model.GroupView, error) {
	clause, args := tenantClause(ctx, "gt.client_id")
	g, err := scanGroup(r.DB.QueryRowContext(ctx, groupSelect+" WHERE g.id = ? AND "+clause,
		append([]any{id}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

// List returns groups visible to the current tenant.
func (r *GroupRepo) List(ctx context.Context) ([]*model.GroupView, error) {
	clause, args := tenantClause(ctx, "gt.client_id")
	rows, err := r.DB.QueryContext(ctx, groupSelect+" WHERE "+clause+" ORDER BY g.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.GroupView
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Tenant returns the side-row of a group, or nil when none exists.  It is
// unscoped and meant for the admin surface deciding where a save goes.
func (r *GroupRepo) Tenant(ctx context.Context, groupID uint64) (*model.GroupTenant, error) {
	gt := &model.GroupTenant{GroupID: groupID}
	err := r.DB.QueryRowContext(ctx,
		"SELECT client_id, description FROM group_tenants WHERE group_id = ?", groupID).
		Scan(&gt.ClientID, &gt.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return gt, nil
}

// Save inserts or renames g and points its side-row at side.ClientID in one
// transaction.  The side-row is created when absent and updated in place
// otherwise, so a group never has more than one.  Updates of groups the
// current tenant cannot see return ErrNotFound.
func (r *GroupRepo) Save(ctx context.Context, g *model.Group, side model.GroupTenant) (err error) {
	if g.ID != 0 {
		if _, err := r.GetByID(ctx, g.ID); err != nil {
			return err
		}
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

	if g.ID == 0 {
		res, err := tx.ExecContext(ctx, "INSERT INTO auth_groups (name) VALUES (?)", g.Name)
		if err != nil {
			if isDuplicate(err) {
				return ErrConflict
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		g.ID = uint64(id)
	} else if _, err = tx.ExecContext(ctx, "UPDATE auth_groups SET name = ? WHERE id = ?", g.Name, g.ID); err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO group_tenants (group_id, client_id, description) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE client_id = VALUES(client_id), description = VALUES(description)`,
		g.ID, side.ClientID, side.Description)
	return err
}

// Delete removes a group visible to the current tenant.
func (r *GroupRepo) Delete(ctx context.Context, id uint64) error {
	clause, args := tenantClause(ctx, "gt.client_id")
	res, err := r.DB.ExecContext(ctx,
		"DELETE g FROM auth_groups g LEFT JOIN group_tenants gt ON gt.group_id = g.id WHERE g.id = ? AND "+clause,
		append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
