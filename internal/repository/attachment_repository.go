package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

const attachmentSelect = `SELECT a.id, a.name, a.path, a.url, a.uploaded_at,
	at.client_id, COALESCE(c.name, ''), COALESCE(at.description, '')
	FROM attachments a
	LEFT JOIN attachment_tenants at ON at.attachment_id = a.id
	LEFT JOIN clients c ON c.id = at.client_id`

// AttachmentRepo mirrors GroupRepo: attachments carry no tenant column and
// are owned through attachment_tenants.
type AttachmentRepo struct{ DB *sql.DB }

func NewAttachmentRepo(db *sql.DB) *AttachmentRepo { return &AttachmentRepo{DB: db} }

func scanAttachment(row interface{ Scan(...any) error }) (*model.AttachmentView, error) {
	a := new(model.AttachmentView)
	var cid sql.NullInt64
	if err := row.Scan(&a.ID, &a.Name, &a.Path, &a.URL, &a.UploadedAt, &cid, &a.ClientName, &a.Description); err != nil {
		return nil, err
	}
	if cid.Valid {
		id := uint64(cid.Int64)
		a.ClientID = &id
	}
	return a, nil
}

func (r *AttachmentRepo) GetByID(ctx context.Context, id uint64) (*model.AttachmentView, error) {
	clause, args := tenantClause(ctx, "at.client_id")
	a, err := scanAttachment(r.DB.QueryRowContext(ctx, attachmentSelect+" WHERE a.id = ? AND "+clause,
		append([]any{id}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *AttachmentRepo) List(ctx context.Context) ([]*model.AttachmentView, error) {
	clause, args := tenantClause(ctx, "at.client_id")
	rows, err := r.DB.QueryContext(ctx, attachmentSelect+" WHERE "+clause+" ORDER BY a.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.AttachmentView
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Tenant returns the side-row of an attachment, or nil when none exists.
func (r *AttachmentRepo) Tenant(ctx context.Context, attachmentID uint64) (*model.AttachmentTenant, error) {
	at := &model.AttachmentTenant{AttachmentID: attachmentID}
	err := r.DB.QueryRowContext(ctx,
		"SELECT client_id, description FROM attachment_tenants WHERE attachment_id = ?", attachmentID).
		Scan(&at.ClientID, &at.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return at, nil
}

// Save inserts or updates a and upserts its side-row in one transaction.
func (r *AttachmentRepo) Save(ctx context.Context, a *model.Attachment, side model.AttachmentTenant) (err error) {
	if a.ID != 0 {
		if _, err := r.GetByID(ctx, a.ID); err != nil {
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

	if a.ID == 0 {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO attachments (name, path, url) VALUES (?, ?, ?)", a.Name, a.Path, a.URL)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		a.ID = uint64(id)
	} else if _, err = tx.ExecContext(ctx,
		"UPDATE attachments SET name = ?, path = ?, url = ? WHERE id = ?", a.Name, a.Path, a.URL, a.ID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO attachment_tenants (attachment_id, client_id, description) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE client_id = VALUES(client_id), description = VALUES(description)`,
		a.ID, side.ClientID, side.Description)
	return err
}

func (r *AttachmentRepo) Delete(ctx context.Context, id uint64) error {
	clause, args := tenantClause(ctx, "at.client_id")
	res, err := r.DB.ExecContext(ctx,
		"DELETE a FROM attachments a LEFT JOIN attachment_tenants at ON at.attachment_id = a.id WHERE a.id = ? AND "+clause,
		append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
