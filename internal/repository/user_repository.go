package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

const userColumns = `u.id, u.client_id, u.username, u.email, u.password_hash, u.department,
	u.extension, u.user_group, u.is_staff, u.is_active, u.created_at, u.updated_at`

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := new(model.User)
	var dept, ext, grp sql.NullString
	if err := row.Scan(&u.ID, &u.ClientID, &u.Username, &u.Email, &u.PasswordHash, &dept,
		&ext, &grp, &u.IsStaff, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Department, u.Extension, u.UserGroup = dept.String, ext.String, grp.String
	return u, nil
}

// Create inserts u together with its group memberships.  PasswordHash
// must already be set.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (err error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
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
		`INSERT INTO users (client_id, username, email, password_hash, department, extension,
			user_group, is_staff, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ClientID, u.Username, u.Email, u.PasswordHash, u.Department, u.Extension,
		u.UserGroup, u.IsStaff, u.IsActive)
	if err != nil {
		if isDuplicate(err) {
			return ErrUsernameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return replaceUserGroups(ctx, tx, u.ID, u.GroupIDs)
}

func replaceUserGroups(ctx context.Context, tx *sql.Tx, userID uint64, groupIDs []uint64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_groups WHERE user_id = ?", userID); err != nil {
		return err
	}
	for _, gid := range dedupe(groupIDs) {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)", userID, gid); err != nil {
			return err
		}
	}
	return nil
}

// GetByLogin fetches an active or inactive user by username or email.  It
// is unscoped because login runs before any token exists.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	login = strings.TrimSpace(login)
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE u.username = ? OR u.email = ? LIMIT 1",
		login, strings.ToLower(login)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user visible to the current tenant along with its groups.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	clause, args := tenantClause(ctx, "u.client_id")
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE u.id = ? AND "+clause,
		append([]any{id}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	groups, err := r.groupsOf(ctx, "ug.user_id = ?", id)
	if err != nil {
		return nil, err
	}
	u.GroupIDs = groups[u.ID]
	return u, nil
}

// groupsOf loads memberships matching the given predicate keyed by user.
func (r *UserRepo) groupsOf(ctx context.Context, where string, args ...any) (map[uint64][]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT ug.user_id, ug.group_id FROM user_groups ug JOIN users u ON u.id = ug.user_id WHERE "+where+
			" ORDER BY ug.user_id, ug.group_id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64][]uint64)
	for rows.Next() {
		var uid, gid uint64
		if err := rows.Scan(&uid, &gid); err != nil {
			return nil, err
		}
		out[uid] = append(out[uid], gid)
	}
	return out, rows.Err()
}

// List returns users visible to the current tenant.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	clause, args := tenantClause(ctx, "u.client_id")
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users u WHERE "+clause+" ORDER BY u.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	groups, err := r.groupsOf(ctx, clause, args...)
	if err != nil {
		return nil, err
	}
	for _, u := range out {
		u.GroupIDs = groups[u.ID]
	}
	return out, nil
}

// Update rewrites the profile and memberships of u.  A user never changes
// client: a non-zero ClientID that differs from the stored one yields
// ErrClientImmutable.  An empty PasswordHash keeps the existing hash.
func (r *UserRepo) Update(ctx context.Context, u *model.User) (err error) {
	cur, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	if u.ClientID != 0 && u.ClientID != cur.ClientID {
		return ErrClientImmutable
	}
	u.ClientID = cur.ClientID
	if u.PasswordHash == "" {
		u.PasswordHash = cur.PasswordHash
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

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
		`UPDATE users SET username = ?, email = ?, password_hash = ?, department = ?, extension = ?,
			user_group = ?, is_staff = ?, is_active = ?
		 WHERE id = ? AND client_id = ?`,
		u.Username, u.Email, u.PasswordHash, u.Department, u.Extension,
		u.UserGroup, u.IsStaff, u.IsActive, u.ID, u.ClientID); err != nil {
		if isDuplicate(err) {
			return ErrUsernameExists
		}
		return err
	}
	return replaceUserGroups(ctx, tx, u.ID, u.GroupIDs)
}

// Delete removes a user visible to the current tenant.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	clause, args := tenantClause(ctx, "client_id")
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id = ? AND "+clause, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecipientEmails returns the distinct, non-empty emails of users that
// belong to any of groupIDs and are visible to the current tenant.
func (r *UserRepo) RecipientEmails(ctx context.Context, groupIDs []uint64) ([]string, error) {
	groupIDs = dedupe(groupIDs)
	if len(groupIDs) == 0 {
		return nil, nil
	}
	clause, args := tenantClause(ctx, "u.client_id")
	q := `SELECT DISTINCT u.email FROM users u
	      JOIN user_groups ug ON ug.user_id = u.id
	      WHERE ug.group_id IN (` + placeholders(len(groupIDs)) + `) AND u.email <> '' AND ` + clause +
		` ORDER BY u.email`
	rows, err := r.DB.QueryContext(ctx, q, append(uint64Args(groupIDs), args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}
