// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// looking at driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a record does not exist or is not visible
// to the current tenant.  The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation its tenant
// may not perform. Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting the platform client.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrSlugExists is returned when a client slug is already taken.
var ErrSlugExists = errors.New("slug already exists")

// ErrUsernameExists is returned when a username is already taken.
var ErrUsernameExists = errors.New("username already exists")

// ErrClientImmutable is returned when an update tries to move a user to
// another client.
var ErrClientImmutable = errors.New("user client cannot be changed")

// isDuplicate reports whether err is a MySQL unique-key violation (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "1062")
}
