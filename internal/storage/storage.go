// Package storage persists uploaded files and hands back a public URL.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Object describes a stored file.  Path is storage-relative; URL is what
// editors and email bodies link to.
type Object struct {
	Name string
	Path string
	URL  string
}

// Store saves and removes uploaded files.
type Store interface {
	Save(ctx context.Context, dir, name string, r io.Reader) (Object, error)
	Delete(ctx context.Context, p string) error
}

// ErrEmptyName is returned for uploads without a usable file name.
var ErrEmptyName = errors.New("storage: empty file name")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// objectKey builds dir/<8 hex>_<sanitized name>.  The random prefix keeps
// repeated uploads of the same name from overwriting each other.
func objectKey(dir, name string) (string, string, error) {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		return "", "", ErrEmptyName
	}
	prefix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return path.Join(strings.Trim(dir, "/"), prefix+"_"+base), base, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
