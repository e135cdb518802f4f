package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Local writes files under Root and serves them from BaseURL.
type Local struct {
	Root    string
	BaseURL string
}

func NewLocal(root, baseURL string) *Local {
	return &Local{Root: root, BaseURL: baseURL}
}

func (l *Local) Save(ctx context.Context, dir, name string, r io.Reader) (Object, error) {
	key, clean, err := objectKey(dir, name)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	full := filepath.Join(l.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Object{}, err
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Object{}, err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(full)
		return Object{}, err
	}
	if err := f.Close(); err != nil {
		return Object{}, err
	}
	return Object{Name: clean, Path: key, URL: joinURL(l.BaseURL, key)}, nil
}

func (l *Local) Delete(_ context.Context, p string) error {
	err := os.Remove(filepath.Join(l.Root, filepath.FromSlash(filepath.Clean("/"+p))))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
