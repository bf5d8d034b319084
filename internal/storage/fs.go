package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, errors.Wrap(err, "create blob directory")
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) path(key string) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	clean := filepath.Clean("/" + key)
	if strings.Contains(key, "..") || clean == "/" {
		return "", errors.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.base, clean), nil
}

// Put writes to a temporary file and renames it so readers never see a
// partial blob.
func (s *FSStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	dst, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.Wrap(err, "create blob directory")
	}
	f, err := os.CreateTemp(filepath.Dir(dst), ".put-*")
	if err != nil {
		return "", errors.Wrap(err, "create blob")
	}
	defer os.Remove(f.Name())
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "write blob %s", key)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "write blob %s", key)
	}
	if err := os.Rename(f.Name(), dst); err != nil {
		return "", errors.Wrapf(err, "store blob %s", key)
	}
	return key, nil
}

func (s *FSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete blob %s", key)
	}
	return nil
}
