package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps files under a root directory on disk.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		root = "uploads"
	}
	for _, dir := range []string{"resumes", "documents/pan", "documents/aadhaar"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, err
		}
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Upload(ctx context.Context, objectName string, _ string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(objectName))
	if !s.within(full) {
		return "", ErrInvalidPath
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return "", ErrExists
	}
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return full, nil
}

func (s *LocalStore) Open(_ context.Context, storedPath string) (io.ReadCloser, error) {
	p := filepath.Clean(storedPath)
	if !s.within(p) {
		return nil, ErrInvalidPath
	}
	return os.Open(p)
}

func (s *LocalStore) Delete(_ context.Context, storedPath string) error {
	p := filepath.Clean(storedPath)
	if !s.within(p) {
		return ErrInvalidPath
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) within(p string) bool {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	return abs == root || strings.HasPrefix(abs, root+string(filepath.Separator))
}
