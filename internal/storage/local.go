package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalService keeps objects as files below a root directory that the HTTP
// server exposes under a URL prefix.
type LocalService struct {
	root      string
	urlPrefix string
}

func NewLocalService(root, urlPrefix string) (*LocalService, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalService{root: root, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

// Root is the directory objects are written to.
func (s *LocalService) Root() string { return s.root }

func (s *LocalService) Put(ctx context.Context, obj Object) error {
	dst, err := s.path(obj.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := io.Copy(tmp, readerWithContext(ctx, obj.Body)); err != nil {
		tmp.Close()
		return fmt.Errorf("write object %s: %w", obj.Key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close object %s: %w", obj.Key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("store object %s: %w", obj.Key, err)
	}
	return nil
}

func (s *LocalService) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *LocalService) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", err
	}
	return path.Join(s.urlPrefix, filepath.ToSlash(key)), nil
}

func (s *LocalService) path(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	clean := filepath.Join(s.root, filepath.FromSlash(key))
	if rel, err := filepath.Rel(s.root, clean); err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ Service = (*LocalService)(nil)
