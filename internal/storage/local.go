package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps evidence on disk under root/<bucket>/<path>. The web
// server exposes root at baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) resolve(bucket, objectPath string) (string, error) {
	base := filepath.Join(s.root, bucket)
	full := filepath.Join(base, filepath.FromSlash(objectPath))
	if full != base && !strings.HasPrefix(full, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("object path %q escapes bucket %s", objectPath, bucket)
	}
	return full, nil
}

func (s *LocalStore) EnsureBucket(_ context.Context, bucket string) error {
	return os.MkdirAll(filepath.Join(s.root, bucket), 0o755)
}

func (s *LocalStore) Upload(ctx context.Context, bucket, objectPath string, f File) (string, error) {
	full, err := s.resolve(bucket, objectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(full)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(dst, readerWithContext{ctx: ctx, r: f.Body})
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(full)
		return "", err
	}
	return objectPath, nil
}

func (s *LocalStore) URL(_ context.Context, bucket, objectPath string) (string, error) {
	return s.baseURL + "/" + url.PathEscape(bucket) + "/" + (&url.URL{Path: objectPath}).EscapedPath(), nil
}

func (s *LocalStore) Delete(_ context.Context, bucket, objectPath string) error {
	full, err := s.resolve(bucket, objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// readerWithContext stops a copy once ctx is cancelled.
type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
