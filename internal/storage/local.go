package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Local stores blobs under a directory on the local filesystem, using
// forward-slash keys relative to the root. Useful for test runs and
// offline processing of previously mirrored documents.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "storage: create root %s", dir)
	}
	return &Local{root: dir}, nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

// Upload writes r to the file at key.
func (l *Local) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	p := l.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return eris.Wrapf(err, "storage: create dir for %s", key)
	}

	f, err := os.Create(p)
	if err != nil {
		return eris.Wrapf(err, "storage: create %s", key)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "storage: write %s", key)
	}
	return f.Close()
}

// UploadFile copies a local file to the file at key.
func (l *Local) UploadFile(ctx context.Context, key, localPath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return eris.Wrapf(err, "storage: open %s", localPath)
	}
	defer src.Close()
	return l.Upload(ctx, key, src, "")
}

// ReadAll returns the content of the file at key.
func (l *Local) ReadAll(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(l.path(key))
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read %s", key)
	}
	return data, nil
}

// List returns all keys under prefix in sorted order.
func (l *Local) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "storage: list %s", prefix)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the filesystem store.
func (l *Local) Close() error {
	return nil
}
