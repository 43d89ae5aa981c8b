package datastores

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// KVFile implements [KV] with one file per key inside a directory.
// Values are replaced atomically by renaming a temporary file.
type KVFile struct {
	dir string
}

var _ KV = (*KVFile)(nil)

// NewKVFile creates dir and its parents if needed.
func NewKVFile(dir string) (*KVFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &KVFile{dir: dir}, nil
}

func (s *KVFile) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *KVFile) Get(_ context.Context, key string) (string, error) {
	b, err := os.ReadFile(s.path(key))
	switch {
	case err == nil:
		return string(b), nil
	case errors.Is(err, fs.ErrNotExist):
		return "", ErrKeyNotFound
	default:
		return "", fmt.Errorf("reading key %q: %w", key, err)
	}
}

func (s *KVFile) Set(_ context.Context, key, value string) error {
	f, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(f.Name()) //nolint: errcheck // already renamed on success

	if _, err = f.WriteString(value); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}

	if err := os.Rename(f.Name(), s.path(key)); err != nil {
		return fmt.Errorf("replacing key %q: %w", key, err)
	}
	return nil
}
