package cache

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileCache implements ArtifactCache on the local filesystem, one file per
// key under a single directory.
type FileCache struct {
	dir string
}

// NewFileCache creates the cache directory if needed and returns the cache
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileCache{dir: dir}, nil
}

// Exists reports whether a blob is stored under the key
func (c *FileCache) Exists(key string) bool {
	_, err := os.Stat(c.path(key))
	return err == nil
}

// Store writes the blob via a temp file and rename so a crash mid-write is
// never mistaken for a stored artifact on restart
func (c *FileCache) Store(key string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, key+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close artifact %s: %w", key, err)
	}

	if err := os.Rename(tmpName, c.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit artifact %s: %w", key, err)
	}
	return nil
}

// Load reads the blob, returning ErrNotFound when absent
func (c *FileCache) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(c.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", key, err)
	}
	return data, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key)
}
