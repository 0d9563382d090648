package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileKV persists each key as its own file under a data directory.
// Writes go through a temp file and rename so a crash mid-write never
// leaves a half-written record behind.
type FileKV struct {
	dir string
	mu  sync.Mutex
}

func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileKV{dir: dir}, nil
}

// Dir returns the backing directory, used by the store watcher.
func (f *FileKV) Dir() string {
	return f.dir
}

func (f *FileKV) path(key string) (string, bool) {
	// Keys are fixed identifiers chosen by the store; reject anything
	// that could escape the data dir.
	if key == "" || strings.ContainsAny(key, `/\.`) {
		return "", false
	}
	return filepath.Join(f.dir, key), true
}

func (f *FileKV) Get(key string) ([]byte, bool) {
	path, ok := f.path(key)
	if !ok {
		return nil, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (f *FileKV) Set(key string, value []byte) error {
	path, ok := f.path(key)
	if !ok {
		return fmt.Errorf("invalid store key: %q", key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (f *FileKV) Delete(key string) error {
	path, ok := f.path(key)
	if !ok {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
