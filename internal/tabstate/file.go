package tabstate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore writes one pretty-printed JSON file per key under Root. A scoped
// key "client:screen" maps to Root/client/screen.json.
type FileStore struct {
	Root string
}

// NewFileStore creates a file backend rooted at root
func NewFileStore(root string) *FileStore {
	return &FileStore{Root: root}
}

// Path returns the file that holds key
func (s *FileStore) Path(key string) string {
	parts := strings.Split(key, ":")
	parts[len(parts)-1] += ".json"
	return filepath.Join(append([]string{s.Root}, parts...)...)
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := json.Indent(buf, value, "", "  "); err != nil {
		buf.Reset()
		buf.Write(value)
	}

	// Write to a private temp file then rename, so a crash or a concurrent
	// save of the same key never leaves a half-written file
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
