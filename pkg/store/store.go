// Package store reads and writes whole documents on an afero filesystem.
//
// Writes overwrite the file in place. They are not atomic: a crash during
// Write can leave a partially written document.
package store

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

const defaultMode os.FileMode = 0o644

// Store is the persistent storage for patched documents.
type Store struct {
	fs afero.Fs
}

// New creates a store over fs. Use afero.NewOsFs() for real files or
// afero.NewMemMapFs() in tests.
func New(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// NewOS creates a store over the operating system filesystem.
func NewOS() *Store {
	return New(afero.NewOsFs())
}

// Fs exposes the underlying filesystem.
func (s *Store) Fs() afero.Fs { return s.fs }

// Read returns the full text of the document at path.
func (s *Store) Read(path string) (string, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// Write replaces the document at path with text, keeping the existing file
// mode when the document already exists.
func (s *Store) Write(path, text string) error {
	mode := defaultMode
	if info, err := s.fs.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("write %s: is a directory", path)
		}
		mode = info.Mode().Perm()
	}
	if err := afero.WriteFile(s.fs, path, []byte(text), mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
