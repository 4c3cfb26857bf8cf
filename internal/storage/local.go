package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage implements Storage on the local filesystem for non-hosted
// deployments. Files live under <dir> and are served by the router at
// <baseURL>/uploads/.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	return &LocalStorage{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Dir returns the root directory files are stored under.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save stores a file on disk under the storage directory.
func (s *LocalStorage) Save(path string, file io.Reader) error {
	full := filepath.Join(s.dir, filepath.FromSlash(path))

	err := os.MkdirAll(filepath.Dir(full), 0755)
	if err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, err = io.Copy(f, file)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Delete removes a file from disk.
func (s *LocalStorage) Delete(path string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(path)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// URL returns the public URL for accessing the file.
func (s *LocalStorage) URL(path string) string {
	return s.baseURL + "/uploads/" + path
}
