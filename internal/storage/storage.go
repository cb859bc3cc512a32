// Package storage persists uploaded media (recipe images, avatars)
// and resolves stored object names to public URLs.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store saves image blobs under a generated object name.
type Store interface {
	// Save writes data and returns the object name to persist on the entity.
	Save(ctx context.Context, objectName string, data []byte, contentType string) error
	// URL resolves a stored object name to a URL clients can fetch.
	URL(objectName string) string
	// Delete removes a stored object. Missing objects are not an error.
	Delete(ctx context.Context, objectName string) error
}

// LocalStore writes media to a directory on disk, the way the original
// deployment served a media root behind the web server.
type LocalStore struct {
	Root    string
	BaseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{Root: root, BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *LocalStore) Save(_ context.Context, objectName string, data []byte, _ string) error {
	full := filepath.Join(s.Root, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write media file: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(objectName string) string {
	return s.BaseURL + "/" + path.Clean(objectName)
}

func (s *LocalStore) Delete(_ context.Context, objectName string) error {
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(objectName)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
