// Package storage abstracts the object store used for uploaded resumes and
// generated offer documents.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectStore uploads binary artifacts and returns a public URL
type ObjectStore interface {
	Upload(ctx context.Context, publicID string, data []byte) (string, error)
}

// SanitizePublicID derives a safe public id from an uploaded filename: the
// base name lowercased with non-alphanumerics collapsed to underscores, plus
// a short random suffix so repeat uploads never collide.
func SanitizePublicID(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	cleaned := strings.Trim(b.String(), "_")
	if cleaned == "" {
		cleaned = "upload"
	}
	return cleaned + "_" + uuid.New().String()[:8]
}

// LocalStore is a filesystem-backed ObjectStore for development and tests
type LocalStore struct {
	Dir     string
	BaseURL string
}

// NewLocalStore creates a LocalStore rooted at dir
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Upload writes the artifact to disk and returns its URL
func (s *LocalStore) Upload(_ context.Context, publicID string, data []byte) (string, error) {
	path := filepath.Join(s.Dir, publicID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	return s.BaseURL + "/" + publicID, nil
}
