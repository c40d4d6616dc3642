// Package storage uploads attachments and derives their view/download URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/google/uuid"
)

// Placeholder is returned instead of a URL when none can be derived.
const Placeholder = "#"

type Store interface {
	// Upload stores content and returns the opaque file identity.
	Upload(ctx context.Context, name string, content io.Reader) (string, error)
	// ViewURL and DownloadURL are pure: they never contact the backend.
	ViewURL(fileID string) string
	DownloadURL(fileID string) string
}

// ValidateName rejects blank names. Any file type is accepted.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasSuffix(name, "/") {
		return fmt.Errorf("file name is required: %w", errdefs.ErrValidation)
	}
	return nil
}

// NewFileID returns a fresh identity accepted by both stores.
func NewFileID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate file id: %w", err)
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
