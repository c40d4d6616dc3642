package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/internal/errdefs"
)

type FileCreator interface {
	CreateFile(ctx context.Context, bucketID, fileID, name string, content io.Reader) (*appwrite.File, error)
	FileURL(bucketID, fileID, mode string) (string, error)
}

type AppwriteStore struct {
	client FileCreator
	bucket string
}

func NewAppwriteStore(client FileCreator, bucketID string) *AppwriteStore {
	return &AppwriteStore{client: client, bucket: bucketID}
}

func (s *AppwriteStore) Upload(ctx context.Context, name string, content io.Reader) (string, error) {
	if s.bucket == "" {
		return "", &errdefs.ServiceError{Op: "upload file", Message: "bucket is not set", Err: errdefs.ErrNotConfigured}
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	id, err := NewFileID()
	if err != nil {
		return "", err
	}
	file, err := s.client.CreateFile(ctx, s.bucket, id, name, content)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return file.ID, nil
}

func (s *AppwriteStore) ViewURL(fileID string) string {
	return s.url(fileID, "view")
}

func (s *AppwriteStore) DownloadURL(fileID string) string {
	return s.url(fileID, "download")
}

func (s *AppwriteStore) url(fileID, mode string) string {
	u, err := s.client.FileURL(s.bucket, fileID, mode)
	if err != nil {
		return Placeholder
	}
	return u
}
