package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	storagev1 "google.golang.org/api/storage/v1"

	"syncsns/infrastructure/logger"
)

// IObjectStore uploads media and returns a publicly reachable URL for it.
// Publish containers reference media by URL, so uploaded objects must be
// world-readable.
type IObjectStore interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// GCSStore stores objects in a Google Cloud Storage bucket.
type GCSStore struct {
	service *storagev1.Service
	bucket  string
	prefix  string
}

// NewGCSStore creates the store using application default credentials.
func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket not configured")
	}
	service, err := storagev1.NewService(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSStore{service: service, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	objectName := path.Join(s.prefix, fmt.Sprintf("%d_%s", time.Now().UnixNano(), name))
	object := &storagev1.Object{
		Name:        objectName,
		ContentType: contentType,
	}
	_, err := s.service.Objects.Insert(s.bucket, object).
		Media(r).
		PredefinedAcl("publicRead").
		Context(ctx).
		Do()
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":  err,
			"object": objectName,
		}).Error("gcs upload failed")
		return "", err
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectName), nil
}
