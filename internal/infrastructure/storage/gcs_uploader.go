package storage

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"

	"github.com/resumeforge/api/pkg/helpers"
)

// GCSUploader writes objects to one bucket and returns their public URLs.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

func NewGCSUploader(client *storage.Client, bucket string) (*GCSUploader, error) {
	if client == nil || bucket == "" {
		return nil, errors.New("gcs not configured")
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	return helpers.UploadObject(ctx, u.client, u.bucket, objectPath, contentType, r)
}
