package storage

import (
	"context"
	"io"
)

// ImageUploader forwards user images to object storage.
// Handlers depend on this interface so tests can swap in a fake.
type ImageUploader interface {
	UploadImage(ctx context.Context, body io.Reader, size int64, filename, userID, kind string) (*UploadResult, error)
}

var _ ImageUploader = (*S3Uploader)(nil)
