package storage

import (
	"context"
	"io"
)

// ObjectStorage is the bucket that receives generation transcripts.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// GetURL links to an uploaded key; it makes no request.
	GetURL(key string) string
	EnsureBucket(ctx context.Context) error
}
