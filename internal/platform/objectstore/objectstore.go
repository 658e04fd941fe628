// Package objectstore holds uploaded document images and face captures
// in an S3-compatible backend.
package objectstore

import (
	"context"
	"io"
	"time"
)

// PutOptions carries metadata for an upload.
type PutOptions struct {
	ContentType string
	Size        int64
}

// Store is the object storage surface the upload paths depend on.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutOptions) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
