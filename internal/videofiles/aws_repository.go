package videofiles

import (
	"context"
	"io"
)

type AWSRepository interface {
	PutObject(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
	RemoveObject(ctx context.Context, bucket, key string) error
}
