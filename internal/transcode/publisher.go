package transcode

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
)

// ObjectStore is the slice of the S3 repository the publisher needs.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) error
}

// S3Publisher mirrors a video's HLS tree and thumbnail into a bucket using
// the same relative keys as the local layout.
type S3Publisher struct {
	store  ObjectStore
	bucket string
	layout Layout
}

func NewS3Publisher(store ObjectStore, bucket string, layout Layout) *S3Publisher {
	return &S3Publisher{store: store, bucket: bucket, layout: layout}
}

func (p *S3Publisher) Publish(ctx context.Context, videoID string, result *models.VideoResult) error {
	keys, err := p.collect(videoID, result)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := p.upload(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (p *S3Publisher) collect(videoID string, result *models.VideoResult) ([]string, error) {
	var keys []string
	root := p.layout.Abs(HLSRel(videoID))
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(p.layout.Root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if result != nil && result.ThumbnailPath != nil {
		keys = append(keys, *result.ThumbnailPath)
	}
	return keys, nil
}

func (p *S3Publisher) upload(ctx context.Context, key string) error {
	f, err := os.Open(p.layout.Abs(key))
	if err != nil {
		return fmt.Errorf("open %s: %w", key, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", key, err)
	}
	if err := p.store.PutObject(ctx, p.bucket, key, ContentType(key), f, fi.Size()); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}
