package videofiles

import (
	"context"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
)

type RedisRepository interface {
	EnqueueJob(ctx context.Context, key string, job *models.TranscodeJob) error
	// DequeueJob blocks up to wait and returns nil, nil when nothing arrived.
	DequeueJob(ctx context.Context, key string, wait time.Duration) (*models.TranscodeJob, error)
	QueueLength(ctx context.Context, key string) (int64, error)

	SetStage(ctx context.Context, videoID string, stage models.TranscodeStage) error
	GetStage(ctx context.Context, videoID string) (models.TranscodeStage, error)

	PublishCancel(ctx context.Context, channel, videoID string) error
	SubscribeCancel(ctx context.Context, channel string) (<-chan string, error)
}
