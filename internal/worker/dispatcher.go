package worker

import (
	"context"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/config"
	"github.com/amankumarsingh77/hls-encoder/internal/metrics"
	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/internal/transcode"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
	"github.com/pkg/errors"
)

// RedisDispatcher hands jobs to cmd/worker processes through a Redis list.
type RedisDispatcher struct {
	cfg       *config.Config
	redisRepo videofiles.RedisRepository
	logger    logger.Logger
}

func NewRedisDispatcher(cfg *config.Config, redisRepo videofiles.RedisRepository, logger logger.Logger) transcode.Dispatcher {
	return &RedisDispatcher{cfg: cfg, redisRepo: redisRepo, logger: logger}
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, job models.TranscodeJob) error {
	if job.QueuedAt.IsZero() {
		job.QueuedAt = time.Now().UTC()
	}
	if err := d.redisRepo.EnqueueJob(ctx, d.cfg.Redis.JobQueueKey, &job); err != nil {
		return errors.Wrap(err, "RedisDispatcher.Dispatch")
	}
	if err := d.redisRepo.SetStage(ctx, job.VideoID, models.StageStarted); err != nil {
		d.logger.Warnf("RedisDispatcher.Dispatch - stage for %s: %v", job.VideoID, err)
	}
	metrics.JobsQueuedTotal.Inc()
	return nil
}

func (d *RedisDispatcher) Cancel(ctx context.Context, videoID string) error {
	if err := d.redisRepo.PublishCancel(ctx, d.cfg.Worker.CancelChannel, videoID); err != nil {
		return errors.Wrap(err, "RedisDispatcher.Cancel")
	}
	return nil
}
