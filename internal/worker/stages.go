package worker

import (
	"context"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/internal/transcode"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
)

type redisStageReporter struct {
	redisRepo videofiles.RedisRepository
	logger    logger.Logger
}

// NewStageReporter publishes run stages to Redis so the API can show them
// while the record is still processing.
func NewStageReporter(redisRepo videofiles.RedisRepository, logger logger.Logger) transcode.StageReporter {
	return &redisStageReporter{redisRepo: redisRepo, logger: logger}
}

func (r *redisStageReporter) ReportStage(ctx context.Context, videoID string, stage models.TranscodeStage) {
	if err := r.redisRepo.SetStage(context.WithoutCancel(ctx), videoID, stage); err != nil {
		r.logger.Warnf("StageReporter - video %s stage %s: %v", videoID, stage, err)
	}
}
