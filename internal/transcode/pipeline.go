package transcode

import (
	"github.com/amankumarsingh77/hls-encoder/internal/config"
	"github.com/amankumarsingh77/hls-encoder/internal/ffmpeg"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
)

// NewPipeline assembles the ffmpeg-backed orchestrator described by cfg.
// codec is detected once per process by the caller.
func NewPipeline(cfg *config.Config, tc *ffmpeg.Toolchain, codec ffmpeg.Codec, store RecordStore, log logger.Logger, options ...Option) *Orchestrator {
	encoder := ffmpeg.NewEncoder(tc, ffmpeg.EncoderOptions{
		Codec:           codec,
		Timeout:         cfg.Transcode.EncodeTimeout,
		Threads:         cfg.Transcode.Threads,
		SegmentDuration: ffmpeg.DefaultSegmentTime,
	})
	cascade := NewCascade(encoder, ffmpeg.AudioStrategies, cfg.Transcode.CleanupFailed, log)
	return NewOrchestrator(
		NewLayout(cfg.Transcode.StorageRoot),
		ffmpeg.NewProber(tc, cfg.Transcode.ProbeTimeout),
		cascade,
		ffmpeg.NewThumbnailer(tc, cfg.Transcode.ProbeTimeout),
		store,
		Options{
			Parallelism:     cfg.Transcode.Parallelism,
			ThumbnailOffset: cfg.Transcode.ThumbnailOffset,
			ThumbnailWidth:  cfg.Transcode.ThumbnailWidth,
			CleanupFailed:   cfg.Transcode.CleanupFailed,
		},
		log,
		options...,
	)
}
