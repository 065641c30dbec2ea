package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/ffmpeg"
	"github.com/amankumarsingh77/hls-encoder/internal/metrics"
	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
)

var ErrCascadeExhausted = errors.New("transcode: every audio strategy failed")

// Cascade retries one resolution's encode through the audio strategies
// until one succeeds.
type Cascade struct {
	encoder       ffmpeg.Encoder
	strategies    []ffmpeg.AudioStrategy
	cleanupFailed bool
	logger        logger.Logger
}

func NewCascade(encoder ffmpeg.Encoder, strategies []ffmpeg.AudioStrategy, cleanupFailed bool, log logger.Logger) *Cascade {
	return &Cascade{
		encoder:       encoder,
		strategies:    strategies,
		cleanupFailed: cleanupFailed,
		logger:        log,
	}
}

// Run returns the audio mode that produced outDir's playlist. The
// directory is emptied before every attempt so segments never mix.
func (c *Cascade) Run(ctx context.Context, source string, res models.ResolutionSpec, outDir string) (ffmpeg.AudioMode, error) {
	var lastErr error
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			c.discard(outDir)
			return "", err
		}
		if err := resetDir(outDir); err != nil {
			return "", fmt.Errorf("prepare %s: %w", outDir, err)
		}

		start := time.Now()
		err := c.encoder.Encode(ctx, ffmpeg.EncodeRequest{
			Source:     source,
			Resolution: res,
			Strategy:   s,
			OutputDir:  outDir,
		})
		metrics.EncodeDuration.WithLabelValues(res.Label).Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.EncodeAttemptsTotal.WithLabelValues(res.Label, string(s.Mode), "ok").Inc()
			c.logger.Infof("Cascade - %s encoded with %s audio in %s", res.Label, s.Mode, time.Since(start).Round(time.Millisecond))
			return s.Mode, nil
		}
		metrics.EncodeAttemptsTotal.WithLabelValues(res.Label, string(s.Mode), "failed").Inc()
		lastErr = err

		if ctx.Err() != nil {
			c.discard(outDir)
			return "", ctx.Err()
		}
		c.logger.Warnf("Cascade - %s failed with %s audio (%s), trying next", res.Label, s.Mode, s.Description)
		var ee *ffmpeg.EncodeError
		if errors.As(err, &ee) && ee.Stderr != "" {
			c.logger.Debugf("Cascade - %s/%s ffmpeg stderr: %s", res.Label, s.Mode, ee.Stderr)
		}
	}

	metrics.RenditionsExhaustedTotal.WithLabelValues(res.Label).Inc()
	c.discard(outDir)
	return "", fmt.Errorf("%w for %s: %v", ErrCascadeExhausted, res.Label, lastErr)
}

func (c *Cascade) discard(dir string) {
	if !c.cleanupFailed {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		c.logger.Warnf("Cascade - remove %s: %v", dir, err)
	}
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
