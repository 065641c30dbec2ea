package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type ThumbnailRequest struct {
	Source string
	Output string
	// Offset is the seek position in seconds.
	Offset float64
	Width  int
}

type Thumbnailer interface {
	Thumbnail(ctx context.Context, req ThumbnailRequest) error
}

type ffmpegThumbnailer struct {
	tc      *Toolchain
	timeout time.Duration
}

func NewThumbnailer(tc *Toolchain, timeout time.Duration) Thumbnailer {
	return &ffmpegThumbnailer{tc: tc, timeout: timeout}
}

func (t *ffmpegThumbnailer) Thumbnail(ctx context.Context, req ThumbnailRequest) error {
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	res := run(ctx, t.tc.FFmpeg(), BuildThumbnailArgs(req))
	if res.Err != nil {
		return fmt.Errorf("thumbnail %s: %w: %s", req.Source, res.Err, lastLine(res.Stderr))
	}
	return nil
}

func BuildThumbnailArgs(req ThumbnailRequest) []string {
	return []string{
		"-hide_banner", "-v", "error", "-nostdin",
		"-ss", strconv.FormatFloat(req.Offset, 'f', 3, 64),
		"-i", req.Source,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", req.Width),
		"-y", req.Output,
	}
}

// ThumbnailOffset seeks to preferred seconds, or to the midpoint of sources
// too short to reach it. Unknown durations fall back to the start.
func ThumbnailOffset(duration, preferred float64) float64 {
	if duration <= 0 {
		return 0
	}
	if duration <= preferred {
		return duration / 2
	}
	return preferred
}
