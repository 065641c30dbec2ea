package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
)

var ErrEncodeTimeout = errors.New("ffmpeg: encode timed out")

type EncodeRequest struct {
	Source     string
	Resolution models.ResolutionSpec
	Strategy   AudioStrategy
	OutputDir  string
}

// EncodeError carries the tail of ffmpeg's stderr for diagnostics.
type EncodeError struct {
	Mode       AudioMode
	Resolution string
	Stderr     string
	Err        error
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("encode %s (%s audio): %v", e.Resolution, e.Mode, e.Err)
	if s := lastLine(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *EncodeError) Unwrap() error { return e.Err }

type Encoder interface {
	Encode(ctx context.Context, req EncodeRequest) error
}

type EncoderOptions struct {
	Codec           Codec
	Timeout         time.Duration
	Threads         int
	SegmentDuration int
}

type ffmpegEncoder struct {
	tc   *Toolchain
	opts EncoderOptions
}

func NewEncoder(tc *Toolchain, opts EncoderOptions) Encoder {
	if opts.Codec.Name == "" {
		opts.Codec = Codec{Name: CodecLibx264}
	}
	return &ffmpegEncoder{tc: tc, opts: opts}
}

// Encode runs one ffmpeg invocation to completion. Partial output is left
// in place on failure.
func (e *ffmpegEncoder) Encode(ctx context.Context, req EncodeRequest) error {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return &EncodeError{Mode: req.Strategy.Mode, Resolution: req.Resolution.Label, Err: err}
	}
	runCtx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	res := run(runCtx, e.tc.FFmpeg(), BuildEncodeArgs(req, e.opts))
	if res.Err == nil {
		return nil
	}
	err := res.Err
	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		err = fmt.Errorf("%w after %s", ErrEncodeTimeout, e.opts.Timeout)
	}
	return &EncodeError{
		Mode:       req.Strategy.Mode,
		Resolution: req.Resolution.Label,
		Stderr:     res.Stderr,
		Err:        err,
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
