package ffmpeg

import (
	"errors"
	"fmt"
	"os/exec"
)

var (
	ErrFFmpegNotFound  = errors.New("ffmpeg: binary not found")
	ErrFFprobeNotFound = errors.New("ffprobe: binary not found")
)

// Toolchain holds the resolved paths of the external binaries. It is built
// once at startup and never changes afterwards.
type Toolchain struct {
	ffmpeg  string
	ffprobe string
}

// ResolveToolchain looks both binaries up on PATH (or uses them as given
// when they contain a path separator).
func ResolveToolchain(ffmpegPath, ffprobePath string) (*Toolchain, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	ff, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFFmpegNotFound, ffmpegPath, err)
	}
	fp, err := exec.LookPath(ffprobePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFFprobeNotFound, ffprobePath, err)
	}
	return &Toolchain{ffmpeg: ff, ffprobe: fp}, nil
}

// NewToolchain wraps already-resolved paths without checking them.
func NewToolchain(ffmpegPath, ffprobePath string) *Toolchain {
	return &Toolchain{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (t *Toolchain) FFmpeg() string  { return t.ffmpeg }
func (t *Toolchain) FFprobe() string { return t.ffprobe }
