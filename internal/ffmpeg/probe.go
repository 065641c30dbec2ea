package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MediaInfo is what the pipeline needs to know about a source file.
// Width and Height are zero when the file has no video stream.
type MediaInfo struct {
	Duration   float64
	Width      int
	Height     int
	VideoCodec string
	AudioCodec string
	HasAudio   bool
}

type ProbeError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ProbeError) Error() string {
	msg := fmt.Sprintf("probe %s: %v", e.Path, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ProbeError) Unwrap() error { return e.Err }

type Prober interface {
	Probe(ctx context.Context, path string) (*MediaInfo, error)
}

type ffprobeProber struct {
	tc      *Toolchain
	timeout time.Duration
}

func NewProber(tc *Toolchain, timeout time.Duration) Prober {
	return &ffprobeProber{tc: tc, timeout: timeout}
}

func (p *ffprobeProber) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	res := run(ctx, p.tc.FFprobe(), []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	})
	if res.Err != nil {
		return nil, &ProbeError{Path: path, Stderr: res.Stderr, Err: res.Err}
	}
	info, err := ParseProbeOutput(res.Stdout)
	if err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}
	return info, nil
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// ParseProbeOutput extracts MediaInfo from ffprobe's JSON. Missing
// streams or durations become zero values, never errors.
func ParseProbeOutput(data []byte) (*MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	info := &MediaInfo{Duration: parseDuration(out.Format.Duration)}
	var videoSeen bool
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if videoSeen {
				continue
			}
			videoSeen = true
			info.Width = s.Width
			info.Height = s.Height
			info.VideoCodec = s.CodecName
			if info.Duration == 0 {
				info.Duration = parseDuration(s.Duration)
			}
		case "audio":
			if info.HasAudio {
				continue
			}
			info.HasAudio = true
			info.AudioCodec = s.CodecName
			if info.Duration == 0 {
				info.Duration = parseDuration(s.Duration)
			}
		}
	}
	return info, nil
}

func parseDuration(s string) float64 {
	if s == "" || s == "N/A" {
		return 0
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
