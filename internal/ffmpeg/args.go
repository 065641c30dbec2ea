package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
)

const (
	PlaylistName       = "index.m3u8"
	SegmentPattern     = "seg_%03d.ts"
	DefaultSegmentTime = 10
)

// BuildEncodeArgs returns the ffmpeg arguments (without the binary) that
// encode req into an HLS playlist inside req.OutputDir.
func BuildEncodeArgs(req EncodeRequest, opts EncoderOptions) []string {
	s := req.Strategy
	r := req.Resolution
	segment := opts.SegmentDuration
	if segment <= 0 {
		segment = DefaultSegmentTime
	}

	args := []string{"-hide_banner", "-v", "error", "-nostdin"}
	if opts.Codec.Name == CodecVAAPI {
		args = append(args, "-vaapi_device", opts.Codec.Device)
	}
	args = append(args, s.InputFlags...)
	args = append(args, "-i", req.Source)

	if s.FilterComplex != "" {
		args = append(args, "-filter_complex", s.FilterComplex)
	}
	for _, m := range s.Maps {
		args = append(args, "-map", m)
	}

	args = append(args, "-vf", videoFilter(r, opts.Codec))
	args = append(args, "-c:v", string(opts.Codec.Name))
	switch opts.Codec.Name {
	case CodecLibx264:
		args = append(args, "-preset", "superfast", "-profile:v", "main", "-pix_fmt", "yuv420p", "-sc_threshold", "0")
	case CodecNVENC, CodecVideoToolbox:
		args = append(args, "-pix_fmt", "yuv420p")
	}
	args = append(args,
		"-b:v", kbps(r.VideoBitrate),
		"-maxrate", kbps(r.VideoBitrate),
		"-bufsize", kbps(2*r.VideoBitrate),
		"-force_key_frames", fmt.Sprintf("expr:gte(t,n_forced*%d)", segment),
	)

	args = append(args, audioArgs(s, r)...)

	if opts.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(opts.Threads))
	}
	args = append(args,
		"-max_muxing_queue_size", "1024",
		"-f", "hls",
		"-hls_time", strconv.Itoa(segment),
		"-hls_list_size", "0",
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join(req.OutputDir, SegmentPattern),
		"-y", filepath.Join(req.OutputDir, PlaylistName),
	)
	return args
}

// videoFilter letterboxes the source into exactly WxH.
func videoFilter(r models.ResolutionSpec, c Codec) string {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease:force_divisible_by=2,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		r.Width, r.Height, r.Width, r.Height,
	)
	if c.Name == CodecVAAPI {
		vf += ",format=nv12,hwupload"
	}
	return vf
}

func audioArgs(s AudioStrategy, r models.ResolutionSpec) []string {
	if s.DropAudio {
		return []string{"-an"}
	}
	args := []string{"-c:a", s.AudioCodec}
	if s.AudioCodec == "copy" {
		return args
	}
	if s.AudioFilter != "" {
		args = append(args, "-af", s.AudioFilter)
	}
	args = append(args, "-b:a", kbps(r.AudioBitrate), "-ar", "48000")
	if s.Stereo {
		args = append(args, "-ac", "2")
	}
	return args
}

func kbps(v int) string {
	return strconv.Itoa(v) + "k"
}
