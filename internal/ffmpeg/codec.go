package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

type VideoCodec string

const (
	CodecLibx264      VideoCodec = "libx264"
	CodecVideoToolbox VideoCodec = "h264_videotoolbox"
	CodecVAAPI        VideoCodec = "h264_vaapi"
	CodecNVENC        VideoCodec = "h264_nvenc"
)

// HWAccel is the operator's encoder preference from config.
type HWAccel string

const (
	HWAccelAuto         HWAccel = "auto"
	HWAccelNone         HWAccel = "none"
	HWAccelVAAPI        HWAccel = "vaapi"
	HWAccelVideoToolbox HWAccel = "videotoolbox"
	HWAccelNVENC        HWAccel = "nvenc"
)

// Codec is the encoder chosen for this process. Device is only set for VAAPI.
type Codec struct {
	Name   VideoCodec
	Device string
}

func (c Codec) Hardware() bool { return c.Name != CodecLibx264 }

const detectTimeout = 15 * time.Second

// CodecDetector decides once which H.264 encoder this host can use.
type CodecDetector struct {
	tc            *Toolchain
	goos          string
	renderDevices func() []string
	testEncode    func(ctx context.Context, args []string) error
}

func NewCodecDetector(tc *Toolchain) *CodecDetector {
	d := &CodecDetector{
		tc:            tc,
		goos:          runtime.GOOS,
		renderDevices: findRenderDevices,
	}
	d.testEncode = func(ctx context.Context, args []string) error {
		return run(ctx, tc.FFmpeg(), args).Err
	}
	return d
}

// DetectVideoCodec is a shorthand for NewCodecDetector(tc).Detect.
func DetectVideoCodec(ctx context.Context, tc *Toolchain, accel HWAccel, vaapiDevice string) Codec {
	return NewCodecDetector(tc).Detect(ctx, accel, vaapiDevice)
}

// Detect tries the candidates implied by accel in order and returns the
// first one that survives a tiny test encode. libx264 is the fallback.
func (d *CodecDetector) Detect(ctx context.Context, accel HWAccel, vaapiDevice string) Codec {
	for _, c := range d.candidates(accel, vaapiDevice) {
		if d.works(ctx, c) {
			return c
		}
	}
	return Codec{Name: CodecLibx264}
}

func (d *CodecDetector) candidates(accel HWAccel, vaapiDevice string) []Codec {
	vaapi := func() []Codec {
		if vaapiDevice != "" {
			return []Codec{{Name: CodecVAAPI, Device: vaapiDevice}}
		}
		var out []Codec
		for _, dev := range d.renderDevices() {
			out = append(out, Codec{Name: CodecVAAPI, Device: dev})
		}
		return out
	}
	switch accel {
	case HWAccelNone:
		return nil
	case HWAccelVAAPI:
		return vaapi()
	case HWAccelVideoToolbox:
		return []Codec{{Name: CodecVideoToolbox}}
	case HWAccelNVENC:
		return []Codec{{Name: CodecNVENC}}
	}
	switch d.goos {
	case "darwin":
		return []Codec{{Name: CodecVideoToolbox}}
	case "linux":
		return append(vaapi(), Codec{Name: CodecNVENC})
	case "windows":
		return []Codec{{Name: CodecNVENC}}
	}
	return nil
}

func (d *CodecDetector) works(ctx context.Context, c Codec) bool {
	ctx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()
	args := []string{"-hide_banner", "-v", "error"}
	if c.Name == CodecVAAPI {
		args = append(args, "-vaapi_device", c.Device)
	}
	args = append(args, "-f", "lavfi", "-i", "color=c=black:s=256x144:d=0.1", "-frames:v", "1")
	if c.Name == CodecVAAPI {
		args = append(args, "-vf", "format=nv12,hwupload")
	}
	args = append(args, "-c:v", string(c.Name), "-f", "null", "-")
	return d.testEncode(ctx, args) == nil
}

func findRenderDevices() []string {
	matches, err := filepath.Glob("/dev/dri/renderD*")
	if err != nil {
		return nil
	}
	var out []string
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.Mode()&os.ModeDevice != 0 {
			out = append(out, m)
		}
	}
	return out
}
