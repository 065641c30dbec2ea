package transcode

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/amankumarsingh77/hls-encoder/internal/ffmpeg"
)

const (
	rawDir    = "raw"
	hlsDir    = "hls"
	thumbsDir = "thumbs"
)

// Layout maps video ids to artifact locations under a storage root. The
// *Rel helpers return slash-separated paths relative to the root; those are
// what records store and what object keys use.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) Abs(rel string) string {
	return filepath.Join(l.Root, filepath.FromSlash(rel))
}

func RawRel(videoID, ext string) string {
	return path.Join(rawDir, videoID+ext)
}

func HLSRel(videoID string) string {
	return path.Join(hlsDir, videoID)
}

func MasterRel(videoID string) string {
	return path.Join(hlsDir, videoID, ffmpeg.PlaylistName)
}

func RenditionDirRel(videoID, label string) string {
	return path.Join(hlsDir, videoID, label)
}

func RenditionRel(videoID, label string) string {
	return path.Join(hlsDir, videoID, label, ffmpeg.PlaylistName)
}

func ThumbnailRel(videoID string) string {
	return path.Join(thumbsDir, videoID+".jpg")
}

var contentTypes = map[string]string{
	".m3u8": "application/x-mpegURL",
	".ts":   "video/MP2T",
	".jpg":  "image/jpeg",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
}

// ContentType returns the MIME type served for an artifact, or
// application/octet-stream when the extension is unknown.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
