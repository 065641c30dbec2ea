package models

// ResolutionSpec is one rung of the rendition ladder. Bitrates are in kbps.
type ResolutionSpec struct {
	Label        string `json:"label"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	VideoBitrate int    `json:"video_bitrate"`
	AudioBitrate int    `json:"audio_bitrate"`
}

// Bandwidth is the advertised variant bandwidth in bits per second.
func (r ResolutionSpec) Bandwidth() int {
	return (r.VideoBitrate + r.AudioBitrate) * 1000
}

// DefaultLadder is ordered from highest to lowest quality.
var DefaultLadder = []ResolutionSpec{
	{Label: "1080p", Width: 1920, Height: 1080, VideoBitrate: 5000, AudioBitrate: 192},
	{Label: "720p", Width: 1280, Height: 720, VideoBitrate: 2500, AudioBitrate: 128},
	{Label: "480p", Width: 854, Height: 480, VideoBitrate: 1000, AudioBitrate: 128},
	{Label: "360p", Width: 640, Height: 360, VideoBitrate: 800, AudioBitrate: 96},
	{Label: "240p", Width: 426, Height: 240, VideoBitrate: 500, AudioBitrate: 64},
}

func FindResolution(label string) (ResolutionSpec, bool) {
	for _, r := range DefaultLadder {
		if r.Label == label {
			return r, true
		}
	}
	return ResolutionSpec{}, false
}

// RenditionOutcome records how one resolution fared during a run.
type RenditionOutcome struct {
	Resolution   ResolutionSpec
	Succeeded    bool
	AudioMode    string
	Bandwidth    int
	PlaylistPath string
	Err          error
}
