package ffmpeg

// AudioMode names one step of the audio fallback cascade.
type AudioMode string

const (
	AudioNormal     AudioMode = "normal"
	AudioCopy       AudioMode = "copy"
	AudioFiltered   AudioMode = "filtered"
	AudioAggressive AudioMode = "aggressive"
	AudioNone       AudioMode = "none"
)

// AudioStrategy is the input and audio half of an encode invocation. The
// cascade walks these in order; the builder turns one into arguments.
type AudioStrategy struct {
	Mode        AudioMode
	Description string
	// InputFlags go before -i.
	InputFlags []string
	// AudioCodec is "aac", "copy" or empty when audio is dropped.
	AudioCodec    string
	Stereo        bool
	AudioFilter   string
	FilterComplex string
	Maps          []string
	DropAudio     bool
}

const (
	stereoResampleFilter = "aformat=channel_layouts=stereo,pan=stereo|c0=c0|c1=c1,aresample=async=1000:min_hard_comp=0.100000:first_pts=0"
	firstTrackDownmix    = "[0:a:0]pan=stereo|c0=c0|c1=c1[aout]"
)

// AudioStrategies is the fallback order. First success wins.
var AudioStrategies = []AudioStrategy{
	{
		Mode:        AudioNormal,
		Description: "re-encode audio to stereo AAC",
		InputFlags:  []string{"-fflags", "+discardcorrupt+genpts"},
		AudioCodec:  "aac",
		Stereo:      true,
	},
	{
		Mode:        AudioCopy,
		Description: "pass the source audio through",
		InputFlags:  []string{"-fflags", "+discardcorrupt"},
		AudioCodec:  "copy",
	},
	{
		Mode:        AudioFiltered,
		Description: "force a stereo layout and resample to repair timestamps",
		InputFlags:  []string{"-fflags", "+discardcorrupt+genpts", "-err_detect", "ignore_err"},
		AudioCodec:  "aac",
		AudioFilter: stereoResampleFilter,
	},
	{
		Mode:        AudioAggressive,
		Description: "take the first audio track only and ignore broken timestamps",
		InputFlags: []string{
			"-fflags", "+discardcorrupt+genpts+igndts+nofillin",
			"-err_detect", "ignore_err",
			"-ignore_unknown",
			"-copyts", "-start_at_zero",
		},
		AudioCodec:    "aac",
		FilterComplex: firstTrackDownmix,
		Maps:          []string{"0:v:0", "[aout]"},
	},
	{
		Mode:        AudioNone,
		Description: "drop audio",
		InputFlags:  []string{"-fflags", "+discardcorrupt"},
		DropAudio:   true,
	},
}

func StrategyFor(mode AudioMode) (AudioStrategy, bool) {
	for _, s := range AudioStrategies {
		if s.Mode == mode {
			return s, true
		}
	}
	return AudioStrategy{}, false
}
