package transcode

import "github.com/amankumarsingh77/hls-encoder/internal/models"

// SelectResolutions keeps every rung the source reaches in at least one
// dimension, in ladder order. A source too small for any rung, including
// one with no video stream, still gets the lowest rung.
func SelectResolutions(width, height int, ladder []models.ResolutionSpec) []models.ResolutionSpec {
	if len(ladder) == 0 {
		return nil
	}
	var out []models.ResolutionSpec
	for _, r := range ladder {
		if width >= r.Width || height >= r.Height {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		out = append(out, ladder[len(ladder)-1])
	}
	return out
}
