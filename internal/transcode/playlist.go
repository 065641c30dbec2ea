package transcode

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/google/renameio/v2"
)

var ErrNoRenditions = errors.New("transcode: no renditions to list")

type PlaylistEntry struct {
	Resolution models.ResolutionSpec
	Bandwidth  int
}

// BuildMasterPlaylist renders the variant list ordered by ascending
// bandwidth. Entries with equal bandwidth keep their input order.
func BuildMasterPlaylist(entries []PlaylistEntry) []byte {
	sorted := make([]PlaylistEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Bandwidth < sorted[j].Bandwidth
	})

	var b bytes.Buffer
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n")
	for _, e := range sorted {
		fmt.Fprintf(&b, "\n#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d\n%s/index.m3u8\n",
			e.Bandwidth, e.Resolution.Width, e.Resolution.Height, e.Resolution.Label)
	}
	return b.Bytes()
}

// WriteMasterPlaylist replaces path atomically so readers never see a
// half-written manifest.
func WriteMasterPlaylist(path string, entries []PlaylistEntry) error {
	if len(entries) == 0 {
		return ErrNoRenditions
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create playlist dir: %w", err)
	}
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending playlist: %w", err)
	}
	defer func() { _ = pf.Cleanup() }()

	if _, err := pf.Write(BuildMasterPlaylist(entries)); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("commit playlist: %w", err)
	}
	return nil
}

func playlistEntries(outcomes []models.RenditionOutcome) []PlaylistEntry {
	var out []PlaylistEntry
	for _, o := range outcomes {
		if o.Succeeded {
			out = append(out, PlaylistEntry{Resolution: o.Resolution, Bandwidth: o.Bandwidth})
		}
	}
	return out
}
