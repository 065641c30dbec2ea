package transcode

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/amankumarsingh77/hls-encoder/internal/ffmpeg"
	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCascadeStopsAtFirstSuccess(t *testing.T) {
	enc := &fakeEncoder{fail: func(_ string, mode ffmpeg.AudioMode) bool {
		return mode == ffmpeg.AudioNormal || mode == ffmpeg.AudioCopy
	}}
	c := NewCascade(enc, ffmpeg.AudioStrategies, true, logger.NewNop())
	res, _ := models.FindResolution("720p")
	dir := filepath.Join(t.TempDir(), "720p")

	mode, err := c.Run(context.Background(), "in.mp4", res, dir)
	require.NoError(t, err)
	assert.Equal(t, ffmpeg.AudioFiltered, mode)
	assert.Equal(t, []ffmpeg.AudioMode{ffmpeg.AudioNormal, ffmpeg.AudioCopy, ffmpeg.AudioFiltered}, enc.modesFor("720p"))

	assert.FileExists(t, filepath.Join(dir, ffmpeg.PlaylistName))
	assert.NoFileExists(t, filepath.Join(dir, "seg_999.ts"))
}

func TestCascadeExhausted(t *testing.T) {
	enc := &fakeEncoder{fail: func(string, ffmpeg.AudioMode) bool { return true }}
	c := NewCascade(enc, ffmpeg.AudioStrategies, true, logger.NewNop())
	res, _ := models.FindResolution("240p")
	dir := filepath.Join(t.TempDir(), "240p")

	_, err := c.Run(context.Background(), "in.mp4", res, dir)
	require.ErrorIs(t, err, ErrCascadeExhausted)
	assert.Len(t, enc.modesFor("240p"), len(ffmpeg.AudioStrategies))
	assert.NoDirExists(t, dir)
}

func TestCascadeExhaustedKeepsDirWhenCleanupDisabled(t *testing.T) {
	enc := &fakeEncoder{fail: func(string, ffmpeg.AudioMode) bool { return true }}
	c := NewCascade(enc, ffmpeg.AudioStrategies, false, logger.NewNop())
	res, _ := models.FindResolution("240p")
	dir := filepath.Join(t.TempDir(), "240p")

	_, err := c.Run(context.Background(), "in.mp4", res, dir)
	require.ErrorIs(t, err, ErrCascadeExhausted)
	assert.DirExists(t, dir)
}

func TestCascadeCancelled(t *testing.T) {
	enc := &fakeEncoder{}
	c := NewCascade(enc, ffmpeg.AudioStrategies, true, logger.NewNop())
	res, _ := models.FindResolution("480p")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Run(ctx, "in.mp4", res, filepath.Join(t.TempDir(), "480p"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, enc.modesFor("480p"))
}

func TestCascadeCancelledMidEncodeSkipsRemainingModes(t *testing.T) {
	enc := &fakeEncoder{block: make(chan struct{})}
	c := NewCascade(enc, ffmpeg.AudioStrategies, true, logger.NewNop())
	res, _ := models.FindResolution("480p")
	dir := filepath.Join(t.TempDir(), "480p")

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Run(ctx, "in.mp4", res, dir)
		errc <- err
	}()
	require.Eventually(t, func() bool { return len(enc.modesFor("480p")) == 1 }, timeout, tick)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, []ffmpeg.AudioMode{ffmpeg.AudioNormal}, enc.modesFor("480p"))
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}
