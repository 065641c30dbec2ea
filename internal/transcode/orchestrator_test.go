package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/ffmpeg"
	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = 5 * time.Second
	tick    = 10 * time.Millisecond
)

type harness struct {
	root   string
	enc    *fakeEncoder
	prober *fakeProber
	thumbs *fakeThumbnailer
	store  *fakeStore
	stages *recordingStages
	pub    *fakePublisher
	orch   *Orchestrator
}

func newHarness(t *testing.T, width, height int, parallelism int) *harness {
	t.Helper()
	h := &harness{
		root:   t.TempDir(),
		enc:    &fakeEncoder{},
		prober: &fakeProber{info: &ffmpeg.MediaInfo{Duration: 42.5, Width: width, Height: height}},
		thumbs: &fakeThumbnailer{},
		store:  newFakeStore(),
		stages: &recordingStages{},
		pub:    &fakePublisher{},
	}
	log := logger.NewNop()
	h.orch = NewOrchestrator(
		NewLayout(h.root),
		h.prober,
		NewCascade(h.enc, ffmpeg.AudioStrategies, true, log),
		h.thumbs,
		h.store,
		Options{Parallelism: parallelism, ThumbnailOffset: 1, ThumbnailWidth: 640, CleanupFailed: true},
		log,
		WithStageReporter(h.stages),
		WithPublisher(h.pub),
	)
	return h
}

func (h *harness) job(id string) models.TranscodeJob {
	return models.TranscodeJob{VideoID: id, SourcePath: RawRel(id, ".mp4")}
}

func (h *harness) master(t *testing.T, id string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.root, filepath.FromSlash(MasterRel(id))))
	require.NoError(t, err)
	return string(data)
}

func TestOrchestratorFullHDPartialSuccess(t *testing.T) {
	for _, parallelism := range []int{1, 3} {
		h := newHarness(t, 1920, 1080, parallelism)
		h.enc.fail = func(res string, _ ffmpeg.AudioMode) bool {
			return res == "360p" || res == "240p"
		}

		require.NoError(t, h.orch.Run(context.Background(), h.job("vid-1")))

		result := h.store.ready["vid-1"]
		require.NotNil(t, result)
		assert.Zero(t, h.store.failed["vid-1"])
		assert.Equal(t, "hls/vid-1/index.m3u8", result.MasterPlaylistPath)
		require.Len(t, result.RenditionPaths, 5)
		for _, label := range []string{"1080p", "720p", "480p"} {
			require.NotNil(t, result.RenditionPaths[label], label)
			assert.Equal(t, "hls/vid-1/"+label+"/index.m3u8", *result.RenditionPaths[label])
		}
		assert.Nil(t, result.RenditionPaths["360p"])
		assert.Nil(t, result.RenditionPaths["240p"])
		assert.InDelta(t, 42.5, result.Duration, 0.001)
		assert.Equal(t, 1920, result.Width)
		assert.Equal(t, 1080, result.Height)
		require.NotNil(t, result.ThumbnailPath)
		assert.Equal(t, "thumbs/vid-1.jpg", *result.ThumbnailPath)

		m := h.master(t, "vid-1")
		assert.Equal(t, 3, strings.Count(m, "#EXT-X-STREAM-INF"))
		i480 := strings.Index(m, "480p/index.m3u8")
		i720 := strings.Index(m, "720p/index.m3u8")
		i1080 := strings.Index(m, "1080p/index.m3u8")
		assert.True(t, i480 < i720 && i720 < i1080, m)
		assert.NotContains(t, m, "360p")
		assert.NotContains(t, m, "240p")

		assert.NoDirExists(t, filepath.Join(h.root, "hls", "vid-1", "360p"))
		assert.Len(t, h.enc.modesFor("360p"), 5)
		assert.Equal(t, []ffmpeg.AudioMode{ffmpeg.AudioNormal}, h.enc.modesFor("1080p"))
		assert.Equal(t, 1, h.pub.called)
	}
}

func TestOrchestratorSmallSourceSingleStanza(t *testing.T) {
	h := newHarness(t, 320, 240, 1)

	require.NoError(t, h.orch.Run(context.Background(), h.job("small")))

	result := h.store.ready["small"]
	require.NotNil(t, result)
	assert.Len(t, result.RenditionPaths, 1)
	assert.NotNil(t, result.RenditionPaths["240p"])
	m := h.master(t, "small")
	assert.Equal(t, 1, strings.Count(m, "#EXT-X-STREAM-INF"))
	assert.Contains(t, m, "RESOLUTION=426x240")
}

func TestOrchestratorAllExhausted(t *testing.T) {
	h := newHarness(t, 1280, 720, 2)
	h.enc.fail = func(string, ffmpeg.AudioMode) bool { return true }

	err := h.orch.Run(context.Background(), h.job("bad"))
	require.ErrorIs(t, err, ErrAllRenditionsFailed)
	assert.Equal(t, 1, h.store.failed["bad"])
	assert.Nil(t, h.store.ready["bad"])
	assert.NoFileExists(t, filepath.Join(h.root, "hls", "bad", "index.m3u8"))
	assert.NoDirExists(t, filepath.Join(h.root, "hls", "bad"))
	assert.Zero(t, h.pub.called)
	assert.Equal(t, models.StageError, h.stages.stages[len(h.stages.stages)-1])
}

func TestOrchestratorProbeFailure(t *testing.T) {
	h := newHarness(t, 0, 0, 1)
	h.prober.err = &ffmpeg.ProbeError{Path: "x", Err: errors.New("exit status 1")}

	err := h.orch.Run(context.Background(), h.job("probe"))
	var pe *ffmpeg.ProbeError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, h.store.failed["probe"])
	assert.Empty(t, h.enc.calls)
}

func TestOrchestratorAudioOnlySourceGetsLowestRung(t *testing.T) {
	h := newHarness(t, 0, 0, 1)

	require.NoError(t, h.orch.Run(context.Background(), h.job("audio")))
	result := h.store.ready["audio"]
	require.NotNil(t, result)
	assert.Equal(t, []string{"240p"}, keys(result.RenditionPaths))
}

func TestOrchestratorThumbnailFailureIsCosmetic(t *testing.T) {
	h := newHarness(t, 640, 360, 1)
	h.thumbs.err = errors.New("no frame")

	require.NoError(t, h.orch.Run(context.Background(), h.job("nothumb")))
	result := h.store.ready["nothumb"]
	require.NotNil(t, result)
	assert.Nil(t, result.ThumbnailPath)
}

func TestOrchestratorPublishFailureIsCosmetic(t *testing.T) {
	h := newHarness(t, 640, 360, 1)
	h.pub.err = errors.New("bucket unavailable")

	require.NoError(t, h.orch.Run(context.Background(), h.job("nopub")))
	assert.NotNil(t, h.store.ready["nopub"])
}

func TestOrchestratorStages(t *testing.T) {
	h := newHarness(t, 640, 360, 1)
	require.NoError(t, h.orch.Run(context.Background(), h.job("stages")))
	assert.Equal(t, []models.TranscodeStage{
		models.StageStarted,
		models.StageProbing,
		models.StageSelecting,
		models.StageEncoding,
		models.StageFinalizing,
		models.StageReady,
	}, h.stages.stages)
}

func TestOrchestratorCancelled(t *testing.T) {
	h := newHarness(t, 1920, 1080, 1)
	h.enc.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.orch.Run(ctx, h.job("cancel")) }()

	require.Eventually(t, func() bool { return len(h.enc.modesFor("1080p")) == 1 }, timeout, tick)
	cancel()

	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, 1, h.store.failed["cancel"])
	assert.Empty(t, h.enc.modesFor("720p"))
}

type panickingProber struct{}

func (panickingProber) Probe(context.Context, string) (*ffmpeg.MediaInfo, error) {
	panic("boom")
}

func TestOrchestratorRecoversFromPanic(t *testing.T) {
	h := newHarness(t, 0, 0, 1)
	h.orch.prober = panickingProber{}

	err := h.orch.Run(context.Background(), h.job("panic"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, h.store.failed["panic"])
}

func keys(m models.RenditionPaths) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
