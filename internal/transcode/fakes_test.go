package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/amankumarsingh77/hls-encoder/internal/ffmpeg"
	"github.com/amankumarsingh77/hls-encoder/internal/models"
)

var errEncodeFailed = errors.New("exit status 1")

type encodeCall struct {
	Resolution string
	Mode       ffmpeg.AudioMode
}

// fakeEncoder succeeds unless fail reports true for the attempt. Successful
// attempts leave a playlist and one segment behind; failed ones leave junk.
type fakeEncoder struct {
	mu    sync.Mutex
	calls []encodeCall
	fail  func(res string, mode ffmpeg.AudioMode) bool
	block chan struct{}
}

func (f *fakeEncoder) Encode(ctx context.Context, req ffmpeg.EncodeRequest) error {
	f.mu.Lock()
	f.calls = append(f.calls, encodeCall{Resolution: req.Resolution.Label, Mode: req.Strategy.Mode})
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return &ffmpeg.EncodeError{Mode: req.Strategy.Mode, Resolution: req.Resolution.Label, Err: ctx.Err()}
		}
	}
	if f.fail != nil && f.fail(req.Resolution.Label, req.Strategy.Mode) {
		_ = os.WriteFile(filepath.Join(req.OutputDir, "seg_999.ts"), []byte("junk"), 0o644)
		return &ffmpeg.EncodeError{Mode: req.Strategy.Mode, Resolution: req.Resolution.Label, Stderr: "decode error", Err: errEncodeFailed}
	}
	if err := os.WriteFile(filepath.Join(req.OutputDir, "seg_000.ts"), []byte("ts"), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(req.OutputDir, ffmpeg.PlaylistName), []byte("#EXTM3U\n"), 0o644)
}

func (f *fakeEncoder) modesFor(res string) []ffmpeg.AudioMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ffmpeg.AudioMode
	for _, c := range f.calls {
		if c.Resolution == res {
			out = append(out, c.Mode)
		}
	}
	return out
}

type fakeProber struct {
	info *ffmpeg.MediaInfo
	err  error
}

func (f *fakeProber) Probe(context.Context, string) (*ffmpeg.MediaInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

type fakeThumbnailer struct {
	err error
}

func (f *fakeThumbnailer) Thumbnail(_ context.Context, req ffmpeg.ThumbnailRequest) error {
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return err
	}
	return os.WriteFile(req.Output, []byte("jpg"), 0o644)
}

type fakeStore struct {
	mu     sync.Mutex
	ready  map[string]*models.VideoResult
	failed map[string]int
	done   chan string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ready:  make(map[string]*models.VideoResult),
		failed: make(map[string]int),
		done:   make(chan string, 16),
	}
}

func (f *fakeStore) MarkReady(_ context.Context, id string, result *models.VideoResult) error {
	f.mu.Lock()
	f.ready[id] = result
	f.mu.Unlock()
	f.done <- id
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, id string) error {
	f.mu.Lock()
	f.failed[id]++
	f.mu.Unlock()
	f.done <- id
	return nil
}

type recordingStages struct {
	mu     sync.Mutex
	stages []models.TranscodeStage
}

func (r *recordingStages) ReportStage(_ context.Context, _ string, stage models.TranscodeStage) {
	r.mu.Lock()
	r.stages = append(r.stages, stage)
	r.mu.Unlock()
}

type fakePublisher struct {
	err    error
	called int
}

func (f *fakePublisher) Publish(context.Context, string, *models.VideoResult) error {
	f.called++
	return f.err
}
