package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amankumarsingh77/hls-encoder/internal/config"
	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles/repository"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = 5 * time.Second
	tick    = 20 * time.Millisecond
)

type recordingRunner struct {
	mu    sync.Mutex
	jobs  []models.TranscodeJob
	errs  map[string]error
	block bool
	ran   chan string
}

func newRecordingRunner(block bool) *recordingRunner {
	return &recordingRunner{errs: make(map[string]error), block: block, ran: make(chan string, 8)}
}

func (r *recordingRunner) Run(ctx context.Context, job models.TranscodeJob) error {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()
	r.ran <- job.VideoID

	var err error
	if r.block {
		<-ctx.Done()
		err = ctx.Err()
	}
	r.mu.Lock()
	r.errs[job.VideoID] = err
	r.mu.Unlock()
	return err
}

func (r *recordingRunner) result(videoID string) (error, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err, ok := r.errs[videoID]
	return err, ok
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, videofiles.RedisRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, repository.NewVideoRedisRepo(client)
}

func testConfig() *config.Config {
	return &config.Config{
		Redis: config.RedisConfig{JobQueueKey: "test_jobs"},
		Worker: config.WorkerConfig{
			Mode:          "redis",
			WorkerCount:   1,
			MaxCPUUsage:   90,
			CheckInterval: 50 * time.Millisecond,
			CancelChannel: "test_cancel",
		},
	}
}

func alwaysAdmit() (bool, float64) { return true, 10 }

func TestWorkerRunsQueuedJob(t *testing.T) {
	mr, repo := newTestRedis(t)
	cfg := testConfig()
	runner := newRecordingRunner(false)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(cfg, runner, repo, logger.NewNop(), WithCPUGate(alwaysAdmit), WithDequeueWait(time.Second))
	require.NoError(t, w.Start(ctx))
	defer func() {
		cancel()
		w.Wait()
	}()

	d := NewRedisDispatcher(cfg, repo, logger.NewNop())
	require.NoError(t, d.Dispatch(ctx, models.TranscodeJob{VideoID: "v1", SourcePath: "raw/v1.mp4"}))
	assert.Equal(t, "started", mr.HGet("video:stage:v1", "stage"))

	select {
	case id := <-runner.ran:
		assert.Equal(t, "v1", id)
	case <-time.After(timeout):
		t.Fatal("job was not picked up")
	}
	runner.mu.Lock()
	assert.Equal(t, "raw/v1.mp4", runner.jobs[0].SourcePath)
	assert.False(t, runner.jobs[0].QueuedAt.IsZero())
	runner.mu.Unlock()
}

func TestWorkerCancelReachesRun(t *testing.T) {
	_, repo := newTestRedis(t)
	cfg := testConfig()
	runner := newRecordingRunner(true)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(cfg, runner, repo, logger.NewNop(), WithCPUGate(alwaysAdmit), WithDequeueWait(time.Second))
	require.NoError(t, w.Start(ctx))
	defer func() {
		cancel()
		w.Wait()
	}()

	d := NewRedisDispatcher(cfg, repo, logger.NewNop())
	require.NoError(t, d.Dispatch(ctx, models.TranscodeJob{VideoID: "v2", SourcePath: "raw/v2.mp4"}))
	select {
	case <-runner.ran:
	case <-time.After(timeout):
		t.Fatal("job was not picked up")
	}

	require.NoError(t, d.Cancel(ctx, "v2"))
	assert.Eventually(t, func() bool {
		err, done := runner.result("v2")
		return done && err == context.Canceled
	}, timeout, tick)
}

func TestWorkerDefersOnHighCPU(t *testing.T) {
	mr, repo := newTestRedis(t)
	cfg := testConfig()
	runner := newRecordingRunner(false)

	var checks atomic.Int32
	busy := func() (bool, float64) {
		checks.Add(1)
		return false, 99
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(cfg, runner, repo, logger.NewNop(), WithCPUGate(busy), WithDequeueWait(time.Second))
	require.NoError(t, w.Start(ctx))

	d := NewRedisDispatcher(cfg, repo, logger.NewNop())
	require.NoError(t, d.Dispatch(ctx, models.TranscodeJob{VideoID: "v3", SourcePath: "raw/v3.mp4"}))

	assert.Eventually(t, func() bool { return checks.Load() >= 3 }, timeout, tick)
	cancel()
	w.Wait()

	assert.Empty(t, runner.ran)
	items, err := mr.List(cfg.Redis.JobQueueKey)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestWorkerDropsMalformedJob(t *testing.T) {
	mr, repo := newTestRedis(t)
	cfg := testConfig()
	runner := newRecordingRunner(false)

	_, err := mr.Lpush(cfg.Redis.JobQueueKey, `{"video_id":"v4"}`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(cfg, runner, repo, logger.NewNop(), WithCPUGate(alwaysAdmit), WithDequeueWait(time.Second))
	require.NoError(t, w.Start(ctx))

	assert.Eventually(t, func() bool {
		items, _ := mr.List(cfg.Redis.JobQueueKey)
		return len(items) == 0
	}, timeout, tick)
	cancel()
	w.Wait()
	assert.Empty(t, runner.ran)
}

func TestStageReporter(t *testing.T) {
	mr, repo := newTestRedis(t)
	r := NewStageReporter(repo, logger.NewNop())

	r.ReportStage(context.Background(), "v5", models.StageEncoding)
	assert.Equal(t, "encoding", mr.HGet("video:stage:v5", "stage"))
	assert.Positive(t, mr.TTL("video:stage:v5"))
}
