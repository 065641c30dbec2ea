package transcode

import (
	"context"
	"errors"
	"sync"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
)

var ErrDispatcherClosed = errors.New("transcode: dispatcher is shut down")

// Dispatcher starts transcode runs without waiting for them.
type Dispatcher interface {
	Dispatch(ctx context.Context, job models.TranscodeJob) error
	Cancel(ctx context.Context, videoID string) error
}

type Runner interface {
	Run(ctx context.Context, job models.TranscodeJob) error
}

// LocalDispatcher runs jobs on goroutines inside this process, at most
// limit at a time.
type LocalDispatcher struct {
	runner   Runner
	registry *Registry
	sem      chan struct{}
	logger   logger.Logger

	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewLocalDispatcher(runner Runner, limit int, log logger.Logger) *LocalDispatcher {
	if limit < 1 {
		limit = 1
	}
	base, stop := context.WithCancel(context.Background())
	return &LocalDispatcher{
		runner:   runner,
		registry: NewRegistry(),
		sem:      make(chan struct{}, limit),
		logger:   log,
		base:     base,
		stop:     stop,
	}
}

// Dispatch returns immediately. The run is detached from ctx.
func (d *LocalDispatcher) Dispatch(_ context.Context, job models.TranscodeJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	runCtx, cancel := context.WithCancel(d.base)
	forget := d.registry.Register(job.VideoID, cancel)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		defer forget()

		acquired := false
		select {
		case d.sem <- struct{}{}:
			acquired = true
		case <-runCtx.Done():
		}
		if acquired {
			defer func() { <-d.sem }()
		}
		if d.base.Err() != nil {
			d.logger.Infof("LocalDispatcher - video %s left queued at shutdown", job.VideoID)
			return
		}
		if err := d.runner.Run(runCtx, job); err != nil {
			d.logger.Debugf("LocalDispatcher - video %s finished with error: %v", job.VideoID, err)
		}
	}()
	return nil
}

func (d *LocalDispatcher) Cancel(_ context.Context, videoID string) error {
	if d.registry.Cancel(videoID) {
		d.logger.Infof("LocalDispatcher - cancelled video %s", videoID)
	}
	return nil
}

// Shutdown cancels every run and waits for them to record their outcome.
func (d *LocalDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.stop()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
