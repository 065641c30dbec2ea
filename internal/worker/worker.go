package worker

import (
	"context"
	"sync"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/config"
	"github.com/amankumarsingh77/hls-encoder/internal/metrics"
	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/internal/transcode"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
	"github.com/amankumarsingh77/hls-encoder/pkg/utils"
)

// Worker pops transcode jobs off the Redis queue and runs them. Cancel
// requests published by the API reach in-flight runs through the registry.
type Worker struct {
	cfg         *config.Config
	runner      transcode.Runner
	redisRepo   videofiles.RedisRepository
	registry    *transcode.Registry
	cpuGate     CPUGate
	dequeueWait time.Duration
	logger      logger.Logger
	wg          sync.WaitGroup
}

func NewWorker(cfg *config.Config, runner transcode.Runner, redisRepo videofiles.RedisRepository, logger logger.Logger, opts ...Option) *Worker {
	w := &Worker{
		cfg:         cfg,
		runner:      runner,
		redisRepo:   redisRepo,
		registry:    transcode.NewRegistry(),
		cpuGate:     HostCPUGate(cfg.Worker.MaxCPUUsage),
		dequeueWait: DefaultDequeueWait,
		logger:      logger,
	}
	for _, fn := range opts {
		fn(w)
	}
	return w
}

// Start launches the cancel listener and WorkerCount consumers. They all
// stop once ctx is done; in-flight runs are cancelled with it.
func (w *Worker) Start(ctx context.Context) error {
	cancels, err := w.redisRepo.SubscribeCancel(ctx, w.cfg.Worker.CancelChannel)
	if err != nil {
		return err
	}
	w.wg.Add(1)
	go w.watchCancels(cancels)

	count := w.cfg.Worker.WorkerCount
	if count < 1 {
		count = 1
	}
	w.logger.Infof("Starting %d workers on queue %s", count, w.cfg.Redis.JobQueueKey)
	for i := 0; i < count; i++ {
		w.wg.Add(1)
		go w.consume(ctx, i)
	}
	return nil
}

// Wait blocks until every goroutine started by Start has returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) watchCancels(cancels <-chan string) {
	defer w.wg.Done()
	for videoID := range cancels {
		if w.registry.Cancel(videoID) {
			w.logger.Infof("Worker - cancelled video %s", videoID)
		}
	}
}

func (w *Worker) consume(ctx context.Context, id int) {
	defer w.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		if ok, usage := w.cpuGate(); !ok {
			metrics.WorkerCPUDeferralsTotal.Inc()
			w.logger.Infof("worker %d - CPU usage is high: %.1f%%", id, usage)
			if !sleep(ctx, w.cfg.Worker.CheckInterval) {
				return
			}
			continue
		}

		job, err := w.redisRepo.DequeueJob(ctx, w.cfg.Redis.JobQueueKey, w.dequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Errorf("worker %d - dequeue: %v", id, err)
			if !sleep(ctx, w.cfg.Worker.CheckInterval) {
				return
			}
			continue
		}
		if job == nil {
			continue
		}
		w.process(ctx, id, job)
	}
}

func (w *Worker) process(ctx context.Context, id int, job *models.TranscodeJob) {
	if err := utils.ValidateStruct(ctx, job); err != nil {
		w.logger.Warnf("worker %d - dropping malformed job: %v", id, err)
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	forget := w.registry.Register(job.VideoID, cancel)
	defer forget()

	w.logger.Infof("worker %d - processing video %s (attempt %d)", id, job.VideoID, job.Attempt)
	if err := w.runner.Run(runCtx, *job); err != nil {
		w.logger.Warnf("worker %d - video %s failed: %v", id, job.VideoID, err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Second
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
