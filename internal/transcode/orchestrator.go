package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/ffmpeg"
	"github.com/amankumarsingh77/hls-encoder/internal/metrics"
	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
	"golang.org/x/sync/errgroup"
)

var ErrAllRenditionsFailed = errors.New("transcode: no rendition could be produced")

const commitTimeout = 10 * time.Second

// RecordStore receives the single terminal update of a run.
type RecordStore interface {
	MarkReady(ctx context.Context, videoID string, result *models.VideoResult) error
	MarkFailed(ctx context.Context, videoID string) error
}

// StageReporter is told about every state change of a run. Implementations
// must not block for long; errors are theirs to log.
type StageReporter interface {
	ReportStage(ctx context.Context, videoID string, stage models.TranscodeStage)
}

// Publisher copies finished artifacts somewhere else. Failures are logged
// and never affect the run's outcome.
type Publisher interface {
	Publish(ctx context.Context, videoID string, result *models.VideoResult) error
}

type Options struct {
	Ladder          []models.ResolutionSpec
	Parallelism     int
	ThumbnailOffset float64
	ThumbnailWidth  int
	CleanupFailed   bool
}

type Option func(*Orchestrator)

func WithStageReporter(r StageReporter) Option {
	return func(o *Orchestrator) { o.stages = r }
}

func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// Orchestrator drives one video from raw upload to a terminal record.
type Orchestrator struct {
	layout    Layout
	prober    ffmpeg.Prober
	cascade   *Cascade
	thumbs    ffmpeg.Thumbnailer
	store     RecordStore
	stages    StageReporter
	publisher Publisher
	opts      Options
	logger    logger.Logger
}

func NewOrchestrator(
	layout Layout,
	prober ffmpeg.Prober,
	cascade *Cascade,
	thumbs ffmpeg.Thumbnailer,
	store RecordStore,
	opts Options,
	log logger.Logger,
	options ...Option,
) *Orchestrator {
	if len(opts.Ladder) == 0 {
		opts.Ladder = models.DefaultLadder
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = 640
	}
	o := &Orchestrator{
		layout:  layout,
		prober:  prober,
		cascade: cascade,
		thumbs:  thumbs,
		store:   store,
		opts:    opts,
		logger:  log,
	}
	for _, fn := range options {
		fn(o)
	}
	return o
}

// Run always leaves the record terminal unless the commit itself fails.
// The returned error explains an error outcome; it is informational only.
func (o *Orchestrator) Run(ctx context.Context, job models.TranscodeJob) (err error) {
	start := time.Now()
	metrics.TranscodeRunsInFlight.Inc()
	defer metrics.TranscodeRunsInFlight.Dec()
	defer func() {
		metrics.TranscodeRunDuration.Observe(time.Since(start).Seconds())
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transcode panic: %v", r)
			o.logger.Errorf("Orchestrator.Run - video %s panicked: %v", job.VideoID, r)
			o.fail(ctx, job.VideoID, err)
		}
	}()

	o.stage(ctx, job.VideoID, models.StageStarted)
	result, err := o.execute(ctx, job)
	if err != nil {
		o.fail(ctx, job.VideoID, err)
		return err
	}

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()
	if err := o.store.MarkReady(commitCtx, job.VideoID, result); err != nil {
		o.logger.Errorf("Orchestrator.Run - commit ready for %s: %v", job.VideoID, err)
		return err
	}
	o.stage(ctx, job.VideoID, models.StageReady)
	metrics.TranscodeRunsTotal.WithLabelValues(string(models.VideoStatusReady)).Inc()
	o.logger.Infof("Orchestrator.Run - video %s ready in %s", job.VideoID, time.Since(start).Round(time.Second))
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, job models.TranscodeJob) (*models.VideoResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	source := o.layout.Abs(job.SourcePath)

	o.stage(ctx, job.VideoID, models.StageProbing)
	info, err := o.prober.Probe(ctx, source)
	if err != nil {
		return nil, err
	}
	if info.Width == 0 || info.Height == 0 {
		o.logger.Warnf("Orchestrator.Run - video %s has no usable video stream dimensions", job.VideoID)
	}

	o.stage(ctx, job.VideoID, models.StageSelecting)
	selected := SelectResolutions(info.Width, info.Height, o.opts.Ladder)

	o.stage(ctx, job.VideoID, models.StageEncoding)
	outcomes := o.encodeAll(ctx, source, job.VideoID, selected)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := playlistEntries(outcomes)
	if len(entries) == 0 {
		return nil, ErrAllRenditionsFailed
	}

	o.stage(ctx, job.VideoID, models.StageFinalizing)
	result := &models.VideoResult{
		MasterPlaylistPath: MasterRel(job.VideoID),
		RenditionPaths:     make(models.RenditionPaths, len(outcomes)),
		Duration:           info.Duration,
		Width:              info.Width,
		Height:             info.Height,
	}
	for _, oc := range outcomes {
		if oc.Succeeded {
			p := oc.PlaylistPath
			result.RenditionPaths[oc.Resolution.Label] = &p
		} else {
			result.RenditionPaths[oc.Resolution.Label] = nil
		}
	}

	thumbRel := ThumbnailRel(job.VideoID)
	if err := o.thumbs.Thumbnail(ctx, ffmpeg.ThumbnailRequest{
		Source: source,
		Output: o.layout.Abs(thumbRel),
		Offset: ffmpeg.ThumbnailOffset(info.Duration, o.opts.ThumbnailOffset),
		Width:  o.opts.ThumbnailWidth,
	}); err != nil {
		o.logger.Warnf("Orchestrator.Run - thumbnail for %s: %v", job.VideoID, err)
	} else {
		result.ThumbnailPath = &thumbRel
	}

	if err := WriteMasterPlaylist(o.layout.Abs(result.MasterPlaylistPath), entries); err != nil {
		return nil, err
	}

	if o.publisher != nil {
		if err := o.publisher.Publish(ctx, job.VideoID, result); err != nil {
			o.logger.Warnf("Orchestrator.Run - publish %s: %v", job.VideoID, err)
		}
	}
	return result, nil
}

// encodeAll runs the cascade for every selected resolution and waits for
// all of them. Outcomes keep the selection order.
func (o *Orchestrator) encodeAll(ctx context.Context, source, videoID string, selected []models.ResolutionSpec) []models.RenditionOutcome {
	outcomes := make([]models.RenditionOutcome, len(selected))
	var g errgroup.Group
	g.SetLimit(o.opts.Parallelism)
	for i, res := range selected {
		i, res := i, res
		g.Go(func() error {
			outcomes[i] = o.encodeOne(ctx, source, videoID, res)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (o *Orchestrator) encodeOne(ctx context.Context, source, videoID string, res models.ResolutionSpec) (oc models.RenditionOutcome) {
	oc = models.RenditionOutcome{Resolution: res, Bandwidth: res.Bandwidth()}
	defer func() {
		if r := recover(); r != nil {
			oc.Succeeded = false
			oc.Err = fmt.Errorf("encode %s panicked: %v", res.Label, r)
			o.logger.Errorf("Orchestrator.encodeOne - %v", oc.Err)
		}
	}()
	mode, err := o.cascade.Run(ctx, source, res, o.layout.Abs(RenditionDirRel(videoID, res.Label)))
	if err != nil {
		oc.Err = err
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			o.logger.Errorf("Orchestrator.encodeOne - video %s: %v", videoID, err)
		}
		return oc
	}
	oc.Succeeded = true
	oc.AudioMode = string(mode)
	oc.PlaylistPath = RenditionRel(videoID, res.Label)
	return oc
}

func (o *Orchestrator) fail(ctx context.Context, videoID string, cause error) {
	o.logger.Errorf("Orchestrator.Run - video %s failed: %v", videoID, cause)
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()
	if err := o.store.MarkFailed(commitCtx, videoID); err != nil {
		o.logger.Errorf("Orchestrator.Run - commit error for %s: %v", videoID, err)
	}
	if o.opts.CleanupFailed {
		for _, rel := range []string{HLSRel(videoID), ThumbnailRel(videoID)} {
			if err := os.RemoveAll(o.layout.Abs(rel)); err != nil {
				o.logger.Warnf("Orchestrator.Run - remove %s: %v", rel, err)
			}
		}
	}
	o.stage(ctx, videoID, models.StageError)
	metrics.TranscodeRunsTotal.WithLabelValues(string(models.VideoStatusError)).Inc()
}

func (o *Orchestrator) stage(ctx context.Context, videoID string, stage models.TranscodeStage) {
	metrics.StageTransitionsTotal.WithLabelValues(string(stage)).Inc()
	o.logger.Debugf("Orchestrator - video %s entered %s", videoID, stage)
	if o.stages != nil {
		o.stages.ReportStage(context.WithoutCancel(ctx), videoID, stage)
	}
}
