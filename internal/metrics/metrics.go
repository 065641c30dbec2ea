package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hls_encoder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hls_encoder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hls_encoder_upload_bytes_total",
			Help: "Total bytes of accepted source uploads",
		},
	)
)

// Transcode metrics
var (
	TranscodeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hls_encoder_transcode_runs_total",
			Help: "Transcode runs by terminal status",
		},
		[]string{"status"},
	)

	TranscodeRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hls_encoder_transcode_run_duration_seconds",
			Help:    "Wall time of a full transcode run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		},
	)

	TranscodeRunsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hls_encoder_transcode_runs_in_flight",
			Help: "Number of transcode runs currently executing",
		},
	)

	EncodeAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hls_encoder_encode_attempts_total",
			Help: "Encode invocations by resolution, audio mode and result",
		},
		[]string{"resolution", "audio_mode", "result"},
	)

	EncodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hls_encoder_encode_duration_seconds",
			Help:    "Duration of single encode invocations",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"resolution"},
	)

	RenditionsExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hls_encoder_renditions_exhausted_total",
			Help: "Resolutions for which every audio strategy failed",
		},
		[]string{"resolution"},
	)

	StageTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hls_encoder_stage_transitions_total",
			Help: "Orchestrator stage transitions",
		},
		[]string{"stage"},
	)
)

// Worker metrics
var (
	JobsQueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hls_encoder_jobs_queued_total",
			Help: "Jobs pushed to the Redis queue",
		},
	)

	WorkerCPUDeferralsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hls_encoder_worker_cpu_deferrals_total",
			Help: "Times a worker waited because host CPU was above the limit",
		},
	)
)
