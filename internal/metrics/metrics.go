// Package metrics exposes Prometheus instrumentation for the voice pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for go-taskist.
type Metrics struct {
	// Pipeline run metrics
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	StageDuration *prometheus.HistogramVec
	StageFailures *prometheus.CounterVec

	// Capture metrics
	ChunksCaptured  prometheus.Counter
	CaptureDuration prometheus.Histogram

	// Store metrics
	TasksAdded   prometheus.Counter
	TasksRemoved prometheus.Counter
}

// New creates and registers all metrics on the given registerer.
// Pass prometheus.DefaultRegisterer for normal operation or a fresh
// registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskist_pipeline_runs_started_total",
			Help: "Total number of pipeline runs started",
		}),
		RunsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskist_pipeline_runs_completed_total",
			Help: "Total number of pipeline runs completed",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskist_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskist_stage_failures_total",
			Help: "Total number of absorbed stage failures",
		}, []string{"stage"}),
		ChunksCaptured: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskist_audio_chunks_captured_total",
			Help: "Total number of audio chunks captured from the microphone",
		}),
		CaptureDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskist_capture_duration_seconds",
			Help:    "Duration of each capture session",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
		TasksAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskist_tasks_added_total",
			Help: "Total number of tasks added across all users",
		}),
		TasksRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskist_tasks_removed_total",
			Help: "Total number of tasks removed across all users",
		}),
	}
}

// Pipeline stage label values.
const (
	StageCapture    = "capture"
	StageTranscribe = "transcribe"
	StageInterpret  = "interpret"
	StageSpeak      = "speak"
)
