package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-taskist/internal/config"
	"github.com/teslashibe/go-taskist/internal/log"
	"github.com/teslashibe/go-taskist/internal/metrics"
	"github.com/teslashibe/go-taskist/internal/notify"
	"github.com/teslashibe/go-taskist/pkg/capture"
	"github.com/teslashibe/go-taskist/pkg/command"
	"github.com/teslashibe/go-taskist/pkg/store"
	"github.com/teslashibe/go-taskist/pkg/stt"
	"github.com/teslashibe/go-taskist/pkg/tts"
)

// PlaceholderTranscript stands in for the operator's words when
// nothing usable was captured or the transcription API failed. It
// flows through interpretation like any other utterance.
const PlaceholderTranscript = "Transcription failed. Please try again."

// Turn is the outcome of one complete interaction.
type Turn struct {
	// RunID uniquely identifies this turn in logs and the feed.
	RunID string `json:"run_id"`

	// Heard is the transcribed operator speech, or the placeholder.
	Heard string `json:"heard"`

	// Response is the assistant's reply text.
	Response string `json:"response"`

	// CapturedChunks is how many audio chunks the recording produced.
	CapturedChunks int `json:"captured_chunks"`

	// Spoken reports whether the response was played out loud.
	Spoken bool `json:"spoken"`

	// StartedAt is when the turn began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the total turn duration.
	Elapsed time.Duration `json:"elapsed"`
}

// Options configures an Orchestrator. Recorder, Transcriber, Speaker,
// and Store are required; the rest defaults sensibly.
type Options struct {
	Recorder    *capture.Recorder
	Transcriber stt.Transcriber
	Speaker     *tts.Speaker
	Store       *store.Store
	Config      config.Pipeline

	// Conversation receives the per-turn history. A fresh one is
	// created when nil.
	Conversation *Conversation

	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Metrics

	// Notifier is optional; nil disables desktop notifications.
	Notifier *notify.Notifier

	// OnTurn is called after each completed turn, before RunTurn
	// returns. The web feed hangs off this.
	OnTurn func(Turn)
}

// Orchestrator drives the record, transcribe, interpret, speak cycle.
type Orchestrator struct {
	recorder    *capture.Recorder
	transcriber stt.Transcriber
	speaker     *tts.Speaker
	store       *store.Store
	cfg         config.Pipeline
	conv        *Conversation
	metrics     *metrics.Metrics
	notifier    *notify.Notifier
	onTurn      func(Turn)
}

// New creates an orchestrator from options.
func New(opts Options) (*Orchestrator, error) {
	if opts.Recorder == nil {
		return nil, fmt.Errorf("pipeline: recorder is required")
	}
	if opts.Transcriber == nil {
		return nil, fmt.Errorf("pipeline: transcriber is required")
	}
	if opts.Speaker == nil {
		return nil, fmt.Errorf("pipeline: speaker is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("pipeline: store is required")
	}

	conv := opts.Conversation
	if conv == nil {
		conv = NewConversation()
	}

	return &Orchestrator{
		recorder:    opts.Recorder,
		transcriber: opts.Transcriber,
		speaker:     opts.Speaker,
		store:       opts.Store,
		cfg:         opts.Config,
		conv:        conv,
		metrics:     opts.Metrics,
		notifier:    opts.Notifier,
		onTurn:      opts.OnTurn,
	}, nil
}

// Conversation returns the shared conversation history.
func (o *Orchestrator) Conversation() *Conversation { return o.conv }

// Config returns the pipeline identity configuration.
func (o *Orchestrator) Config() config.Pipeline { return o.cfg }

// RunTurn executes one full interaction. It only fails on context
// cancellation or an unrecoverable capture error; transcription and
// playback problems degrade within the turn instead of aborting it.
func (o *Orchestrator) RunTurn(ctx context.Context) (*Turn, error) {
	runID := uuid.New().String()
	start := time.Now()
	logger := log.With("run_id", runID)

	if o.metrics != nil {
		o.metrics.RunsStarted.Inc()
	}
	o.notifier.Recording()

	heard, chunks, err := o.listen(ctx, logger)
	if err != nil {
		return nil, err
	}

	o.conv.Append(RoleUser, heard)
	o.notifier.Heard(heard)
	logger.Info("heard", "text", heard, "chunks", chunks)

	interpretStart := time.Now()
	response := command.Interpret(heard, o.cfg, o.store)
	o.observeStage(metrics.StageInterpret, time.Since(interpretStart))

	o.conv.Append(RoleAssistant, response)
	o.notifier.Response(response)
	logger.Info("responding", "text", response)

	spoken := true
	speakStart := time.Now()
	if err := o.speaker.Speak(ctx, response); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		// The response is already on screen and in the store, so a
		// playback failure only costs the audio.
		spoken = false
		o.failStage(metrics.StageSpeak)
		logger.Warn("speaking response failed", "error", err)
	}
	o.observeStage(metrics.StageSpeak, time.Since(speakStart))

	turn := Turn{
		RunID:          runID,
		Heard:          heard,
		Response:       response,
		CapturedChunks: chunks,
		Spoken:         spoken,
		StartedAt:      start,
		Elapsed:        time.Since(start),
	}

	if o.metrics != nil {
		o.metrics.RunsCompleted.Inc()
	}
	if o.onTurn != nil {
		o.onTurn(turn)
	}
	return &turn, nil
}

// listen records one utterance and transcribes it. Failures inside
// either stage produce the placeholder transcript rather than an
// error; only context cancellation propagates.
func (o *Orchestrator) listen(ctx context.Context, logger *slog.Logger) (string, int, error) {
	captureStart := time.Now()
	buf, err := o.recorder.Record(ctx)
	o.observeStage(metrics.StageCapture, time.Since(captureStart))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", 0, err
		}
		o.failStage(metrics.StageCapture)
		logger.Warn("audio capture failed", "error", err)
		return PlaceholderTranscript, 0, nil
	}

	if o.metrics != nil {
		o.metrics.ChunksCaptured.Add(float64(buf.Len()))
		o.metrics.CaptureDuration.Observe(buf.Duration().Seconds())
	}

	if buf.Empty() {
		logger.Debug("nothing captured")
		return PlaceholderTranscript, 0, nil
	}

	wav, err := buf.WAV()
	if err != nil {
		o.failStage(metrics.StageTranscribe)
		logger.Warn("encoding recording failed", "error", err)
		return PlaceholderTranscript, buf.Len(), nil
	}

	transcribeStart := time.Now()
	result, err := o.transcriber.Transcribe(ctx, wav)
	o.observeStage(metrics.StageTranscribe, time.Since(transcribeStart))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", 0, err
		}
		o.failStage(metrics.StageTranscribe)
		logger.Warn("transcription failed", "error", err)
		return PlaceholderTranscript, buf.Len(), nil
	}

	if result.Empty() {
		return PlaceholderTranscript, buf.Len(), nil
	}
	return result.Text, buf.Len(), nil
}

func (o *Orchestrator) observeStage(stage string, d time.Duration) {
	if o.metrics != nil {
		o.metrics.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

func (o *Orchestrator) failStage(stage string) {
	if o.metrics != nil {
		o.metrics.StageFailures.WithLabelValues(stage).Inc()
	}
}
