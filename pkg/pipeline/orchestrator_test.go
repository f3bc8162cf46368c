package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-taskist/internal/config"
	"github.com/teslashibe/go-taskist/pkg/audioio"
	"github.com/teslashibe/go-taskist/pkg/capture"
	"github.com/teslashibe/go-taskist/pkg/pipeline"
	"github.com/teslashibe/go-taskist/pkg/store"
	"github.com/teslashibe/go-taskist/pkg/stt"
	"github.com/teslashibe/go-taskist/pkg/tts"
)

type fixture struct {
	source      *audioio.MockSource
	transcriber *stt.Mock
	provider    *tts.Mock
	sink        *audioio.MockSink
	store       *store.Store
	turns       []pipeline.Turn
	orch        *pipeline.Orchestrator
}

// newFixture builds an orchestrator whose recorder captures a few
// scripted chunks and stops on its own shortly after.
func newFixture(t *testing.T, transcript string) *fixture {
	t.Helper()

	cfg := audioio.DefaultConfig()
	cfg.Backend = audioio.BackendMock
	source := audioio.NewMockSource(cfg)
	source.LoadTone(3)

	stopCh := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(stopCh)
	}()

	f := &fixture{
		source:      source,
		transcriber: stt.NewMock(transcript),
		provider:    tts.NewMock(),
		sink:        audioio.NewMockSink(),
		store:       store.New(),
	}

	orch, err := pipeline.New(pipeline.Options{
		Recorder:    capture.NewRecorder(source, &capture.ChannelTrigger{C: stopCh}),
		Transcriber: f.transcriber,
		Speaker:     tts.NewSpeaker(f.provider, f.sink),
		Store:       f.store,
		Config: config.Pipeline{
			UserID:   "ss",
			Category: "personal",
			Role:     config.DefaultRole,
		},
		OnTurn: func(turn pipeline.Turn) {
			f.turns = append(f.turns, turn)
		},
	})
	if err != nil {
		t.Fatalf("pipeline.New failed: %v", err)
	}
	f.orch = orch
	return f
}

func TestRunTurnAddCommand(t *testing.T) {
	f := newFixture(t, "Add buy milk")

	turn, err := f.orch.RunTurn(context.Background())
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	want := "Added task 'buy milk' to personal todo list for user ss."
	if turn.Response != want {
		t.Errorf("expected %q, got %q", want, turn.Response)
	}
	if turn.Heard != "Add buy milk" {
		t.Errorf("expected heard %q, got %q", "Add buy milk", turn.Heard)
	}
	if turn.CapturedChunks != 3 {
		t.Errorf("expected 3 chunks, got %d", turn.CapturedChunks)
	}
	if !turn.Spoken {
		t.Error("expected response to be spoken")
	}
	if turn.RunID == "" {
		t.Error("expected a run ID")
	}

	tasks := f.store.Tasks("ss", "personal")
	if len(tasks) != 1 || tasks[0] != "buy milk" {
		t.Errorf("expected stored task, got %v", tasks)
	}

	entries := f.orch.Conversation().Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 conversation entries, got %d", len(entries))
	}
	if entries[0].Role != pipeline.RoleUser || entries[0].Text != "Add buy milk" {
		t.Errorf("unexpected user entry: %+v", entries[0])
	}
	if entries[1].Role != pipeline.RoleAssistant || entries[1].Text != want {
		t.Errorf("unexpected assistant entry: %+v", entries[1])
	}

	if len(f.turns) != 1 {
		t.Errorf("expected OnTurn once, got %d", len(f.turns))
	}
	if len(f.provider.SynthesizedTexts()) != 1 {
		t.Errorf("expected 1 synthesis, got %d", len(f.provider.SynthesizedTexts()))
	}
}

func TestRunTurnTranscriptionFailureUsesPlaceholder(t *testing.T) {
	f := newFixture(t, "")
	f.transcriber.TranscribeFunc = func(ctx context.Context, wav []byte) (*stt.Result, error) {
		return nil, &stt.APIError{StatusCode: 500, Message: "boom", Provider: "groq"}
	}

	turn, err := f.orch.RunTurn(context.Background())
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	if turn.Heard != pipeline.PlaceholderTranscript {
		t.Errorf("expected placeholder, got %q", turn.Heard)
	}
	want := "Unknown command: Transcription failed. Please try again. Use 'add <task>', 'list', or 'remove <task>'."
	if turn.Response != want {
		t.Errorf("expected %q, got %q", want, turn.Response)
	}
}

func TestRunTurnEmptyTranscriptUsesPlaceholder(t *testing.T) {
	f := newFixture(t, "   ")
	f.transcriber.TranscribeFunc = func(ctx context.Context, wav []byte) (*stt.Result, error) {
		return &stt.Result{Text: ""}, nil
	}

	turn, err := f.orch.RunTurn(context.Background())
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if turn.Heard != pipeline.PlaceholderTranscript {
		t.Errorf("expected placeholder, got %q", turn.Heard)
	}
}

func TestRunTurnEmptyCaptureSkipsTranscription(t *testing.T) {
	f := newFixture(t, "never used")
	f.source.LoadChunks(nil)

	turn, err := f.orch.RunTurn(context.Background())
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	if turn.Heard != pipeline.PlaceholderTranscript {
		t.Errorf("expected placeholder, got %q", turn.Heard)
	}
	if turn.CapturedChunks != 0 {
		t.Errorf("expected 0 chunks, got %d", turn.CapturedChunks)
	}
	if len(f.transcriber.Calls()) != 0 {
		t.Error("transcriber should not be called for empty capture")
	}
}

func TestRunTurnSpeakFailureStillSucceeds(t *testing.T) {
	f := newFixture(t, "list")
	f.provider.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
		return nil, errors.New("speaker on fire")
	}

	turn, err := f.orch.RunTurn(context.Background())
	if err != nil {
		t.Fatalf("expected turn to survive speak failure, got %v", err)
	}
	if turn.Spoken {
		t.Error("expected Spoken to be false")
	}
	want := "No tasks in personal for ss."
	if turn.Response != want {
		t.Errorf("expected %q, got %q", want, turn.Response)
	}
}

func TestRunTurnContextCancelled(t *testing.T) {
	f := newFixture(t, "list")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.orch.RunTurn(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunTurnFullScenario(t *testing.T) {
	transcripts := []string{
		"Add buy milk",
		"list",
		"remove buy milk",
		"list",
	}
	wantResponses := []string{
		"Added task 'buy milk' to personal todo list for user ss.",
		"Tasks in personal for ss:\n- buy milk",
		"Removed task 'buy milk' from personal todo list for user ss.",
		"No tasks in personal for ss.",
	}

	st := store.New()
	provider := tts.NewMock()
	cfg := config.Pipeline{UserID: "ss", Category: "personal", Role: config.DefaultRole}

	for i, transcript := range transcripts {
		srcCfg := audioio.DefaultConfig()
		srcCfg.Backend = audioio.BackendMock
		source := audioio.NewMockSource(srcCfg)
		source.LoadTone(1)

		stopCh := make(chan struct{})
		go func() {
			time.Sleep(10 * time.Millisecond)
			close(stopCh)
		}()

		orch, err := pipeline.New(pipeline.Options{
			Recorder:    capture.NewRecorder(source, &capture.ChannelTrigger{C: stopCh}),
			Transcriber: stt.NewMock(transcript),
			Speaker:     tts.NewSpeaker(provider, audioio.NewMockSink()),
			Store:       st,
			Config:      cfg,
		})
		if err != nil {
			t.Fatalf("pipeline.New failed: %v", err)
		}

		turn, err := orch.RunTurn(context.Background())
		if err != nil {
			t.Fatalf("turn %d failed: %v", i, err)
		}
		if turn.Response != wantResponses[i] {
			t.Errorf("turn %d: expected %q, got %q", i, wantResponses[i], turn.Response)
		}
	}
}

func TestNewValidatesRequiredFields(t *testing.T) {
	_, err := pipeline.New(pipeline.Options{})
	if err == nil {
		t.Error("expected error for missing dependencies")
	}
}
