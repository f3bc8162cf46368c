package tts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/teslashibe/go-taskist/pkg/audioio"
	"github.com/teslashibe/go-taskist/pkg/tts"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text unchanged", "Added task 'buy milk'.", "Added task 'buy milk'."},
		{"bold markers stripped", "**Tasks** in personal:", "Tasks in personal:"},
		{"multiple markers", "**a** and **b**", "a and b"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tts.SanitizeText(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSpeakerPlaysSynthesizedAudio(t *testing.T) {
	provider := tts.NewMock()
	sink := audioio.NewMockSink()
	speaker := tts.NewSpeaker(provider, sink)

	if err := speaker.Speak(context.Background(), "**Hello** there"); err != nil {
		t.Fatalf("speak failed: %v", err)
	}

	texts := provider.SynthesizedTexts()
	if len(texts) != 1 {
		t.Fatalf("expected 1 synthesis, got %d", len(texts))
	}
	if texts[0] != "Hello there" {
		t.Errorf("expected sanitized text, got %q", texts[0])
	}

	written := sink.Written()
	if len(written) != 1 {
		t.Fatalf("expected 1 chunk written, got %d", len(written))
	}
	if written[0].SampleRate != 22050 {
		t.Errorf("expected 22050 sample rate, got %d", written[0].SampleRate)
	}
	if sink.Flushes() != 1 {
		t.Errorf("expected 1 flush, got %d", sink.Flushes())
	}
}

func TestSpeakerSkipsEmptyText(t *testing.T) {
	provider := tts.NewMock()
	sink := audioio.NewMockSink()
	speaker := tts.NewSpeaker(provider, sink)

	if err := speaker.Speak(context.Background(), "****"); err != nil {
		t.Fatalf("speak failed: %v", err)
	}
	if len(provider.Calls()) != 0 {
		t.Error("expected no synthesis for empty text")
	}
	if len(sink.Written()) != 0 {
		t.Error("expected nothing written to sink")
	}
}

func TestSpeakerPropagatesSynthesisError(t *testing.T) {
	wantErr := errors.New("synthesis exploded")
	provider := tts.NewMock()
	provider.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
		return nil, wantErr
	}

	speaker := tts.NewSpeaker(provider, audioio.NewMockSink())
	err := speaker.Speak(context.Background(), "hi")
	if !errors.Is(err, wantErr) {
		t.Errorf("expected synthesis error, got %v", err)
	}
}
