package tts

import (
	"context"
	"fmt"
	"strings"

	"github.com/teslashibe/go-taskist/internal/log"
	"github.com/teslashibe/go-taskist/pkg/audioio"
)

// Streamer is implemented by backends that can deliver audio chunks
// before synthesis finishes. The speaker prefers it when available.
type Streamer interface {
	Stream(ctx context.Context, text string, onAudio func(pcm []byte) error) error
}

// Speaker turns response text into played-out audio. Speak blocks
// until the sink has drained, so the caller never records its own
// voice output.
type Speaker struct {
	provider Provider
	sink     audioio.Sink
}

// NewSpeaker creates a speaker over the given backend and sink.
func NewSpeaker(provider Provider, sink audioio.Sink) *Speaker {
	return &Speaker{provider: provider, sink: sink}
}

// SanitizeText strips markdown bold markers that read as noise when
// spoken aloud.
func SanitizeText(text string) string {
	return strings.ReplaceAll(text, "**", "")
}

// Speak synthesizes and plays the text. Empty text after sanitizing is
// a no-op.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	clean := SanitizeText(text)
	if strings.TrimSpace(clean) == "" {
		return nil
	}

	if err := s.sink.Start(ctx); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	defer s.sink.Stop()

	if streamer, ok := s.provider.(Streamer); ok {
		if err := s.speakStreaming(ctx, streamer, clean); err != nil {
			return err
		}
	} else {
		if err := s.speakBuffered(ctx, clean); err != nil {
			return err
		}
	}

	return s.sink.Flush(ctx)
}

func (s *Speaker) speakBuffered(ctx context.Context, text string) error {
	result, err := s.provider.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	log.Debug("playing response",
		"chars", result.CharCount,
		"audio_bytes", len(result.Audio),
		"duration", result.Duration,
	)

	var chunk audioio.AudioChunk
	chunk.FromBytes(result.Audio, result.Format.SampleRate)
	if err := s.sink.Write(ctx, chunk); err != nil {
		return fmt.Errorf("play audio: %w", err)
	}
	return nil
}

func (s *Speaker) speakStreaming(ctx context.Context, streamer Streamer, text string) error {
	sampleRate := SampleRateFromEncoding(EncodingPCM22)
	if cfg, ok := s.provider.(interface{ OutputSampleRate() int }); ok {
		sampleRate = cfg.OutputSampleRate()
	}

	err := streamer.Stream(ctx, text, func(pcm []byte) error {
		var chunk audioio.AudioChunk
		chunk.FromBytes(pcm, sampleRate)
		return s.sink.Write(ctx, chunk)
	})
	if err != nil {
		return fmt.Errorf("stream synthesis: %w", err)
	}
	return nil
}
