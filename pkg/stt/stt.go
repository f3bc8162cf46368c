// Package stt provides speech-to-text transcription.
//
// The package ships a Groq-hosted Whisper backend and a mock for
// testing. All backends implement the Transcriber interface so callers
// can switch without code changes.
//
// Example usage:
//
//	client, _ := stt.NewGroq(
//	    stt.WithAPIKey(os.Getenv("GROQ_API_KEY")),
//	)
//	defer client.Close()
//
//	result, _ := client.Transcribe(ctx, wavBytes)
//	// result.Text contains the recognized speech
package stt

import (
	"context"
	"time"
)

// Transcriber converts recorded audio to text.
type Transcriber interface {
	// Transcribe sends WAV audio to the backend and returns the
	// recognized text.
	Transcribe(ctx context.Context, wav []byte) (*Result, error)

	// Health checks backend connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the transcriber.
	Close() error
}

// Result is a completed transcription.
type Result struct {
	// Text is the recognized speech, whitespace-trimmed.
	Text string

	// Model is the model that produced the transcription.
	Model string

	// AudioBytes is the size of the uploaded audio.
	AudioBytes int

	// LatencyMs is the round-trip time in milliseconds.
	LatencyMs int64

	// ReceivedAt is when the response arrived.
	ReceivedAt time.Time
}

// Empty reports whether the backend heard nothing usable.
func (r *Result) Empty() bool {
	return r == nil || r.Text == ""
}
