// Package audioio provides microphone capture and speaker playback.
//
// Two backends are supported:
//   - PortAudio - cross-platform capture/playback on real hardware
//   - Mock - CI/testing without hardware
//
// The backend is selected via configuration; "auto" picks PortAudio when
// built on a platform with audio hardware support.
package audioio

import (
	"fmt"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto selects the best available backend.
	BackendAuto Backend = "auto"
	// BackendPortAudio uses PortAudio for cross-platform audio I/O.
	BackendPortAudio Backend = "portaudio"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Capture format constants. Transcription expects exactly this format.
const (
	// SampleRate is the capture sample rate in Hz.
	SampleRate = 16000
	// Channels is the channel count (mono).
	Channels = 1
	// FramesPerChunk is the fixed number of samples read per chunk.
	FramesPerChunk = 1024
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	Backend Backend

	// SampleRate is the sample rate in Hz.
	SampleRate int

	// Channels is the number of audio channels.
	Channels int

	// FramesPerChunk is the number of samples per chunk.
	FramesPerChunk int
}

// DefaultConfig returns the capture-side defaults: 16 kHz mono in
// 1024-sample chunks.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     SampleRate,
		Channels:       Channels,
		FramesPerChunk: FramesPerChunk,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.FramesPerChunk <= 0 {
		return fmt.Errorf("frames_per_chunk must be positive, got %d", c.FramesPerChunk)
	}
	return nil
}

// ChunkBytes returns the size of one chunk in bytes (int16 samples).
func (c *Config) ChunkBytes() int {
	return c.FramesPerChunk * c.Channels * 2
}
