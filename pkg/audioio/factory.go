package audioio

import (
	"fmt"

	"github.com/teslashibe/go-taskist/internal/log"
)

// NewSource creates an audio source for the configured backend.
// BackendAuto resolves to PortAudio.
func NewSource(cfg Config) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend := cfg.Backend
	if backend == BackendAuto {
		backend = BackendPortAudio
	}

	log.Debug("creating audio source", "backend", backend)

	switch backend {
	case BackendPortAudio:
		return NewPortAudioSource(cfg)
	case BackendMock:
		return NewMockSource(cfg), nil
	default:
		return nil, fmt.Errorf("audioio: unknown backend %q", backend)
	}
}

// NewSink creates a playback sink for the configured backend at the
// given sample rate. Playback and capture rates differ, so the rate is
// explicit here rather than taken from Config.
func NewSink(backend Backend, sampleRate int) (Sink, error) {
	if backend == BackendAuto {
		backend = BackendPortAudio
	}

	switch backend {
	case BackendPortAudio:
		return NewPortAudioSink(sampleRate)
	case BackendMock:
		return NewMockSink(), nil
	default:
		return nil, fmt.Errorf("audioio: unknown backend %q", backend)
	}
}
