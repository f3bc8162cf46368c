package audioio

import (
	"context"
	"io"
)

// Sink plays audio to speakers or another output device.
type Sink interface {
	// Start opens the output device.
	Start(ctx context.Context) error

	// Write plays a chunk, blocking until the device has accepted it.
	Write(ctx context.Context, chunk AudioChunk) error

	// Flush blocks until all written audio has been played out.
	Flush(ctx context.Context) error

	// Stop halts playback. It is safe to call Stop multiple times.
	Stop() error

	// Name returns the backend name.
	Name() string

	// Close releases all resources.
	io.Closer
}
