package audioio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MockSource is a scripted audio source for tests and headless runs.
// It emits the chunks it was loaded with, optionally pacing them in
// real time, then blocks until stopped.
type MockSource struct {
	cfg Config

	mu       sync.Mutex
	script   []AudioChunk
	next     int
	realtime bool
	started  bool
	stop     chan struct{}

	// StartErr, when set, is returned from Start. Used to simulate an
	// unavailable device.
	StartErr error
}

var _ Source = (*MockSource)(nil)

// NewMockSource creates a mock source with no scripted audio. Use
// LoadTone or LoadChunks to feed it.
func NewMockSource(cfg Config) *MockSource {
	return &MockSource{cfg: cfg}
}

// LoadChunks replaces the scripted chunks.
func (m *MockSource) LoadChunks(chunks []AudioChunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = chunks
	m.next = 0
}

// LoadTone loads n chunks of a repeating ramp waveform. Deterministic,
// so tests can assert on exact bytes.
func (m *MockSource) LoadTone(n int) {
	chunks := make([]AudioChunk, n)
	for i := range chunks {
		samples := make([]int16, m.cfg.FramesPerChunk)
		for j := range samples {
			samples[j] = int16((i*m.cfg.FramesPerChunk + j) % 4096)
		}
		chunks[i] = AudioChunk{Samples: samples, SampleRate: m.cfg.SampleRate}
	}
	m.LoadChunks(chunks)
}

// SetRealtime makes Read pace chunks at their real duration instead of
// returning immediately.
func (m *MockSource) SetRealtime(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.realtime = v
}

func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return m.StartErr
	}
	if m.started {
		return nil
	}
	m.started = true
	m.next = 0
	m.stop = make(chan struct{})
	return nil
}

func (m *MockSource) Read(ctx context.Context) (AudioChunk, error) {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return AudioChunk{}, fmt.Errorf("audioio: source not started")
	}
	stop := m.stop
	if m.next >= len(m.script) {
		m.mu.Unlock()
		// Script exhausted. Block like a silent microphone would.
		select {
		case <-stop:
			return AudioChunk{}, io.EOF
		case <-ctx.Done():
			return AudioChunk{}, ctx.Err()
		}
	}
	chunk := m.script[m.next]
	m.next++
	realtime := m.realtime
	m.mu.Unlock()

	if realtime {
		pace := time.Duration(chunk.Duration() * float64(time.Second))
		select {
		case <-time.After(pace):
		case <-stop:
			return AudioChunk{}, io.EOF
		case <-ctx.Done():
			return AudioChunk{}, ctx.Err()
		}
	}

	select {
	case <-stop:
		return AudioChunk{}, io.EOF
	default:
	}
	return chunk, nil
}

func (m *MockSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false
	close(m.stop)
	return nil
}

func (m *MockSource) Config() Config { return m.cfg }

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Close() error { return m.Stop() }

// MockSink records everything written to it for assertions.
type MockSink struct {
	mu      sync.Mutex
	started bool
	written []AudioChunk
	flushes int

	// WriteErr, when set, is returned from every Write.
	WriteErr error
}

var _ Sink = (*MockSink)(nil)

// NewMockSink creates an empty recording sink.
func NewMockSink() *MockSink { return &MockSink{} }

func (m *MockSink) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return nil
}

func (m *MockSink) Write(ctx context.Context, chunk AudioChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return fmt.Errorf("audioio: sink not started")
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.written = append(m.written, chunk)
	return nil
}

func (m *MockSink) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return nil
}

func (m *MockSink) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	return nil
}

func (m *MockSink) Name() string { return "mock" }

func (m *MockSink) Close() error { return m.Stop() }

// Written returns a copy of all chunks written so far.
func (m *MockSink) Written() []AudioChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AudioChunk(nil), m.written...)
}

// Flushes returns how many times Flush was called.
func (m *MockSink) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}
