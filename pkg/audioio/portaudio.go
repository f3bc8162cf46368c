package audioio

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/teslashibe/go-taskist/internal/log"
)

// PortAudioSource captures microphone audio through PortAudio.
type PortAudioSource struct {
	cfg Config

	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	chunks  chan AudioChunk
	stop    chan struct{}
	done    chan struct{}
	running bool
	closed  bool
}

var _ Source = (*PortAudioSource)(nil)

// NewPortAudioSource creates a PortAudio-backed source. PortAudio is
// initialized here and released in Close.
func NewPortAudioSource(cfg Config) (*PortAudioSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return &PortAudioSource{
		cfg:    cfg,
		buffer: make([]int16, cfg.FramesPerChunk),
	}, nil
}

func (s *PortAudioSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("audioio: source is closed")
	}
	if s.running {
		return nil
	}

	stream, err := portaudio.OpenDefaultStream(
		s.cfg.Channels, // input channels
		0,              // output channels
		float64(s.cfg.SampleRate),
		s.cfg.FramesPerChunk,
		s.buffer,
	)
	if err != nil {
		return fmt.Errorf("%w: open default stream: %v", ErrDeviceUnavailable, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("%w: start stream: %v", ErrDeviceUnavailable, err)
	}

	s.stream = stream
	s.chunks = make(chan AudioChunk, 8)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true

	go s.captureLoop(stream, s.chunks, s.stop, s.done)

	log.Debug("portaudio capture started",
		"sample_rate", s.cfg.SampleRate,
		"frames_per_chunk", s.cfg.FramesPerChunk)
	return nil
}

// captureLoop reads fixed-size chunks from the stream until stopped.
// Each Read fills exactly one chunk, so a stop between reads never
// leaves a partial chunk behind.
func (s *PortAudioSource) captureLoop(stream *portaudio.Stream, chunks chan<- AudioChunk, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer close(chunks)

	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			select {
			case <-stop:
			default:
				log.Warn("portaudio read failed", "error", err)
			}
			return
		}

		chunk := AudioChunk{
			Samples:    append([]int16(nil), s.buffer...),
			SampleRate: s.cfg.SampleRate,
		}

		select {
		case chunks <- chunk:
		case <-stop:
			return
		}
	}
}

func (s *PortAudioSource) Read(ctx context.Context) (AudioChunk, error) {
	s.mu.Lock()
	chunks := s.chunks
	s.mu.Unlock()

	if chunks == nil {
		return AudioChunk{}, fmt.Errorf("audioio: source not started")
	}

	select {
	case chunk, ok := <-chunks:
		if !ok {
			return AudioChunk{}, io.EOF
		}
		return chunk, nil
	case <-ctx.Done():
		return AudioChunk{}, ctx.Err()
	}
}

func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stop)
	stream := s.stream
	done := s.done
	s.mu.Unlock()

	// Abort unblocks a capture loop parked in stream.Read.
	if stream != nil {
		stream.Abort()
	}
	<-done

	if stream != nil {
		stream.Close()
	}

	s.mu.Lock()
	s.stream = nil
	s.mu.Unlock()

	log.Debug("portaudio capture stopped")
	return nil
}

func (s *PortAudioSource) Config() Config { return s.cfg }

func (s *PortAudioSource) Name() string { return "portaudio" }

func (s *PortAudioSource) Close() error {
	if err := s.Stop(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return portaudio.Terminate()
}

// PortAudioSink plays audio through the default output device.
type PortAudioSink struct {
	mu         sync.Mutex
	stream     *portaudio.Stream
	buffer     []int16
	sampleRate int
	frames     int
	running    bool
	closed     bool
}

var _ Sink = (*PortAudioSink)(nil)

// NewPortAudioSink creates a PortAudio-backed playback sink at the given
// sample rate.
func NewPortAudioSink(sampleRate int) (*PortAudioSink, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audioio: invalid sample rate %d", sampleRate)
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return &PortAudioSink{
		sampleRate: sampleRate,
		frames:     FramesPerChunk,
		buffer:     make([]int16, FramesPerChunk),
	}, nil
}

func (p *PortAudioSink) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("audioio: sink is closed")
	}
	if p.running {
		return nil
	}

	stream, err := portaudio.OpenDefaultStream(
		0, // input channels
		1, // output channels
		float64(p.sampleRate),
		p.frames,
		p.buffer,
	)
	if err != nil {
		return fmt.Errorf("%w: open output stream: %v", ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("%w: start output stream: %v", ErrDeviceUnavailable, err)
	}

	p.stream = stream
	p.running = true
	return nil
}

// Write plays the chunk, splitting it across the stream's fixed frame
// size. The final slice is zero-padded.
func (p *PortAudioSink) Write(ctx context.Context, chunk AudioChunk) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return fmt.Errorf("audioio: sink not started")
	}

	samples := chunk.Samples
	for len(samples) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(p.buffer, samples)
		for i := n; i < len(p.buffer); i++ {
			p.buffer[i] = 0
		}
		if err := p.stream.Write(); err != nil {
			return fmt.Errorf("audioio: write to output stream: %w", err)
		}
		samples = samples[n:]
	}
	return nil
}

func (p *PortAudioSink) Flush(ctx context.Context) error {
	// stream.Write blocks until the device accepts each buffer, so by
	// the time Write returns the audio is queued in the device.
	return ctx.Err()
}

func (p *PortAudioSink) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	p.running = false

	if p.stream != nil {
		p.stream.Stop()
		p.stream.Close()
		p.stream = nil
	}
	return nil
}

func (p *PortAudioSink) Name() string { return "portaudio" }

func (p *PortAudioSink) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return portaudio.Terminate()
}
