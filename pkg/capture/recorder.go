package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/teslashibe/go-taskist/internal/log"
	"github.com/teslashibe/go-taskist/pkg/audioio"
)

// StopTrigger blocks until the operator signals the end of speech.
type StopTrigger interface {
	Wait(ctx context.Context) error
}

// EnterTrigger stops recording when the operator presses Enter. It
// reads single bytes so a shared reader keeps its position for
// whatever prompt follows the recording.
type EnterTrigger struct {
	R io.Reader
}

func (t *EnterTrigger) Wait(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := t.R.Read(buf); err != nil {
				done <- err
				return
			}
			if buf[0] == '\n' {
				done <- nil
				return
			}
		}
	}()

	select {
	case err := <-done:
		if err != nil && err != io.EOF {
			return fmt.Errorf("read stop signal: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ChannelTrigger stops recording when its channel is closed. Tests use
// it to stop at a deterministic point.
type ChannelTrigger struct {
	C <-chan struct{}
}

func (t *ChannelTrigger) Wait(ctx context.Context) error {
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recorder captures one utterance at a time from a source.
type Recorder struct {
	source  audioio.Source
	trigger StopTrigger
}

// NewRecorder creates a recorder over the given source and stop
// trigger.
func NewRecorder(source audioio.Source, trigger StopTrigger) *Recorder {
	return &Recorder{source: source, trigger: trigger}
}

// Record captures audio until the stop trigger fires, then returns the
// sealed buffer. A producer goroutine reads fixed-size chunks from the
// source while a stop-waiter goroutine blocks on the trigger; the
// waiter closes the stop channel and stops the source, and both
// goroutines are joined before Record returns. A chunk in flight when
// the stop lands is dropped with the source's partial tail.
func (r *Recorder) Record(ctx context.Context) (*Buffer, error) {
	if err := r.source.Start(ctx); err != nil {
		if errors.Is(err, audioio.ErrDeviceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("start audio source: %w", err)
	}

	buf := &Buffer{
		sampleRate: r.source.Config().SampleRate,
		startedAt:  time.Now(),
	}

	stop := make(chan struct{})
	readCtx, cancelRead := context.WithCancel(ctx)
	defer cancelRead()

	var wg sync.WaitGroup
	var readErr error

	// Producer: pull chunks until the source reports EOF.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			chunk, err := r.source.Read(readCtx)
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
					readErr = err
				}
				return
			}
			select {
			case <-stop:
				// The stop landed while this chunk was in flight.
				// It is a partial tail from the operator's point of
				// view, so drop it.
				return
			default:
			}
			buf.chunks = append(buf.chunks, chunk)
		}
	}()

	// Stop-waiter: block on the trigger, then shut the source down.
	// Stopping the source drains the producer via EOF.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := r.trigger.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("stop trigger failed", "error", err)
		}
		close(stop)
		if err := r.source.Stop(); err != nil {
			log.Warn("stopping audio source failed", "error", err)
		}
		cancelRead()
	}()

	wg.Wait()
	buf.endedAt = time.Now()

	if readErr != nil {
		return nil, fmt.Errorf("read audio: %w", readErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Debug("recording complete",
		"chunks", buf.Len(),
		"duration", buf.Duration(),
		"sample_rate", buf.SampleRate())
	return buf, nil
}
