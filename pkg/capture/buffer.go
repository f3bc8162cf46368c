// Package capture records a single voice utterance from a microphone
// until the operator signals the end of speech. The recording is a
// sequence of fixed-size PCM-16 chunks wrapped into a sealed buffer
// that downstream stages consume as WAV.
package capture

import (
	"time"

	"github.com/teslashibe/go-taskist/pkg/audioio"
)

// Buffer holds one complete recording. It is sealed when Record
// returns; nothing appends to it afterwards.
type Buffer struct {
	chunks     []audioio.AudioChunk
	sampleRate int
	startedAt  time.Time
	endedAt    time.Time
}

// Chunks returns the recorded chunks in capture order.
func (b *Buffer) Chunks() []audioio.AudioChunk { return b.chunks }

// Len returns the number of recorded chunks.
func (b *Buffer) Len() int { return len(b.chunks) }

// Empty reports whether nothing was recorded.
func (b *Buffer) Empty() bool { return len(b.chunks) == 0 }

// SampleRate returns the recording sample rate.
func (b *Buffer) SampleRate() int { return b.sampleRate }

// Duration returns the total recorded audio duration.
func (b *Buffer) Duration() time.Duration {
	var samples int
	for _, c := range b.chunks {
		samples += len(c.Samples)
	}
	if b.sampleRate == 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(b.sampleRate)
}

// Samples flattens all chunks into one contiguous sample slice.
func (b *Buffer) Samples() []int16 {
	var total int
	for _, c := range b.chunks {
		total += len(c.Samples)
	}
	out := make([]int16, 0, total)
	for _, c := range b.chunks {
		out = append(out, c.Samples...)
	}
	return out
}

// WAV encodes the recording as a WAV file.
func (b *Buffer) WAV() ([]byte, error) {
	return EncodeWAV(b.Samples(), b.sampleRate)
}
