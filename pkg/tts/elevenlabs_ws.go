package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const elevenLabsWSBaseURL = "wss://api.elevenlabs.io/v1/text-to-speech"

// ElevenLabsWS streams synthesis over the stream-input WebSocket
// endpoint. Each Stream call opens a dedicated session: text goes up,
// base64 PCM chunks come back as they are generated, which cuts time
// to first audio compared to the HTTP backend.
type ElevenLabsWS struct {
	config  *Config
	logger  *slog.Logger
	baseURL string
	dialer  *websocket.Dialer
}

var _ Provider = (*ElevenLabsWS)(nil)

// NewElevenLabsWS creates a WebSocket-based ElevenLabs backend.
func NewElevenLabsWS(opts ...Option) (*ElevenLabsWS, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = elevenLabsWSBaseURL
	}

	return &ElevenLabsWS{
		config:  cfg,
		logger:  cfg.Logger.With("component", "tts.elevenlabs_ws"),
		baseURL: baseURL,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}, nil
}

// wsInbound is one server message on a stream-input session.
type wsInbound struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Stream synthesizes text and delivers PCM chunks to onAudio as they
// arrive. It returns once the session reports the final chunk.
func (e *ElevenLabsWS) Stream(ctx context.Context, text string, onAudio func(pcm []byte) error) error {
	if text == "" {
		return WrapError(providerElevenLabs, ErrEmptyText)
	}

	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s&output_format=%s",
		e.baseURL, e.config.VoiceID, e.config.ModelID, e.config.OutputFormat)

	headers := http.Header{}
	headers.Set("xi-api-key", e.config.APIKey)

	conn, resp, err := e.dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return WrapError(providerElevenLabs,
				fmt.Errorf("websocket dial (status %d): %w", resp.StatusCode, err))
		}
		return WrapError(providerElevenLabs, fmt.Errorf("websocket dial: %w", err))
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	// Begin-of-stream carries the voice settings. The leading space is
	// how the protocol initializes a session.
	bos := map[string]interface{}{
		"text": " ",
		"voice_settings": map[string]interface{}{
			"stability":         e.config.VoiceSettings.Stability,
			"similarity_boost":  e.config.VoiceSettings.SimilarityBoost,
			"style":             e.config.VoiceSettings.Style,
			"use_speaker_boost": e.config.VoiceSettings.SpeakerBoost,
		},
	}
	if err := conn.WriteJSON(bos); err != nil {
		return WrapError(providerElevenLabs, fmt.Errorf("send BOS: %w", err))
	}

	if err := conn.WriteJSON(map[string]interface{}{
		"text":                   text + " ",
		"try_trigger_generation": true,
	}); err != nil {
		return WrapError(providerElevenLabs, fmt.Errorf("send text: %w", err))
	}

	// Empty text is the end-of-stream marker.
	if err := conn.WriteJSON(map[string]interface{}{"text": ""}); err != nil {
		return WrapError(providerElevenLabs, fmt.Errorf("send EOS: %w", err))
	}

	start := time.Now()
	var chunks, bytes int

	for {
		var msg wsInbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			return WrapError(providerElevenLabs, fmt.Errorf("read stream: %w", err))
		}

		if msg.Error != "" {
			return &APIError{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("%s: %s", msg.Error, msg.Message),
				Provider:   providerElevenLabs,
			}
		}

		if msg.Audio != "" {
			pcm, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				return WrapError(providerElevenLabs, fmt.Errorf("decode audio chunk: %w", err))
			}
			chunks++
			bytes += len(pcm)
			if err := onAudio(pcm); err != nil {
				return err
			}
		}

		if msg.IsFinal {
			break
		}
	}

	e.logger.Debug("stream complete",
		"chars", len(text),
		"chunks", chunks,
		"bytes", bytes,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Synthesize collects a full streaming session into one buffer, so the
// WebSocket backend can stand in anywhere a Provider is expected.
func (e *ElevenLabsWS) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	var audio []byte
	err := e.Stream(ctx, text, func(pcm []byte) error {
		audio = append(audio, pcm...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sampleRate := SampleRateFromEncoding(e.config.OutputFormat)
	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   e.config.OutputFormat,
			SampleRate: sampleRate,
			Channels:   1,
			BitDepth:   16,
		},
		CharCount: len(text),
		LatencyMs: time.Since(start).Milliseconds(),
		Duration:  time.Duration(float64(len(audio)/2) / float64(sampleRate) * float64(time.Second)),
	}, nil
}

// Health dials the endpoint and closes it again. A completed handshake
// means the key and voice are accepted.
func (e *ElevenLabsWS) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s",
		e.baseURL, e.config.VoiceID, e.config.ModelID)

	headers := http.Header{}
	headers.Set("xi-api-key", e.config.APIKey)

	conn, resp, err := e.dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return &APIError{
				StatusCode: resp.StatusCode,
				Message:    err.Error(),
				Provider:   providerElevenLabs,
			}
		}
		return WrapError(providerElevenLabs, err)
	}
	return conn.Close()
}

// OutputSampleRate returns the sample rate of streamed audio.
func (e *ElevenLabsWS) OutputSampleRate() int {
	return SampleRateFromEncoding(e.config.OutputFormat)
}

// Close releases resources. Sessions are per-call, so there is nothing
// to tear down.
func (e *ElevenLabsWS) Close() error { return nil }
