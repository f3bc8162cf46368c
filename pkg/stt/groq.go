package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-taskist/internal/httpc"
)

const (
	groqBaseURL  = "https://api.groq.com/openai/v1"
	providerGroq = "groq"
)

// Groq model IDs for audio transcription.
const (
	// ModelWhisperLargeV3Turbo is the fastest hosted Whisper variant.
	ModelWhisperLargeV3Turbo = "whisper-large-v3-turbo"

	// ModelWhisperLargeV3 is the highest accuracy hosted Whisper.
	ModelWhisperLargeV3 = "whisper-large-v3"
)

// Groq implements Transcriber against Groq's OpenAI-compatible audio
// transcription endpoint.
type Groq struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

var _ Transcriber = (*Groq)(nil)

// NewGroq creates a Groq-hosted Whisper transcriber.
func NewGroq(opts ...Option) (*Groq, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = groqBaseURL
	}

	return &Groq{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "stt.groq"),
		baseURL: baseURL,
	}, nil
}

// Transcribe uploads WAV audio and returns the recognized text.
func (g *Groq) Transcribe(ctx context.Context, wav []byte) (*Result, error) {
	if len(wav) == 0 {
		return nil, WrapError(providerGroq, ErrEmptyAudio)
	}

	start := time.Now()
	requestID := uuid.New().String()

	body, contentType, err := g.buildForm(wav)
	if err != nil {
		return nil, WrapError(providerGroq, fmt.Errorf("build form: %w", err))
	}

	url := fmt.Sprintf("%s/audio/transcriptions", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerGroq, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := g.doWithRetry(ctx, req, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, g.parseError(resp)
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerGroq, fmt.Errorf("read response: %w", err))
	}

	result := &Result{
		Text:       strings.TrimSpace(string(text)),
		Model:      g.config.Model,
		AudioBytes: len(wav),
		LatencyMs:  latency,
		ReceivedAt: time.Now(),
	}

	g.logger.Debug("transcription complete",
		"request_id", requestID,
		"audio_bytes", len(wav),
		"chars", len(result.Text),
		"latency_ms", latency,
		"model", g.config.Model,
	)

	return result, nil
}

// Health checks API connectivity and API key validity.
func (g *Groq) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/models", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return WrapError(providerGroq, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return WrapError(providerGroq, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return g.parseError(resp)
	}
	return nil
}

// Close releases resources held by the transcriber.
func (g *Groq) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

// Model returns the configured model ID.
func (g *Groq) Model() string {
	return g.config.Model
}

// buildForm assembles the multipart upload body. The endpoint wants
// the audio as a named file part plus model and format fields.
func (g *Groq) buildForm(wav []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(wav); err != nil {
		return nil, "", err
	}

	fields := map[string]string{
		"model":           g.config.Model,
		"response_format": "text",
	}
	if g.config.Language != "" {
		fields["language"] = g.config.Language
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// doWithRetry performs the request with retry logic.
func (g *Groq) doWithRetry(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.config.RetryDelay * time.Duration(attempt)):
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := g.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerGroq, err)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = g.parseError(resp)
			g.logger.Warn("retrying transcription request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (g *Groq) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerGroq,
	}
}
