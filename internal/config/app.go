package config

import (
	"time"

	"github.com/spf13/viper"
)

// App holds process-wide settings: adapter credentials, the dashboard
// listen address, and ambient knobs. Resolved once at startup from the
// environment with fixed defaults; flags may override individual fields
// after resolution.
type App struct {
	// Speech adapter credentials.
	GroqAPIKey        string
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string

	// Dashboard server.
	WebEnabled bool
	ListenAddr string

	// Ambient.
	LogLevel      string
	AudioBackend  string
	NotifyEnabled bool
	StreamTTS     bool
	HTTPTimeout   time.Duration
}

// LoadApp resolves application settings from the environment.
func LoadApp() App {
	v := viper.New()
	v.SetEnvPrefix("taskist")
	v.AutomaticEnv()

	// Credentials keep their conventional unprefixed names.
	_ = v.BindEnv("groq_api_key", "GROQ_API_KEY")
	_ = v.BindEnv("elevenlabs_api_key", "ELEVENLABS_API_KEY")
	_ = v.BindEnv("elevenlabs_voice_id", "ELEVENLABS_VOICE_ID")

	v.SetDefault("listen", ":8090")
	v.SetDefault("log_level", "info")
	v.SetDefault("audio_backend", "auto")
	v.SetDefault("http_timeout", 30*time.Second)

	return App{
		GroqAPIKey:        v.GetString("groq_api_key"),
		ElevenLabsAPIKey:  v.GetString("elevenlabs_api_key"),
		ElevenLabsVoiceID: v.GetString("elevenlabs_voice_id"),
		WebEnabled:        v.GetBool("web"),
		ListenAddr:        v.GetString("listen"),
		LogLevel:          v.GetString("log_level"),
		AudioBackend:      v.GetString("audio_backend"),
		NotifyEnabled:     v.GetBool("notify"),
		StreamTTS:         v.GetBool("stream_tts"),
		HTTPTimeout:       v.GetDuration("http_timeout"),
	}
}
