package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveDefaults(t *testing.T) {
	cfg := Resolve(Overrides{})

	assert.Equal(t, DefaultUserID, cfg.UserID)
	assert.Equal(t, DefaultCategory, cfg.Category)
	assert.Equal(t, DefaultRole, cfg.Role)
}

func TestResolveOverridesBeatDefaults(t *testing.T) {
	cfg := Resolve(Overrides{
		UserID:   "ss",
		Category: "personal",
	})

	assert.Equal(t, "ss", cfg.UserID)
	assert.Equal(t, "personal", cfg.Category)
	assert.Equal(t, DefaultRole, cfg.Role, "unset override falls back to default")
}

func TestResolveEnvBeatsOverrides(t *testing.T) {
	t.Setenv("USER_ID", "env-user")
	t.Setenv("TODO_CATEGORY", "env-cat")

	cfg := Resolve(Overrides{
		UserID:   "override-user",
		Category: "override-cat",
	})

	assert.Equal(t, "env-user", cfg.UserID)
	assert.Equal(t, "env-cat", cfg.Category)
}

func TestResolveEmptyEnvIsIgnored(t *testing.T) {
	t.Setenv("USER_ID", "")

	cfg := Resolve(Overrides{UserID: "override-user"})
	assert.Equal(t, "override-user", cfg.UserID)
}

func TestResolveRoleEnv(t *testing.T) {
	t.Setenv("TASKIST_ROLE", "You are terse.")

	cfg := Resolve(Overrides{Role: "ignored"})
	assert.Equal(t, "You are terse.", cfg.Role)
}

func TestLoadAppDefaults(t *testing.T) {
	app := LoadApp()

	assert.Equal(t, ":8090", app.ListenAddr)
	assert.Equal(t, "info", app.LogLevel)
	assert.Equal(t, "auto", app.AudioBackend)
	assert.Equal(t, 30*time.Second, app.HTTPTimeout)
	assert.False(t, app.WebEnabled)
	assert.False(t, app.NotifyEnabled)
}

func TestLoadAppReadsCredentials(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gk-test")
	t.Setenv("ELEVENLABS_API_KEY", "el-test")
	t.Setenv("ELEVENLABS_VOICE_ID", "voice-123")

	app := LoadApp()

	assert.Equal(t, "gk-test", app.GroqAPIKey)
	assert.Equal(t, "el-test", app.ElevenLabsAPIKey)
	assert.Equal(t, "voice-123", app.ElevenLabsVoiceID)
}

func TestLoadAppPrefixedSettings(t *testing.T) {
	t.Setenv("TASKIST_LISTEN", ":9999")
	t.Setenv("TASKIST_LOG_LEVEL", "debug")
	t.Setenv("TASKIST_WEB", "true")

	app := LoadApp()

	assert.Equal(t, ":9999", app.ListenAddr)
	assert.Equal(t, "debug", app.LogLevel)
	assert.True(t, app.WebEnabled)
}
