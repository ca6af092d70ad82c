package config

import (
	"testing"
	"time"

	"llamasearch-client/internal/constant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8010", cfg.App.BaseURL)
	assert.Equal(t, int64(constant.MaxAttachmentBytes), cfg.Chat.MaxAttachmentBytes)
	assert.Equal(t, constant.ReconnectMaxAttempts, cfg.Chat.ReconnectAttempts)
	assert.Equal(t, constant.ReconnectBaseDelay, cfg.Chat.ReconnectBaseDelay)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LLAMASEARCH_API_URL", "https://search.example.com")
	t.Setenv("WS_RECONNECT_BASE_DELAY", "250ms")
	t.Setenv("WS_RECONNECT_MAX_ATTEMPTS", "3")
	t.Setenv("CHAT_MAX_FILES", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://search.example.com", cfg.App.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Chat.ReconnectBaseDelay)
	assert.Equal(t, 3, cfg.Chat.ReconnectAttempts)
	assert.Equal(t, 2, cfg.Chat.MaxAttachments)
}

func TestLoadRejectsBadURL(t *testing.T) {
	t.Setenv("LLAMASEARCH_API_URL", "not a url")

	_, err := Load()
	assert.Error(t, err)
}
