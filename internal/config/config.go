package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"llamasearch-client/internal/constant"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App  AppConfig
	Chat ChatConfig
}

type AppConfig struct {
	// BaseURL is the backend's HTTP base address. The duplex endpoint is
	// derived from it by rewriting the scheme to ws/wss and appending /ws.
	BaseURL     string `validate:"required,url"`
	Environment string
	LogFilePath string
}

type ChatConfig struct {
	MaxAttachmentBytes int64         `validate:"gt=0"`
	MaxAttachments     int           `validate:"gt=0"`
	ReconnectBaseDelay time.Duration `validate:"gt=0"`
	ReconnectAttempts  int           `validate:"gte=0"`
	HandshakeTimeout   time.Duration `validate:"gt=0"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	cfg := &Config{
		App: AppConfig{
			BaseURL:     getEnv("LLAMASEARCH_API_URL", "http://localhost:8010"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "chat.log"),
		},
		Chat: ChatConfig{
			MaxAttachmentBytes: getEnvAsInt64("CHAT_MAX_FILE_SIZE", constant.MaxAttachmentBytes),
			MaxAttachments:     getEnvAsInt("CHAT_MAX_FILES", constant.MaxAttachments),
			ReconnectBaseDelay: getEnvAsDuration("WS_RECONNECT_BASE_DELAY", constant.ReconnectBaseDelay),
			ReconnectAttempts:  getEnvAsInt("WS_RECONNECT_MAX_ATTEMPTS", constant.ReconnectMaxAttempts),
			HandshakeTimeout:   getEnvAsDuration("WS_HANDSHAKE_TIMEOUT", constant.HandshakeTimeout),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
