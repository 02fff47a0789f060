package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates the service configuration, loaded once at startup.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	ZAPI     ZAPIConfig
	Database DatabaseConfig
	History  HistoryConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	zapi, err := loadZAPIConfig()
	if err != nil {
		return nil, err
	}

	historyCfg, err := loadHistoryConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		ZAPI:     zapi,
		Database: DatabaseConfig{URL: strings.TrimSpace(os.Getenv("DATABASE_URL"))},
		History:  historyCfg,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the completion provider. The endpoint speaks the OpenAI
// chat-completions protocol, which is what OpenRouter exposes.
type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature *float64
	PromptPath  string
}

// completionTimeout caps one completion round trip.
const completionTimeout = 60 * time.Second

// NewChatModel creates the chat model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("completion API key is missing")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	maxTokens := c.MaxTokens

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   &maxTokens,
		Temperature: temperature,
		Timeout:     completionTimeout,
	})
}

func loadAIConfig() (AIConfig, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	if apiKey == "" {
		return AIConfig{}, fmt.Errorf("OPENROUTER_API_KEY is required")
	}

	temperature, err := parseOptionalFloatEnv("OPENROUTER_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens := 500
	if override, err := parseOptionalIntEnv("OPENROUTER_MAX_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AIConfig{}, fmt.Errorf("OPENROUTER_MAX_TOKENS must be positive, got %d", *override)
		}
		maxTokens = *override
	}

	return AIConfig{
		APIKey:      apiKey,
		Model:       getEnvOrDefault("OPENROUTER_MODEL", "google/gemini-flash-1.5"),
		BaseURL:     getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		PromptPath:  getEnvOrDefault("SYSTEM_PROMPT_PATH", "prompt/system_prompt.txt"),
	}, nil
}

// ZAPIConfig describes the outbound messaging-provider credentials.
type ZAPIConfig struct {
	BaseURL     string
	InstanceID  string
	Token       string
	ClientToken string
}

func loadZAPIConfig() (ZAPIConfig, error) {
	cfg := ZAPIConfig{
		BaseURL:     getEnvOrDefault("ZAPI_BASE_URL", "https://api.z-api.io"),
		InstanceID:  strings.TrimSpace(os.Getenv("ZAPI_INSTANCE_ID")),
		Token:       strings.TrimSpace(os.Getenv("ZAPI_TOKEN")),
		ClientToken: strings.TrimSpace(os.Getenv("ZAPI_CLIENT_TOKEN")),
	}

	for key, value := range map[string]string{
		"ZAPI_INSTANCE_ID":  cfg.InstanceID,
		"ZAPI_TOKEN":        cfg.Token,
		"ZAPI_CLIENT_TOKEN": cfg.ClientToken,
	} {
		if value == "" {
			return ZAPIConfig{}, fmt.Errorf("%s is required", key)
		}
	}

	return cfg, nil
}

// DatabaseConfig points at the history database; empty URL means the relay
// runs with an in-memory history store.
type DatabaseConfig struct {
	URL string
}

// HistoryConfig bounds the completion window.
type HistoryConfig struct {
	Limit int
}

func loadHistoryConfig() (HistoryConfig, error) {
	limit := 10
	if override, err := parseOptionalIntEnv("HISTORY_LIMIT"); err != nil {
		return HistoryConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return HistoryConfig{}, fmt.Errorf("HISTORY_LIMIT must be positive, got %d", *override)
		}
		limit = *override
	}
	return HistoryConfig{Limit: limit}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
