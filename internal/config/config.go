package config

import (
	"os"
	"strconv"

	"datalens/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	AI      AIConfig     `validate:"required"`
	Server  ServerConfig `validate:"required"`
	Profile ProfileConfig
	Ingest  IngestConfig
}

// AIConfig holds AI/LLM related settings
type AIConfig struct {
	OpenAIKey     string `validate:"required"`
	OpenAIModel   string `validate:"required"`
	BaseURL       string
	SystemContext string
	MaxTokens     int
	Temperature   float64
	PromptsDir    string `validate:"required"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required"`
	GinMode string
}

// ProfileConfig holds the tunable profiling constants. The defaults (50
// sampled values, top 15 categories) mirror long-standing behavior but
// carry no deeper rationale, so they stay configurable.
type ProfileConfig struct {
	SampleSize    int
	TopCategories int
}

// IngestConfig holds upload and parsing limits
type IngestConfig struct {
	MaxDataRows int
	PreviewRows int
	MaxFileSize int64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	aiConfig, err := loadAIConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AI configuration")
	}
	config.AI = *aiConfig

	config.Server = ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}

	config.Profile = ProfileConfig{
		SampleSize:    getEnvIntOrDefault("PROFILE_SAMPLE_SIZE", 50),
		TopCategories: getEnvIntOrDefault("TOP_CATEGORIES", 15),
	}

	config.Ingest = IngestConfig{
		MaxDataRows: getEnvIntOrDefault("MAX_DATA_ROWS", 5000),
		PreviewRows: getEnvIntOrDefault("PREVIEW_ROWS", 19),
		MaxFileSize: int64(getEnvIntOrDefault("MAX_FILE_SIZE_MB", 25)) * 1024 * 1024,
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadAIConfig() (*AIConfig, error) {
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		return nil, errors.ConfigInvalid("OPENAI_API_KEY is required")
	}

	promptsDir := os.Getenv("PROMPTS_DIR")
	if promptsDir == "" {
		promptsDir = "./prompts" // default
	}

	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "gpt-4o-mini" // default
	}

	return &AIConfig{
		OpenAIKey:     openaiKey,
		OpenAIModel:   model,
		BaseURL:       getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		SystemContext: "You are a data analysis assistant",
		MaxTokens:     getEnvIntOrDefault("MAX_TOKENS", 700),
		Temperature:   getEnvFloatOrDefault("TEMPERATURE", 0.2),
		PromptsDir:    promptsDir,
	}, nil
}

func validateConfig(config *Config) error {
	if config.AI.OpenAIKey == "" {
		return errors.ConfigInvalid("OpenAI API key is required")
	}
	if config.AI.PromptsDir == "" {
		return errors.ConfigInvalid("prompts directory is required")
	}
	if config.Profile.SampleSize <= 0 {
		return errors.ConfigInvalid("profile sample size must be positive")
	}
	if config.Profile.TopCategories <= 0 {
		return errors.ConfigInvalid("top category limit must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
