package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey     string      `env:"GEMINI_API_KEY"`
	GeminiBaseURL    string      `env:"GEMINI_BASE_URL"`
	GeminiModel      string      `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH" envDefault:"prompts/system_prompt.txt"`

	// Feed
	FeedCapacity  int           `env:"FEED_CAPACITY" envDefault:"13"`
	FeedSpacing   time.Duration `env:"FEED_SPACING" envDefault:"1h"`
	FeedTickEvery time.Duration `env:"FEED_TICK_EVERY" envDefault:"10s"`

	// Chat. Zero disables the reply deadline.
	ReplyTimeout time.Duration `env:"CHAT_REPLY_TIMEOUT" envDefault:"0s"`

	// Server
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Storage. Empty disables the interaction log.
	InteractionLogPath string `env:"INTERACTION_LOG_PATH"`
	DailyReportCron    string `env:"DAILY_REPORT_CRON" envDefault:"0 21 * * *"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the selected provider has credentials and the
// feed settings are usable.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %q", c.LLMProvider)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider %q", c.LLMProvider)
		}
	case ProviderYandex:
		if c.YandexOAuthToken == "" || c.YandexFolderID == "" {
			return fmt.Errorf("YANDEX_OAUTH_TOKEN and YANDEX_FOLDER_ID are required for provider %q", c.LLMProvider)
		}
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLMProvider)
	}
	if c.FeedCapacity < 1 {
		return fmt.Errorf("FEED_CAPACITY must be at least 1, got %d", c.FeedCapacity)
	}
	if c.FeedSpacing <= 0 {
		return fmt.Errorf("FEED_SPACING must be positive, got %s", c.FeedSpacing)
	}
	if c.FeedTickEvery < time.Second {
		return fmt.Errorf("FEED_TICK_EVERY must be at least 1s, got %s", c.FeedTickEvery)
	}
	if c.ReplyTimeout < 0 {
		return fmt.Errorf("CHAT_REPLY_TIMEOUT must not be negative, got %s", c.ReplyTimeout)
	}
	return nil
}
