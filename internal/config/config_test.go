package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.Equal(t, 13, cfg.FeedCapacity)
	assert.Equal(t, time.Hour, cfg.FeedSpacing)
	assert.Equal(t, 10*time.Second, cfg.FeedTickEvery)
	assert.Equal(t, time.Duration(0), cfg.ReplyTimeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "0 21 * * *", cfg.DailyReportCron)
	assert.Empty(t, cfg.InteractionLogPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("FEED_CAPACITY", "24")
	t.Setenv("FEED_TICK_EVERY", "1m")
	t.Setenv("CHAT_REPLY_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, 24, cfg.FeedCapacity)
	assert.Equal(t, time.Minute, cfg.FeedTickEvery)
	assert.Equal(t, 30*time.Second, cfg.ReplyTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("FEED_SPACING", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			LLMProvider:   ProviderGemini,
			GeminiAPIKey:  "k",
			FeedCapacity:  13,
			FeedSpacing:   time.Hour,
			FeedTickEvery: 10 * time.Second,
		}
	}

	cases := map[string]func(c *Config){
		"missing gemini key": func(c *Config) { c.GeminiAPIKey = "" },
		"missing openai key": func(c *Config) { c.LLMProvider = ProviderOpenAI },
		"missing yandex":     func(c *Config) { c.LLMProvider = ProviderYandex },
		"unknown provider":   func(c *Config) { c.LLMProvider = "claude" },
		"zero capacity":      func(c *Config) { c.FeedCapacity = 0 },
		"zero spacing":       func(c *Config) { c.FeedSpacing = 0 },
		"sub-second tick":    func(c *Config) { c.FeedTickEvery = 500 * time.Millisecond },
		"negative timeout":   func(c *Config) { c.ReplyTimeout = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	assert.NoError(t, base().Validate())
}
