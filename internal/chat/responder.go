package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hive-dashboard/internal/llm"
	"hive-dashboard/internal/telemetry"
)

// DefaultPersona is used when no system prompt file is configured.
const DefaultPersona = `You are Buzz, a cheerful beekeeping assistant living inside a smart hive dashboard.
Answer in two or three short sentences, in plain language a hobby beekeeper understands.
Ground every answer in the hive readings you are given and never invent readings.
Add a light bee pun now and then, but stay helpful first.`

const promptTemplate = `Current hive conditions: temperature %.1f°C, humidity %.1f%%, flight activity %d%%.
The beekeeper asks: %s`

// BuildPrompt interpolates the reading and the user's question into the fixed template.
func BuildPrompt(question string, s telemetry.Sample) string {
	return fmt.Sprintf(promptTemplate, s.Temperature, s.Humidity, s.Activity, question)
}

// LLMResponder answers through an llm.Client with a fixed persona.
type LLMResponder struct {
	client       llm.Client
	systemPrompt string
	log          *zap.Logger
}

func NewLLMResponder(client llm.Client, systemPrompt string, log *zap.Logger) *LLMResponder {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultPersona
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMResponder{client: client, systemPrompt: systemPrompt, log: log}
}

// GenerateReply returns "" with a nil error when the provider had nothing to say.
func (r *LLMResponder) GenerateReply(ctx context.Context, prompt string, sample telemetry.Sample) (string, error) {
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: r.systemPrompt},
		{Role: llm.RoleUser, Content: BuildPrompt(prompt, sample)},
	}

	resp, err := r.client.Generate(ctx, msgs)
	if errors.Is(err, llm.ErrEmptyResponse) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	r.log.Info("llm response",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.PromptTokens),
		zap.Int("completion_tokens", resp.CompletionTokens),
		zap.Int("total_tokens", resp.TotalTokens),
	)
	return resp.Content, nil
}
