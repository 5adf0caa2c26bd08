package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newCompletionServer(t *testing.T, body string, got *chatRequest, headers *http.Header) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		if headers != nil {
			*headers = r.Header.Clone()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_Generate(t *testing.T) {
	var req chatRequest
	var headers http.Header
	srv := newCompletionServer(t, `{
		"id": "x", "object": "chat.completion", "model": "test-model",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "All good, bzzt."}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 4, "total_tokens": 14}
	}`, &req, &headers)

	c := NewOpenAI("sk-test", srv.URL+"/v1", "test-model", "https://hive.example", "Hive")
	resp, err := c.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "be a bee"},
		{Role: RoleUser, Content: "How is the hive?"},
	})
	require.NoError(t, err)

	assert.Equal(t, "All good, bzzt.", resp.Content)
	assert.Equal(t, "test-model", resp.Model)
	assert.Equal(t, 14, resp.TotalTokens)

	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, RoleSystem, req.Messages[0].Role)
	assert.Equal(t, "How is the hive?", req.Messages[1].Content)
	assert.Equal(t, "Bearer sk-test", headers.Get("Authorization"))
	assert.Equal(t, "https://hive.example", headers.Get("HTTP-Referer"))
	assert.Equal(t, "Hive", headers.Get("X-Title"))
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := newCompletionServer(t, `{"id": "x", "choices": []}`, nil, nil)

	c := NewOpenAI("sk-test", srv.URL+"/v1", "m", "", "")
	_, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.True(t, errors.Is(err, ErrEmptyResponse), "got %v", err)
}

func TestOpenAIClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewOpenAI("sk-bad", srv.URL+"/v1", "m", "", "")
	_, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyResponse))
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "q"},
		{Role: RoleSystem, Content: "b"},
		{Role: RoleAssistant, Content: "r"},
	})
	assert.Equal(t, "a\n\nb", system)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "q"}, {Role: RoleAssistant, Content: "r"}}, turns)
}

func TestFactory_UnknownProvider(t *testing.T) {
	f := &Factory{}
	_, err := f.CreateClient(context.Background(), "claude")
	assert.Error(t, err)
}

func TestFactory_GeminiRequiresKey(t *testing.T) {
	f := &Factory{}
	_, err := f.CreateClient(context.Background(), ProviderGemini)
	assert.Error(t, err)
}

func TestFactory_OpenAI(t *testing.T) {
	f := &Factory{OpenaiAPIKey: "k", OpenaiModel: "m"}
	c, err := f.CreateClient(context.Background(), "OpenAI")
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)
}
