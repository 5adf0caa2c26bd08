package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type geminiContent struct {
	Role  string `json:"role"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction"`
}

func newGeminiServer(t *testing.T, status int, body string, got *geminiRequest, path *string, apiKey *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		if path != nil {
			*path = r.URL.Path
		}
		if apiKey != nil {
			*apiKey = r.Header.Get("x-goog-api-key")
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGemini(t *testing.T, srv *httptest.Server) *GeminiClient {
	t.Helper()
	c, err := NewGemini(context.Background(), "gm-key", srv.URL, "gemini-test")
	require.NoError(t, err)
	return c
}

func TestGeminiClient_Generate(t *testing.T) {
	var req geminiRequest
	var path, key string
	srv := newGeminiServer(t, http.StatusOK, `{
		"candidates": [{"content": {"role": "model", "parts": [{"text": "The brood is warm."}]}}],
		"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 5, "totalTokenCount": 17}
	}`, &req, &path, &key)

	resp, err := newTestGemini(t, srv).Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "be a bee"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "bzz"},
		{Role: RoleUser, Content: "how warm?"},
	})
	require.NoError(t, err)

	assert.Equal(t, "The brood is warm.", resp.Content)
	assert.Equal(t, "gemini-test", resp.Model)
	assert.Equal(t, 12, resp.PromptTokens)
	assert.Equal(t, 5, resp.CompletionTokens)
	assert.Equal(t, 17, resp.TotalTokens)

	assert.Contains(t, path, "gemini-test:generateContent")
	assert.Equal(t, "gm-key", key)

	require.NotNil(t, req.SystemInstruction)
	require.Len(t, req.SystemInstruction.Parts, 1)
	assert.Equal(t, "be a bee", req.SystemInstruction.Parts[0].Text)

	require.Len(t, req.Contents, 3)
	roles := []string{req.Contents[0].Role, req.Contents[1].Role, req.Contents[2].Role}
	assert.Equal(t, []string{"user", "model", "user"}, roles)
	assert.Equal(t, "how warm?", req.Contents[2].Parts[0].Text)
}

func TestGeminiClient_NoSystemInstruction(t *testing.T) {
	var req geminiRequest
	srv := newGeminiServer(t, http.StatusOK,
		`{"candidates": [{"content": {"role": "model", "parts": [{"text": "ok"}]}}]}`, &req, nil, nil)

	_, err := newTestGemini(t, srv).Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Nil(t, req.SystemInstruction)
}

func TestGeminiClient_NoCandidates(t *testing.T) {
	srv := newGeminiServer(t, http.StatusOK, `{"candidates": []}`, nil, nil, nil)

	_, err := newTestGemini(t, srv).Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestGeminiClient_HTTPError(t *testing.T) {
	srv := newGeminiServer(t, http.StatusBadRequest,
		`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`, nil, nil, nil)

	_, err := newTestGemini(t, srv).Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyResponse))
	assert.NotEmpty(t, err.Error())
}

func TestNewGemini_Defaults(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "", "")
	assert.Error(t, err)

	c, err := NewGemini(context.Background(), "gm-key", "http://127.0.0.1:0", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultGeminiModel, c.model)
}
