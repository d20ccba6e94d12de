package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arizkuren/skillbluff/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	path          string
	authorization string
	body          map[string]any
}

func newChatServer(t *testing.T, status int, reply any) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.authorization = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured.body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func testGenerationRequest() GenerationRequest {
	return GenerationRequest{Prompt: "how to fold water", Language: domain.LanguageEnglish, Slug: "how-to-fold-water"}
}

func TestLLMGenerator_Ollama(t *testing.T) {
	srv, captured := newChatServer(t, http.StatusOK, map[string]any{
		"message": map[string]any{"role": "assistant", "content": `{"a": 1}`},
	})

	gen, err := NewLLMGenerator(&GeneratorConfig{
		Provider: ProviderOllama,
		Model:    "qwen3:4b-cloud",
		APIKey:   "secret",
		BaseURL:  srv.URL + "/",
	})
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), testGenerationRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, out)

	assert.Equal(t, "/api/chat", captured.path)
	assert.Equal(t, "Bearer secret", captured.authorization)
	assert.Equal(t, "qwen3:4b-cloud", captured.body["model"])
	assert.Equal(t, false, captured.body["stream"])
	assert.NotContains(t, captured.body, "options")

	messages, ok := captured.body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Contains(t, user["content"], "how-to-fold-water")
	assert.Contains(t, user["content"], "certified-fake")
}

func TestLLMGenerator_OpenAI(t *testing.T) {
	srv, captured := newChatServer(t, http.StatusOK, map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": "hello"}},
		},
	})

	gen, err := NewLLMGenerator(&GeneratorConfig{
		Provider:    ProviderOpenAI,
		BaseURL:     srv.URL,
		Temperature: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, defaultOpenAIModel, gen.Model())

	out, err := gen.Generate(context.Background(), testGenerationRequest())
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "/chat/completions", captured.path)
	assert.Empty(t, captured.authorization)
	assert.InDelta(t, 0.8, captured.body["temperature"], 0.001)
}

func TestLLMGenerator_Failures(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		status   int
		reply    any
	}{
		{name: "ollama server error", provider: ProviderOllama, status: http.StatusInternalServerError, reply: map[string]any{"error": "model not loaded"}},
		{name: "ollama empty content", provider: ProviderOllama, status: http.StatusOK, reply: map[string]any{"message": map[string]any{"content": "  "}}},
		{name: "openai unauthorized", provider: ProviderOpenAI, status: http.StatusUnauthorized, reply: map[string]any{"error": map[string]any{"message": "bad key"}}},
		{name: "openai no choices", provider: ProviderOpenAI, status: http.StatusOK, reply: map[string]any{"choices": []any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newChatServer(t, tt.status, tt.reply)
			gen, err := NewLLMGenerator(&GeneratorConfig{Provider: tt.provider, BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = gen.Generate(context.Background(), testGenerationRequest())
			require.Error(t, err)
			assert.Equal(t, domain.KindGenerationUnavailable, domain.KindOf(err))
		})
	}
}

func TestLLMGenerator_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	gen, err := NewLLMGenerator(&GeneratorConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), testGenerationRequest())
	assert.Equal(t, domain.KindGenerationUnavailable, domain.KindOf(err))
}

func TestNewLLMGenerator_Defaults(t *testing.T) {
	gen, err := NewLLMGenerator(&GeneratorConfig{})
	require.NoError(t, err)
	assert.Equal(t, defaultOllamaModel, gen.Model())
	assert.Equal(t, defaultOllamaBaseURL+"/api/chat", gen.endpoint)

	_, err = NewLLMGenerator(&GeneratorConfig{Provider: "anthropic"})
	assert.Error(t, err)
}
