package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arizkuren/skillbluff/internal/domain"
	"github.com/arizkuren/skillbluff/internal/prompts"
	"github.com/go-resty/resty/v2"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	defaultOllamaModel   = "qwen3:4b-cloud"
	defaultOllamaBaseURL = "https://ollama.com"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultGenTimeout    = 120 * time.Second
)

// GenerationRequest is the input of one generation call.
type GenerationRequest struct {
	Prompt   string
	Language string
	Slug     string
}

// Generator turns a generation request into the raw reply text.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	Model() string
}

// GeneratorConfig holds configuration for the LLM generator.
type GeneratorConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
}

// LLMGenerator calls an Ollama or OpenAI-compatible chat endpoint once per
// request. There is no retry.
type LLMGenerator struct {
	client      *resty.Client
	provider    string
	model       string
	endpoint    string
	temperature float32
}

// NewLLMGenerator creates a generator for the configured provider.
// Parameters:
//   - cfg: provider, model, credentials and timeout.
//
// Returns:
//   - *LLMGenerator: ready to use client.
//   - error: non-nil for an unknown provider.
func NewLLMGenerator(cfg *GeneratorConfig) (*LLMGenerator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderOllama
	}

	model := cfg.Model
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	var endpoint string
	switch provider {
	case ProviderOllama:
		if model == "" {
			model = defaultOllamaModel
		}
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
		endpoint = baseURL + "/api/chat"
	case ProviderOpenAI:
		if model == "" {
			model = defaultOpenAIModel
		}
		if baseURL == "" {
			baseURL = defaultOpenAIBaseURL
		}
		endpoint = baseURL + "/chat/completions"
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", cfg.Provider)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGenTimeout
	}

	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	client.SetTimeout(timeout)

	return &LLMGenerator{
		client:      client,
		provider:    provider,
		model:       model,
		endpoint:    endpoint,
		temperature: cfg.Temperature,
	}, nil
}

// Model returns the model name being used.
func (g *LLMGenerator) Model() string {
	return g.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  *ollamaOptions `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

type openAIChatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate sends one chat request and returns the reply text.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: prompt, language and slug of the skill to write.
//
// Returns:
//   - string: raw reply content, which may or may not be valid JSON.
//   - error: *domain.Error of kind GenerationUnavailable on any failure.
func (g *LLMGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	userPrompt, err := prompts.RenderSkillPrompt(prompts.SkillPromptData{
		Prompt:       req.Prompt,
		Slug:         req.Slug,
		DisplayName:  req.Prompt,
		Language:     req.Language,
		Tags:         domain.ValidTags,
		Difficulties: difficultyLabels(),
		MinScore:     1,
		MaxScore:     10,
		MinWords:     minTargetWords,
		MaxWords:     maxTargetWords,
	})
	if err != nil {
		return "", domain.NewError(domain.KindGenerationUnavailable, "could not build the generation prompt", err)
	}

	messages := []chatMessage{
		{Role: "system", Content: prompts.SkillSystemPrompt},
		{Role: "user", Content: userPrompt},
	}

	var content string
	switch g.provider {
	case ProviderOpenAI:
		content, err = g.callOpenAI(ctx, messages)
	default:
		content, err = g.callOllama(ctx, messages)
	}
	if err != nil {
		return "", domain.NewError(domain.KindGenerationUnavailable, "the generation service is unavailable", err)
	}
	if strings.TrimSpace(content) == "" {
		return "", domain.NewError(domain.KindGenerationUnavailable, "the generation service returned no content", nil)
	}
	return content, nil
}

func (g *LLMGenerator) callOllama(ctx context.Context, messages []chatMessage) (string, error) {
	body := ollamaChatRequest{
		Model:    g.model,
		Messages: messages,
		Stream:   false,
	}
	if g.temperature > 0 {
		body.Options = &ollamaOptions{Temperature: g.temperature}
	}

	var resp ollamaChatResponse
	httpResp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&resp).
		SetError(&resp).
		Post(g.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call Ollama API: %w", err)
	}
	if httpResp.IsError() {
		if resp.Error != "" {
			return "", fmt.Errorf("Ollama API returned HTTP %d: %s", httpResp.StatusCode(), resp.Error)
		}
		return "", fmt.Errorf("Ollama API returned HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
	}
	return resp.Message.Content, nil
}

func (g *LLMGenerator) callOpenAI(ctx context.Context, messages []chatMessage) (string, error) {
	body := openAIChatRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
	}

	var resp openAIChatResponse
	httpResp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&resp).
		SetError(&resp).
		Post(g.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call chat completions API: %w", err)
	}
	if httpResp.IsError() {
		if resp.Error != nil {
			return "", fmt.Errorf("chat completions API returned HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return "", fmt.Errorf("chat completions API returned HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
	}
	if resp.Error != nil {
		return "", fmt.Errorf("chat completions API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response (status: %d)", httpResp.StatusCode())
	}
	return resp.Choices[0].Message.Content, nil
}

func difficultyLabels() []string {
	labels := make([]string, len(domain.Difficulties))
	for i, d := range domain.Difficulties {
		labels[i] = string(d)
	}
	return labels
}
