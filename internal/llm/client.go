// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"strengthlab/fitness-app/internal/config"
)

// Defaults for the hosted OpenAI-compatible API the app ships against.
const (
	DefaultBaseURL       = "https://api.groq.com/openai/v1"
	DefaultModel         = "llama-3.3-70b-versatile"
	DefaultFallbackModel = "llama4-scout-17b-16e-instruct"

	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 4096
)

var ErrEmptyCompletion = errors.New("llm returned no choices")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Usage is the token accounting of one completed chat call, reported back
// so callers can attach it to diagnostics.
type Usage struct {
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Client talks to an OpenAI-compatible chat-completions endpoint. Calls try
// the primary model first and fall back to the configured fallback model on
// any failure.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	fallback   string
	httpClient *http.Client
}

// NewClient builds a client from configuration, filling unset fields with
// the package defaults.
func NewClient(cfg config.LLMConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	fallback := cfg.FallbackModel
	if fallback == "" {
		fallback = DefaultFallbackModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		fallback:   fallback,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Chat sends the messages and returns the first choice's content. The
// primary model is tried first; on failure the fallback model gets one try
// and the first error is returned if both fail.
func (c *Client) Chat(ctx context.Context, messages []Message, temperature float64) (string, Usage, error) {
	models := []string{c.model}
	if c.fallback != "" && c.fallback != c.model {
		models = append(models, c.fallback)
	}

	var firstErr error
	for _, model := range models {
		content, usage, err := c.chatWithModel(ctx, messages, temperature, model)
		if err == nil {
			return content, usage, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return "", Usage{}, firstErr
}

// SimpleChat is the one-system-one-user convenience wrapper.
func (c *Client) SimpleChat(ctx context.Context, systemPrompt, userMessage string) (string, Usage, error) {
	return c.Chat(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	}, 0.7)
}

func (c *Client) chatWithModel(ctx context.Context, messages []Message, temperature float64, model string) (string, Usage, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", Usage{}, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to read chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", Usage{}, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", Usage{}, fmt.Errorf("llm api error (%s): %s", model, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", Usage{}, fmt.Errorf("llm api returned %d for model %s", resp.StatusCode, model)
	}
	if len(parsed.Choices) == 0 {
		return "", Usage{}, ErrEmptyCompletion
	}

	usage := Usage{
		Model:            model,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}
	if parsed.Model != "" {
		usage.Model = parsed.Model
	}
	return parsed.Choices[0].Message.Content, usage, nil
}
