package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var defaultBaseURLs = map[string]string{
	"openai": "https://api.openai.com/v1",
	"groq":   "https://api.groq.com/openai/v1",
	"ollama": "http://localhost:11434/v1",
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, Groq, Ollama).
type OpenAIClient struct {
	provider string
	apiKey   string
	model    string
	base     string
	http     *http.Client
}

func NewOpenAIClient(provider, apiKey, model, baseURL string, httpClient *http.Client) (*OpenAIClient, error) {
	if baseURL == "" {
		baseURL = defaultBaseURLs[provider]
	}
	if baseURL == "" {
		return nil, fmt.Errorf("no base url for provider %q", provider)
	}
	if apiKey == "" && provider != "ollama" {
		return nil, &ProviderError{Provider: provider, Code: ErrCodeAPIKey, Message: "api key is required"}
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OpenAIClient{
		provider: provider,
		apiKey:   apiKey,
		model:    model,
		base:     strings.TrimRight(baseURL, "/"),
		http:     httpClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float32         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Model() string {
	return c.model
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	body := chatRequest{
		Model:       c.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	if c.apiKey != "" {
		r.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	r.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(r)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProviderError{Provider: c.provider, Code: ErrCodeServiceDown, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: c.provider, Code: ErrCodeServiceDown, Message: "read response", Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &ProviderError{
			Provider:   c.provider,
			Code:       codeForStatus(resp.StatusCode),
			Message:    fmt.Sprintf("api error %d: %s", resp.StatusCode, truncate(string(bodyBytes), 300)),
			StatusCode: resp.StatusCode,
		}
	}

	var ch chatResponse
	if err := json.Unmarshal(bodyBytes, &ch); err != nil {
		return nil, &ProviderError{Provider: c.provider, Code: ErrCodeInvalidInput, Message: "decode response", Err: err}
	}
	if ch.Error != nil {
		return nil, &ProviderError{Provider: c.provider, Code: ErrCodeInvalidInput, Message: ch.Error.Message}
	}
	if len(ch.Choices) == 0 || strings.TrimSpace(ch.Choices[0].Message.Content) == "" {
		return nil, &ProviderError{Provider: c.provider, Code: ErrCodeEmptyResponse, Message: "no choices returned"}
	}

	out := &Response{
		Text:  ch.Choices[0].Message.Content,
		Model: c.model,
	}
	if ch.Usage != nil {
		out.PromptTokens = ch.Usage.PromptTokens
		out.CompletionTokens = ch.Usage.CompletionTokens
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
