package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient calls the Gemini API through the genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string, cfg *genai.ClientConfig) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &ProviderError{Provider: "gemini", Code: ErrCodeAPIKey, Message: "api key is required"}
	}
	if cfg == nil {
		cfg = &genai.ClientConfig{}
	}
	cfg.APIKey = apiKey
	cfg.Backend = genai.BackendGeminiAPI

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, &ProviderError{Provider: "gemini", Code: ErrCodeAPIKey, Message: "failed to create gemini client", Err: err}
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Model() string {
	return g.model
}

func (g *GeminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	temp := req.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProviderError{Provider: "gemini", Code: geminiCode(err), Message: "generate content failed", Err: err}
	}
	if result == nil {
		return nil, &ProviderError{Provider: "gemini", Code: ErrCodeEmptyResponse, Message: "no response generated"}
	}

	var b strings.Builder
	for _, candidate := range result.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			b.WriteString(part.Text)
		}
		break
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return nil, &ProviderError{Provider: "gemini", Code: ErrCodeEmptyResponse, Message: "empty response generated"}
	}

	out := &Response{Text: text, Model: g.model}
	if u := result.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
	}
	return out, nil
}

// geminiCode classifies SDK errors by their status text; the SDK embeds the
// HTTP status in the message.
func geminiCode(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "rate"):
		return ErrCodeRateLimit
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "api key"):
		return ErrCodeAPIKey
	case strings.Contains(msg, "504") || strings.Contains(msg, "deadline"):
		return ErrCodeTimeout
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503") || strings.Contains(msg, "unavailable"):
		return ErrCodeServiceDown
	default:
		return ErrCodeInvalidInput
	}
}
