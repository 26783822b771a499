package llm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tiktoken-go/tokenizer"
	"go.uber.org/zap"

	"github.com/ddiaz-itx/ai-interviewer/internal/metrics"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

// Price is USD per 1K tokens.
type Price struct {
	Prompt     float64
	Completion float64
}

var (
	priceGPT4   = Price{Prompt: 0.03, Completion: 0.06}
	priceGPT35  = Price{Prompt: 0.0015, Completion: 0.002}
	priceGemini = Price{Prompt: 0.00025, Completion: 0.0005}
)

// PriceFor returns the pricing tier for a model name. Unknown models are
// billed at Gemini rates.
func PriceFor(modelName string) Price {
	m := strings.ToLower(modelName)
	switch {
	case strings.Contains(m, "gpt-4"):
		return priceGPT4
	case strings.Contains(m, "gpt-3.5"):
		return priceGPT35
	default:
		return priceGemini
	}
}

func EstimateCost(modelName string, promptTokens, completionTokens int) float64 {
	p := PriceFor(modelName)
	return float64(promptTokens)*p.Prompt/1000 + float64(completionTokens)*p.Completion/1000
}

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// CountTokens estimates the token count of text for modelName. OpenAI models
// use the tiktoken encoding; everything else uses four characters per token.
func CountTokens(text, modelName string) int {
	if !strings.HasPrefix(strings.ToLower(modelName), "gpt") {
		return len(text) / 4
	}
	codecOnce.Do(func() {
		c, err := tokenizer.ForModel(tokenizer.GPT4)
		if err == nil {
			codec = c
		}
	})
	if codec == nil {
		return len(text) / 4
	}
	n, err := codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return n
}

// UsageRecorder persists one ledger row per completion.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, u *model.LLMUsage) error
}

// WithUsage fills in missing token counts, prices the call, records it and
// exports metrics. Recording failures are logged only.
func WithUsage(recorder UsageRecorder, logger *zap.Logger) Middleware {
	return func(next Client) Client {
		return wrap(next, func(ctx context.Context, req Request) (*Response, error) {
			start := time.Now()
			resp, err := next.Complete(ctx, req)
			modelName := next.Model()
			if err != nil {
				metrics.ObserveLLMRequest(req.Agent, modelName, 0, 0, 0, err, time.Since(start))
				return nil, err
			}

			if resp.Model != "" {
				modelName = resp.Model
			}
			if resp.PromptTokens == 0 {
				resp.PromptTokens = CountTokens(req.System+req.Prompt, modelName)
			}
			if resp.CompletionTokens == 0 {
				resp.CompletionTokens = CountTokens(resp.Text, modelName)
			}

			cost := 0.0
			if !resp.Cached {
				cost = EstimateCost(modelName, resp.PromptTokens, resp.CompletionTokens)
				metrics.ObserveLLMRequest(req.Agent, modelName, resp.PromptTokens, resp.CompletionTokens, cost, nil, time.Since(start))
			}

			u := &model.LLMUsage{
				AgentName:        req.Agent,
				Model:            modelName,
				PromptTokens:     resp.PromptTokens,
				CompletionTokens: resp.CompletionTokens,
				TotalTokens:      resp.TotalTokens(),
				EstimatedCost:    cost,
				Cached:           resp.Cached,
			}
			if id, ok := InterviewIDFrom(ctx); ok {
				u.InterviewID = &id
			}
			if recorder != nil {
				if err := recorder.RecordUsage(ctx, u); err != nil {
					logger.Sugar().Warnw("record llm usage", "agent", req.Agent, "err", err)
				}
			}
			return resp, nil
		})
	}
}
