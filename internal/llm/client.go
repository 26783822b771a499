// Package llm provides the chat-completion abstraction used by the interview
// agents, its provider implementations and the middleware stack (retry,
// timeout, response cache, usage accounting) wrapped around them.
package llm

import (
	"context"
	"time"
)

type Request struct {
	Agent       string
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	// JSON asks the provider for a JSON object response when it supports it.
	JSON bool
}

type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Cached           bool
}

func (r *Response) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}

// Client completes a single prompt.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}

// Middleware decorates a Client.
type Middleware func(next Client) Client

// Chain wraps c so that the first middleware is the outermost.
func Chain(c Client, mws ...Middleware) Client {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

type clientFunc struct {
	complete func(ctx context.Context, req Request) (*Response, error)
	model    string
}

func (f *clientFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f.complete(ctx, req)
}

func (f *clientFunc) Model() string {
	return f.model
}

// wrap builds a Client that keeps next's model name.
func wrap(next Client, complete func(ctx context.Context, req Request) (*Response, error)) Client {
	return &clientFunc{complete: complete, model: next.Model()}
}

// WithTimeout bounds every call made through the returned client.
func WithTimeout(d time.Duration) Middleware {
	return func(next Client) Client {
		if d <= 0 {
			return next
		}
		return wrap(next, func(ctx context.Context, req Request) (*Response, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Complete(ctx, req)
		})
	}
}

type interviewKey struct{}

// WithInterviewID attributes calls made with ctx to an interview for cost
// accounting.
func WithInterviewID(ctx context.Context, interviewID int64) context.Context {
	return context.WithValue(ctx, interviewKey{}, interviewID)
}

func InterviewIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(interviewKey{}).(int64)
	return id, ok
}
