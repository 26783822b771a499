// Package agents implements the interview collaborators on top of an LLM:
// each agent renders its prompt template, calls the model and validates the
// structured reply before it reaches the interview core.
package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ddiaz-itx/ai-interviewer/internal/interview"
	"github.com/ddiaz-itx/ai-interviewer/internal/llm"
	"github.com/ddiaz-itx/ai-interviewer/internal/prompts"
)

var (
	ErrInvalidInput  = errors.New("invalid agent input")
	ErrInvalidOutput = errors.New("invalid agent output")
)

// base carries what every agent needs to talk to the model.
type base struct {
	name    string
	tmpl    string
	client  llm.Client
	prompts *prompts.Manager
}

func (b *base) complete(ctx context.Context, data any) (string, error) {
	r, err := b.prompts.Render(b.tmpl, data)
	if err != nil {
		return "", err
	}
	resp, err := b.client.Complete(ctx, llm.Request{
		Agent:       b.name,
		System:      r.System,
		Prompt:      r.Prompt,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
		JSON:        r.JSON,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", b.name, err)
	}
	return resp.Text, nil
}

func (b *base) completeJSON(ctx context.Context, data any, out any) error {
	text, err := b.complete(ctx, data)
	if err != nil {
		return err
	}
	if err := decodeJSON(text, out); err != nil {
		return fmt.Errorf("%s: %w: %v", b.name, ErrInvalidOutput, err)
	}
	return nil
}

// decodeJSON parses the first JSON object in text, tolerating markdown
// fences and chatter around it.
func decodeJSON(text string, out any) error {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return errors.New("no json object in response")
	}
	return json.Unmarshal([]byte(s[start:end+1]), out)
}

func invalidOutput(agent, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", agent, ErrInvalidOutput, fmt.Sprintf(format, args...))
}

// NewCollaborators builds every agent over a single client.
func NewCollaborators(client llm.Client, pm *prompts.Manager) interview.Collaborators {
	return interview.Collaborators{
		Classifier:   NewClassifier(client, pm),
		Evaluator:    NewEvaluator(client, pm),
		Integrity:    NewIntegrityAssessor(client, pm),
		Questions:    NewQuestionGenerator(client, pm),
		Reports:      NewReportSynthesizer(client, pm),
		Documents:    NewDocumentAnalyzer(client, pm),
		Introduction: NewIntroductionWriter(client, pm),
	}
}
