package agents

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ddiaz-itx/ai-interviewer/internal/llm"
	"github.com/ddiaz-itx/ai-interviewer/internal/prompts"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

type QuestionGenerator struct {
	base
}

func NewQuestionGenerator(client llm.Client, pm *prompts.Manager) *QuestionGenerator {
	return &QuestionGenerator{base{name: "question_generation", tmpl: prompts.Question, client: client, prompts: pm}}
}

func (g *QuestionGenerator) Generate(ctx context.Context, in model.QuestionRequest) (string, error) {
	in, err := validateQuestionRequest(in)
	if err != nil {
		return "", err
	}
	text, err := g.complete(ctx, in)
	if err != nil {
		return "", err
	}
	q := strings.Trim(strings.TrimSpace(text), `"`)
	if q == "" {
		return "", invalidOutput(g.name, "empty question")
	}
	// the question is fed back into classification and evaluation, which
	// enforce the same window
	if n := utf8.RuneCountInString(q); n < minQuestionLen || n > maxQuestionLen {
		return "", invalidOutput(g.name, "question must be between %d and %d characters, got %d", minQuestionLen, maxQuestionLen, n)
	}
	return q, nil
}
