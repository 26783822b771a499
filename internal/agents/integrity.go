package agents

import (
	"context"
	"fmt"

	"github.com/ddiaz-itx/ai-interviewer/internal/llm"
	"github.com/ddiaz-itx/ai-interviewer/internal/prompts"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

const maxPreviousAnswers = 3

type IntegrityAssessor struct {
	base
}

func NewIntegrityAssessor(client llm.Client, pm *prompts.Manager) *IntegrityAssessor {
	return &IntegrityAssessor{base{name: "integrity_judgment", tmpl: prompts.Integrity, client: client, prompts: pm}}
}

func (a *IntegrityAssessor) Assess(ctx context.Context, in model.IntegrityInput) (*model.IntegrityAssessment, error) {
	q, ans, err := validateQA(in.Question, in.Answer)
	if err != nil {
		return nil, err
	}
	if in.ResponseTimeMs < 0 {
		return nil, fmt.Errorf("%w: response time cannot be negative", ErrInvalidInput)
	}
	prev := in.PreviousAnswers
	if len(prev) > maxPreviousAnswers {
		prev = prev[len(prev)-maxPreviousAnswers:]
	}

	var out model.IntegrityAssessment
	err = a.completeJSON(ctx, map[string]any{
		"Question":        q,
		"Answer":          ans,
		"ResponseTimeMs":  in.ResponseTimeMs,
		"PasteDetected":   in.PasteDetected,
		"PreviousAnswers": prev,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.CheatCertainty < 0 || out.CheatCertainty > 100 {
		return nil, invalidOutput(a.name, "cheat certainty %v outside [0, 100]", out.CheatCertainty)
	}
	if out.Indicators == nil {
		out.Indicators = []string{}
	}
	return &out, nil
}
