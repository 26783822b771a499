package agents

import (
	"context"

	"github.com/ddiaz-itx/ai-interviewer/internal/llm"
	"github.com/ddiaz-itx/ai-interviewer/internal/prompts"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

type Evaluator struct {
	base
}

func NewEvaluator(client llm.Client, pm *prompts.Manager) *Evaluator {
	return &Evaluator{base{name: "answer_evaluation", tmpl: prompts.Evaluation, client: client, prompts: pm}}
}

func (e *Evaluator) Evaluate(ctx context.Context, question, answer string) (*model.AnswerEvaluation, error) {
	q, a, err := validateQA(question, answer)
	if err != nil {
		return nil, err
	}

	var out model.AnswerEvaluation
	if err := e.completeJSON(ctx, map[string]any{"Question": q, "Answer": a}, &out); err != nil {
		return nil, err
	}
	if out.Score < 1 || out.Score > 10 {
		return nil, invalidOutput(e.name, "score %d outside [1, 10]", out.Score)
	}
	return &out, nil
}
