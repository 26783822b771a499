package agents

import (
	"context"
	"strings"

	"github.com/ddiaz-itx/ai-interviewer/internal/llm"
	"github.com/ddiaz-itx/ai-interviewer/internal/prompts"
)

type IntroductionWriter struct {
	base
}

func NewIntroductionWriter(client llm.Client, pm *prompts.Manager) *IntroductionWriter {
	return &IntroductionWriter{base{name: "introduction", tmpl: prompts.Introduction, client: client, prompts: pm}}
}

func (w *IntroductionWriter) Introduce(ctx context.Context, roleDescription string, targetQuestions int) (string, error) {
	text, err := w.complete(ctx, map[string]any{
		"RoleDescription": strings.TrimSpace(roleDescription),
		"TargetQuestions": targetQuestions,
	})
	if err != nil {
		return "", err
	}
	intro := strings.TrimSpace(text)
	if intro == "" {
		return "", invalidOutput(w.name, "empty introduction")
	}
	return intro, nil
}
