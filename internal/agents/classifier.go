package agents

import (
	"context"
	"strings"

	"github.com/ddiaz-itx/ai-interviewer/internal/llm"
	"github.com/ddiaz-itx/ai-interviewer/internal/prompts"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

type Classifier struct {
	base
}

func NewClassifier(client llm.Client, pm *prompts.Manager) *Classifier {
	return &Classifier{base{name: "message_classification", tmpl: prompts.Classification, client: client, prompts: pm}}
}

func (c *Classifier) Classify(ctx context.Context, question, message string) (*model.MessageClassification, error) {
	q, m, err := validateQA(question, message)
	if err != nil {
		return nil, err
	}

	var out struct {
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
	}
	if err := c.completeJSON(ctx, map[string]any{"Question": q, "Message": m}, &out); err != nil {
		return nil, err
	}

	kind, ok := parseKind(out.Type)
	if !ok {
		return nil, invalidOutput(c.name, "unknown message type %q", out.Type)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return nil, invalidOutput(c.name, "confidence %v outside [0, 1]", out.Confidence)
	}
	return &model.MessageClassification{Type: kind, Confidence: out.Confidence}, nil
}

// parseKind accepts the common spellings models produce.
func parseKind(s string) (model.MessageKind, bool) {
	norm := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "answer":
		return model.KindAnswer, true
	case "clarification":
		return model.KindClarification, true
	case "offtopic":
		return model.KindOffTopic, true
	}
	return "", false
}
