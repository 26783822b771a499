package agents

import (
	"context"
	"strings"

	"github.com/ddiaz-itx/ai-interviewer/internal/llm"
	"github.com/ddiaz-itx/ai-interviewer/internal/prompts"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

type DocumentAnalyzer struct {
	base
}

func NewDocumentAnalyzer(client llm.Client, pm *prompts.Manager) *DocumentAnalyzer {
	return &DocumentAnalyzer{base{name: "document_analysis", tmpl: prompts.DocumentAnalysis, client: client, prompts: pm}}
}

func (d *DocumentAnalyzer) Analyze(ctx context.Context, resume, role, jobOffering string) (*model.MatchAnalysis, error) {
	docs, err := ValidateDocuments(model.Documents{Resume: resume, Role: role, JobOffering: jobOffering})
	if err != nil {
		return nil, err
	}

	var out model.MatchAnalysis
	if err := d.completeJSON(ctx, docs, &out); err != nil {
		return nil, err
	}
	if out.MatchScore < 1 || out.MatchScore > 10 {
		return nil, invalidOutput(d.name, "match score %d outside [1, 10]", out.MatchScore)
	}

	areas := make([]string, 0, len(out.FocusAreas))
	for _, a := range out.FocusAreas {
		if a = strings.TrimSpace(a); a != "" {
			areas = append(areas, a)
		}
	}
	if len(areas) == 0 {
		return nil, invalidOutput(d.name, "no focus areas")
	}
	if len(areas) > maxMatchAreas {
		areas = areas[:maxMatchAreas]
	}
	out.FocusAreas = areas
	return &out, nil
}
