package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/ddiaz-itx/ai-interviewer/internal/llm"
	"github.com/ddiaz-itx/ai-interviewer/internal/prompts"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

type ReportSynthesizer struct {
	base
}

func NewReportSynthesizer(client llm.Client, pm *prompts.Manager) *ReportSynthesizer {
	return &ReportSynthesizer{base{name: "report_generation", tmpl: prompts.Report, client: client, prompts: pm}}
}

func (r *ReportSynthesizer) Synthesize(ctx context.Context, in model.ReportInput) (*model.FinalReport, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return nil, fmt.Errorf("%w: transcript cannot be empty", ErrInvalidInput)
	}

	var out model.FinalReport
	if err := r.completeJSON(ctx, in, &out); err != nil {
		return nil, err
	}
	if out.InterviewScore < 1 || out.InterviewScore > 10 {
		return nil, invalidOutput(r.name, "interview score %d outside [1, 10]", out.InterviewScore)
	}
	for _, f := range out.IntegrityFlags {
		if f.CertaintyPercentage < 0 || f.CertaintyPercentage > 100 {
			return nil, invalidOutput(r.name, "integrity flag certainty %v outside [0, 100]", f.CertaintyPercentage)
		}
	}
	if out.Gaps == nil {
		out.Gaps = []string{}
	}
	if out.MeetingExpectations == nil {
		out.MeetingExpectations = []string{}
	}
	if out.IntegrityFlags == nil {
		out.IntegrityFlags = []model.IntegrityFlag{}
	}
	return &out, nil
}
