package interview_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddiaz-itx/ai-interviewer/internal/interview"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

var allStatuses = []model.Status{
	model.StatusDraft, model.StatusReady, model.StatusAssigned, model.StatusInProgress, model.StatusCompleted,
}

func TestCanTransitionOnlyForward(t *testing.T) {
	edges := map[[2]model.Status]bool{
		{model.StatusDraft, model.StatusReady}:          true,
		{model.StatusReady, model.StatusAssigned}:       true,
		{model.StatusAssigned, model.StatusInProgress}:  true,
		{model.StatusInProgress, model.StatusCompleted}: true,
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			assert.Equal(t, edges[[2]model.Status{from, to}], interview.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalAndNextStates(t *testing.T) {
	assert.True(t, interview.IsTerminal(model.StatusCompleted))
	assert.False(t, interview.IsTerminal(model.StatusDraft))
	assert.Empty(t, interview.NextStates(model.StatusCompleted))
	assert.Equal(t, []model.Status{model.StatusAssigned}, interview.NextStates(model.StatusReady))
}

func TestTransitionInvalid(t *testing.T) {
	iv := &model.Interview{Status: model.StatusDraft}

	err := interview.Transition(iv, model.StatusCompleted)
	var ste *interview.StateTransitionError
	require.True(t, errors.As(err, &ste))
	assert.Equal(t, interview.InvalidStateTransition, ste.Kind)
	assert.Equal(t, []model.Status{model.StatusReady}, ste.Allowed)
	assert.Contains(t, err.Error(), "invalid transition from DRAFT to COMPLETED")
	assert.Equal(t, model.StatusDraft, iv.Status)
}

func TestTransitionPreconditions(t *testing.T) {
	tok := "t"
	tests := []struct {
		name   string
		iv     *model.Interview
		target model.Status
		fix    func(iv *model.Interview)
	}{
		{"ready needs analysis", &model.Interview{Status: model.StatusDraft}, model.StatusReady,
			func(iv *model.Interview) { iv.MatchAnalysis = &model.MatchAnalysis{MatchScore: 5} }},
		{"assigned needs token", &model.Interview{Status: model.StatusReady}, model.StatusAssigned,
			func(iv *model.Interview) { iv.CandidateLinkToken = &tok }},
		{"completed needs report", &model.Interview{Status: model.StatusInProgress}, model.StatusCompleted,
			func(iv *model.Interview) { iv.Report = &model.FinalReport{InterviewScore: 5} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from := tt.iv.Status
			err := interview.Transition(tt.iv, tt.target)
			var ste *interview.StateTransitionError
			require.True(t, errors.As(err, &ste))
			assert.Equal(t, interview.PreconditionNotMet, ste.Kind)
			assert.NotEmpty(t, ste.Reason)
			assert.Equal(t, from, tt.iv.Status)

			tt.fix(tt.iv)
			require.NoError(t, interview.Transition(tt.iv, tt.target))
			assert.Equal(t, tt.target, tt.iv.Status)
		})
	}
}

func TestStartHasNoPrecondition(t *testing.T) {
	iv := &model.Interview{Status: model.StatusAssigned}
	require.NoError(t, interview.ValidateTransition(iv, model.StatusInProgress))
	assert.Equal(t, model.StatusAssigned, iv.Status)
}
