package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

func TestNewManagerLoadsAllTemplates(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		Classification, Evaluation, Integrity, Question, Report, DocumentAnalysis, Introduction,
	}, m.Names())
}

func TestRenderClassification(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	r, err := m.Render(Classification, map[string]any{
		"Question": "What is a goroutine?",
		"Message":  "Can you rephrase that?",
	})
	require.NoError(t, err)
	assert.Equal(t, "You are analyzing interview messages.", r.System)
	assert.Contains(t, r.Prompt, "What is a goroutine?")
	assert.Contains(t, r.Prompt, "Can you rephrase that?")
	assert.Zero(t, r.Temperature)
	assert.True(t, r.JSON)
}

func TestRenderIntegrityPreviousAnswers(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	r, err := m.Render(Integrity, map[string]any{
		"Question":        "Explain channels.",
		"Answer":          "Channels are typed conduits.",
		"ResponseTimeMs":  1200,
		"PasteDetected":   true,
		"PreviousAnswers": []string{"first", "second"},
	})
	require.NoError(t, err)
	assert.Contains(t, r.Prompt, "Answer 1: first")
	assert.Contains(t, r.Prompt, "Answer 2: second")
	assert.Contains(t, r.Prompt, "Paste detected: true")

	r, err = m.Render(Integrity, map[string]any{
		"Question":        "Explain channels.",
		"Answer":          "Channels are typed conduits.",
		"ResponseTimeMs":  1200,
		"PasteDetected":   false,
		"PreviousAnswers": []string(nil),
	})
	require.NoError(t, err)
	assert.Contains(t, r.Prompt, "No previous answers yet")
}

func TestRenderQuestionAndReport(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	r, err := m.Render(Question, model.QuestionRequest{
		FocusAreas:      []string{"Go", "SQL"},
		DifficultyLevel: 6,
	})
	require.NoError(t, err)
	assert.Contains(t, r.Prompt, "Focus areas: Go, SQL")
	assert.Contains(t, r.Prompt, "No previous questions yet.")
	assert.InDelta(t, 0.7, r.Temperature, 1e-6)
	assert.False(t, r.JSON)

	r, err = m.Render(Report, model.ReportInput{
		MatchAnalysis:  model.MatchAnalysis{MatchScore: 7, MatchSummary: "solid", FocusAreas: []string{"Go"}},
		Transcript:     "ASSISTANT: q\n\nCANDIDATE: a",
		QuestionScores: []model.QuestionScore{{QuestionNumber: 1, Score: 8}},
		Telemetry:      model.TelemetrySummary{TotalMessages: 3, PasteEvents: 1},
	})
	require.NoError(t, err)
	assert.Contains(t, r.Prompt, "Match Score: 7/10")
	assert.Contains(t, r.Prompt, "Q1: Score 8/10")
	assert.Contains(t, r.Prompt, "Total messages: 3, Paste events: 1")
}

func TestRenderUnknownTemplate(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)
	_, err = m.Render("nope", nil)
	require.Error(t, err)
}
