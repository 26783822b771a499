package model

import "fmt"

// Contracts shared by the interview core and the LLM-backed collaborators.

type MessageClassification struct {
	Type       MessageKind `json:"type"`
	Confidence float64     `json:"confidence"`
}

type AnswerEvaluation struct {
	Score        int    `json:"score"`
	Rationale    string `json:"rationale"`
	Evidence     string `json:"evidence"`
	FollowupHint string `json:"followup_hint,omitempty"`
}

type IntegrityInput struct {
	Question        string
	Answer          string
	ResponseTimeMs  int
	PasteDetected   bool
	PreviousAnswers []string
}

type IntegrityAssessment struct {
	CheatCertainty float64  `json:"cheat_certainty"`
	Indicators     []string `json:"indicators"`
}

type QuestionRequest struct {
	FocusAreas      []string
	DifficultyLevel int
	History         string
	QuestionsAsked  int
}

type QuestionScore struct {
	QuestionNumber int `json:"question_number"`
	Score          int `json:"score"`
}

type TelemetrySummary struct {
	TotalMessages int `json:"total_messages"`
	PasteEvents   int `json:"paste_events"`
}

func (t TelemetrySummary) String() string {
	return fmt.Sprintf("Total messages: %d, Paste events: %d", t.TotalMessages, t.PasteEvents)
}

type ReportInput struct {
	MatchAnalysis  MatchAnalysis
	Transcript     string
	QuestionScores []QuestionScore
	Telemetry      TelemetrySummary
}
