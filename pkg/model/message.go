package model

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleAssistant Role = "assistant"
	RoleCandidate Role = "candidate"
)

type Telemetry struct {
	ResponseTimeMs int  `json:"response_time_ms"`
	PasteDetected  bool `json:"paste_detected"`
}

type Message struct {
	MessageID          int64      `json:"message_id" db:"message_id"`
	InterviewID        int64      `json:"interview_id" db:"interview_id"`
	Role               Role       `json:"role" db:"role"`
	Content            string     `json:"content" db:"content"`
	CreatedAt          time.Time  `json:"timestamp" db:"created_at"`
	QuestionNumber     *int       `json:"question_number,omitempty" db:"question_number"`
	DifficultyLevel    *float64   `json:"difficulty_level,omitempty" db:"difficulty_level"`
	AnswerQualityScore *int       `json:"answer_quality_score,omitempty" db:"answer_quality_score"`
	CheatCertainty     *float64   `json:"cheat_certainty,omitempty" db:"cheat_certainty"`
	Telemetry          *Telemetry `json:"telemetry,omitempty" db:"telemetry"`
}

// IsQuestion reports whether the message poses a numbered interview question.
func (m *Message) IsQuestion() bool {
	return m.Role == RoleAssistant && m.QuestionNumber != nil
}

// CandidateView returns a copy without the scoring and integrity fields
// reserved for admins.
func (m Message) CandidateView() Message {
	m.DifficultyLevel = nil
	m.AnswerQualityScore = nil
	m.CheatCertainty = nil
	return m
}

// Line renders the message as a role-prefixed transcript line.
func (m *Message) Line() string {
	return fmt.Sprintf("%s: %s", m.Role, m.Content)
}

type CandidateMessageReq struct {
	Content   string    `json:"content" binding:"required,min=1,max=5000"`
	Telemetry Telemetry `json:"telemetry"`
}

type MessageKind string

const (
	KindAnswer        MessageKind = "Answer"
	KindClarification MessageKind = "Clarification"
	KindOffTopic      MessageKind = "OffTopic"
)

func (k MessageKind) Valid() bool {
	switch k {
	case KindAnswer, KindClarification, KindOffTopic:
		return true
	}
	return false
}

// TurnResult is the outcome of processing one candidate message.
type TurnResult struct {
	Response           string            `json:"response"`
	Classification     string            `json:"classification"`
	Confidence         float64           `json:"confidence"`
	InterviewComplete  bool              `json:"interview_complete"`
	Evaluation         *AnswerEvaluation `json:"evaluation,omitempty"`
	NextQuestionNumber *int              `json:"next_question_number,omitempty"`
}
