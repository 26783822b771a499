package model

import (
	"time"
)

type Status string

const (
	StatusDraft      Status = "DRAFT"       // created, documents pending
	StatusReady      Status = "READY"       // match analysis complete
	StatusAssigned   Status = "ASSIGNED"    // candidate link generated
	StatusInProgress Status = "IN_PROGRESS" // candidate session active
	StatusCompleted  Status = "COMPLETED"   // report generated
)

func (s Status) String() string {
	return string(s)
}

// Valid reports whether s is one of the five lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReady, StatusAssigned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

const (
	DefaultTargetQuestions = 8
	DefaultDifficultyLevel = 5
	MinDifficultyLevel     = 3
	MaxDifficultyLevel     = 10
	MaxTargetQuestions     = 20
)

type MatchAnalysis struct {
	MatchScore   int      `json:"match_score"`
	MatchSummary string   `json:"match_summary"`
	FocusAreas   []string `json:"focus_areas"`
}

type IntegrityFlag struct {
	MessageReference    string   `json:"message_reference"`
	QuestionNumber      *int     `json:"question_number,omitempty"`
	CertaintyPercentage float64  `json:"certainty_percentage"`
	Indicators          []string `json:"indicators"`
	QuestionText        string   `json:"question_text"`
	AnswerExcerpt       string   `json:"answer_excerpt"`
}

type FinalReport struct {
	InterviewScore      int             `json:"interview_score"`
	Summary             string          `json:"summary"`
	Gaps                []string        `json:"gaps"`
	MeetingExpectations []string        `json:"meeting_expectations"`
	IntegrityFlags      []IntegrityFlag `json:"integrity_flags"`
}

// Documents holds the extracted text of the three source documents.
// The repository encrypts these fields at rest.
type Documents struct {
	Resume      string `json:"-"`
	Role        string `json:"-"`
	JobOffering string `json:"-"`
}

func (d *Documents) Empty() bool {
	return d == nil || (d.Resume == "" && d.Role == "" && d.JobOffering == "")
}

type Interview struct {
	InterviewID        int64          `json:"interview_id" db:"interview_id"`
	Status             Status         `json:"status" db:"status"`
	TargetQuestions    int            `json:"target_questions" db:"target_questions"`
	DifficultyLevel    int            `json:"difficulty_level" db:"difficulty_level"`
	MatchAnalysis      *MatchAnalysis `json:"match_analysis,omitempty" db:"match_analysis"`
	CandidateLinkToken *string        `json:"candidate_link_token,omitempty" db:"candidate_link_token"`
	TokenExpiresAt     *time.Time     `json:"token_expires_at,omitempty" db:"token_expires_at"`
	Report             *FinalReport   `json:"report,omitempty" db:"report"`
	Documents          Documents      `json:"-" db:"-"`
	Version            int64          `json:"-" db:"version"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy so callers can stage mutations without touching
// the stored snapshot.
func (iv *Interview) Clone() *Interview {
	if iv == nil {
		return nil
	}
	out := *iv
	if iv.MatchAnalysis != nil {
		ma := *iv.MatchAnalysis
		ma.FocusAreas = append([]string(nil), iv.MatchAnalysis.FocusAreas...)
		out.MatchAnalysis = &ma
	}
	if iv.CandidateLinkToken != nil {
		tok := *iv.CandidateLinkToken
		out.CandidateLinkToken = &tok
	}
	if iv.TokenExpiresAt != nil {
		exp := *iv.TokenExpiresAt
		out.TokenExpiresAt = &exp
	}
	if iv.Report != nil {
		r := *iv.Report
		r.Gaps = append([]string(nil), iv.Report.Gaps...)
		r.MeetingExpectations = append([]string(nil), iv.Report.MeetingExpectations...)
		r.IntegrityFlags = append([]IntegrityFlag(nil), iv.Report.IntegrityFlags...)
		out.Report = &r
	}
	return &out
}

// TokenExpired reports whether the candidate link has passed its validity window.
func (iv *Interview) TokenExpired(now time.Time) bool {
	return iv.TokenExpiresAt != nil && !now.Before(*iv.TokenExpiresAt)
}

type CreateInterviewReq struct {
	TargetQuestions *int `json:"target_questions" binding:"omitempty,min=1,max=20"`
	DifficultyLevel *int `json:"difficulty_level" binding:"omitempty,min=3,max=10"`
}

type ListInterviewQuery struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=20"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps the page to at least 1 and the page size to 1..MaxPageSize.
func (q *ListInterviewQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
}

type InterviewListItem struct {
	InterviewID     int64     `json:"interview_id"`
	Status          Status    `json:"status"`
	TargetQuestions int       `json:"target_questions"`
	MatchScore      *int      `json:"match_score"`
	InterviewScore  *int      `json:"interview_score"`
	CreatedAt       time.Time `json:"created_at"`
}

func (iv *Interview) ListItem() InterviewListItem {
	item := InterviewListItem{
		InterviewID:     iv.InterviewID,
		Status:          iv.Status,
		TargetQuestions: iv.TargetQuestions,
		CreatedAt:       iv.CreatedAt,
	}
	if iv.MatchAnalysis != nil {
		score := iv.MatchAnalysis.MatchScore
		item.MatchScore = &score
	}
	if iv.Report != nil {
		score := iv.Report.InterviewScore
		item.InterviewScore = &score
	}
	return item
}

type AnalyzeDocumentsReq struct {
	ResumeText      string `json:"resume_text"`
	RoleText        string `json:"role_text"`
	JobOfferingText string `json:"job_offering_text"`
	RoleURL         string `json:"role_url"`
	JobOfferingURL  string `json:"job_offering_url"`
}

type StartInterviewRes struct {
	InterviewID     int64  `json:"interview_id"`
	Introduction    string `json:"introduction"`
	FirstQuestion   string `json:"first_question"`
	TargetQuestions int    `json:"target_questions"`
}
