package interview

import (
	"context"

	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

// Classifier decides whether a candidate message answers the current question.
type Classifier interface {
	Classify(ctx context.Context, question, message string) (*model.MessageClassification, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string) (*model.AnswerEvaluation, error)
}

type IntegrityAssessor interface {
	Assess(ctx context.Context, in model.IntegrityInput) (*model.IntegrityAssessment, error)
}

type QuestionGenerator interface {
	Generate(ctx context.Context, in model.QuestionRequest) (string, error)
}

type ReportSynthesizer interface {
	Synthesize(ctx context.Context, in model.ReportInput) (*model.FinalReport, error)
}

type DocumentAnalyzer interface {
	Analyze(ctx context.Context, resume, role, jobOffering string) (*model.MatchAnalysis, error)
}

type IntroductionWriter interface {
	Introduce(ctx context.Context, roleDescription string, targetQuestions int) (string, error)
}

// Collaborators bundles every remote capability the core depends on.
type Collaborators struct {
	Classifier   Classifier
	Evaluator    Evaluator
	Integrity    IntegrityAssessor
	Questions    QuestionGenerator
	Reports      ReportSynthesizer
	Documents    DocumentAnalyzer
	Introduction IntroductionWriter
}

// Store persists sessions and their append-only message log.
//
// Save writes the session row and appends msgs in one transaction. It fails
// with ErrConflict when iv.Version no longer matches the stored version and
// bumps iv.Version on success. Messages are assigned ids and timestamps in
// the order given.
type Store interface {
	CreateInterview(ctx context.Context, iv *model.Interview) error
	GetInterview(ctx context.Context, interviewID int64) (*model.Interview, error)
	GetInterviewByToken(ctx context.Context, token string) (*model.Interview, error)
	ListInterviews(ctx context.Context, limit, offset int) ([]model.Interview, int, error)
	DeleteInterview(ctx context.Context, interviewID int64) error
	ListMessages(ctx context.Context, interviewID int64) ([]model.Message, error)
	Save(ctx context.Context, iv *model.Interview, msgs ...*model.Message) error
}

// UsageStore exposes the LLM cost ledger.
type UsageStore interface {
	CostBreakdown(ctx context.Context, interviewID int64) (*model.CostBreakdown, error)
	CostStats(ctx context.Context) (*model.CostStats, error)
}

// Locker serializes work per key. The returned unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
