package interview_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ddiaz-itx/ai-interviewer/internal/interview"
	"github.com/ddiaz-itx/ai-interviewer/internal/repository"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

// fakeCollab implements every collaborator interface with scripted answers.
type fakeCollab struct {
	mu sync.Mutex

	kind       model.MessageKind
	confidence float64
	score      int
	certainty  float64
	flags      []model.IntegrityFlag

	classifyErr error
	evalErr     error
	questionErr error
	analyzeErr  error
	questionLag time.Duration

	integrityCalls int
	questionCalls  int
	evalCalls      int
	lastQuestion   model.QuestionRequest
	lastIntegrity  model.IntegrityInput
}

func newFakeCollab() *fakeCollab {
	return &fakeCollab{kind: model.KindAnswer, confidence: 0.9, score: 7, certainty: 40}
}

func (f *fakeCollab) collaborators() interview.Collaborators {
	return interview.Collaborators{
		Classifier:   f,
		Evaluator:    f,
		Integrity:    f,
		Questions:    f,
		Reports:      f,
		Documents:    f,
		Introduction: f,
	}
}

func (f *fakeCollab) Classify(_ context.Context, _, _ string) (*model.MessageClassification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.classifyErr != nil {
		return nil, f.classifyErr
	}
	return &model.MessageClassification{Type: f.kind, Confidence: f.confidence}, nil
}

func (f *fakeCollab) Evaluate(_ context.Context, _, _ string) (*model.AnswerEvaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evalCalls++
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	return &model.AnswerEvaluation{Score: f.score, Rationale: "ok"}, nil
}

func (f *fakeCollab) Assess(_ context.Context, in model.IntegrityInput) (*model.IntegrityAssessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.integrityCalls++
	f.lastIntegrity = in
	return &model.IntegrityAssessment{CheatCertainty: f.certainty, Indicators: []string{"fast"}}, nil
}

func (f *fakeCollab) Generate(ctx context.Context, in model.QuestionRequest) (string, error) {
	f.mu.Lock()
	f.questionCalls++
	f.lastQuestion = in
	n, lag, err := f.questionCalls, f.questionLag, f.questionErr
	f.mu.Unlock()

	if lag > 0 {
		select {
		case <-time.After(lag):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Question %d?", n), nil
}

func (f *fakeCollab) Synthesize(_ context.Context, in model.ReportInput) (*model.FinalReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.FinalReport{
		InterviewScore:      len(in.QuestionScores) + 5,
		Summary:             "solid",
		Gaps:                []string{},
		MeetingExpectations: []string{"go"},
		IntegrityFlags:      append([]model.IntegrityFlag(nil), f.flags...),
	}, nil
}

func (f *fakeCollab) Analyze(_ context.Context, _, _, _ string) (*model.MatchAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &model.MatchAnalysis{MatchScore: 8, MatchSummary: "good", FocusAreas: []string{"Go", "SQL"}}, nil
}

func (f *fakeCollab) Introduce(_ context.Context, _ string, target int) (string, error) {
	return fmt.Sprintf("Welcome! We will cover %d questions.", target), nil
}

func (f *fakeCollab) set(fn func(f *fakeCollab)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc   *interview.Service
	store *repository.MemoryStore
	fake  *fakeCollab
	clock *clock
	opts  interview.Options
}

var docs = model.Documents{Resume: "resume", Role: "Backend engineer", JobOffering: "remote"}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: repository.NewMemoryStore(),
		fake:  newFakeCollab(),
		clock: &clock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)},
	}
	tokens := 0
	f.opts = interview.Options{
		Now: f.clock.Now,
		NewToken: func() (string, error) {
			tokens++
			return fmt.Sprintf("tok-%d", tokens), nil
		},
	}
	f.svc = interview.NewService(f.store, f.store, interview.NewLocalLocker(), f.fake.collaborators(), f.opts)
	return f
}

// started creates an interview with the given target and walks it to
// IN_PROGRESS, returning its id and candidate token.
func (f *fixture) started(t *testing.T, target int) (int64, string) {
	t.Helper()
	ctx := context.Background()

	iv, err := f.svc.Create(ctx, model.CreateInterviewReq{TargetQuestions: &target})
	require.NoError(t, err)
	_, err = f.svc.AnalyzeDocuments(ctx, iv.InterviewID, docs)
	require.NoError(t, err)
	assigned, err := f.svc.Assign(ctx, iv.InterviewID)
	require.NoError(t, err)
	token := *assigned.CandidateLinkToken
	_, err = f.svc.Start(ctx, token)
	require.NoError(t, err)
	return iv.InterviewID, token
}

func (f *fixture) messages(t *testing.T, id int64) []model.Message {
	t.Helper()
	msgs, err := f.store.ListMessages(context.Background(), id)
	require.NoError(t, err)
	return msgs
}

func answer(content string, responseMs int, paste bool) model.CandidateMessageReq {
	return model.CandidateMessageReq{
		Content:   content,
		Telemetry: model.Telemetry{ResponseTimeMs: responseMs, PasteDetected: paste},
	}
}
