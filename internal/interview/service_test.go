package interview_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddiaz-itx/ai-interviewer/internal/interview"
	"github.com/ddiaz-itx/ai-interviewer/internal/repository"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

func intp(i int) *int { return &i }

func requireTransitionError(t *testing.T, err error, kind interview.TransitionErrorKind) {
	t.Helper()
	var ste *interview.StateTransitionError
	require.True(t, errors.As(err, &ste), "want StateTransitionError, got %v", err)
	assert.Equal(t, kind, ste.Kind)
}

func TestCreateDefaultsAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	iv, err := f.svc.Create(ctx, model.CreateInterviewReq{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, iv.Status)
	assert.Equal(t, model.DefaultTargetQuestions, iv.TargetQuestions)
	assert.Equal(t, model.DefaultDifficultyLevel, iv.DifficultyLevel)

	iv, err = f.svc.Create(ctx, model.CreateInterviewReq{TargetQuestions: intp(3), DifficultyLevel: intp(9)})
	require.NoError(t, err)
	assert.Equal(t, 3, iv.TargetQuestions)
	assert.Equal(t, 9, iv.DifficultyLevel)

	_, err = f.svc.Create(ctx, model.CreateInterviewReq{TargetQuestions: intp(21)})
	require.ErrorIs(t, err, interview.ErrInvalidInput)
	_, err = f.svc.Create(ctx, model.CreateInterviewReq{DifficultyLevel: intp(2)})
	require.ErrorIs(t, err, interview.ErrInvalidInput)
}

func TestFullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fake.set(func(c *fakeCollab) {
		c.flags = []model.IntegrityFlag{{MessageReference: "Q2", CertaintyPercentage: 80, Indicators: []string{"paste"}}}
	})

	iv, err := f.svc.Create(ctx, model.CreateInterviewReq{TargetQuestions: intp(2)})
	require.NoError(t, err)

	iv, err = f.svc.AnalyzeDocuments(ctx, iv.InterviewID, docs)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, iv.Status)
	assert.Equal(t, 8, iv.MatchAnalysis.MatchScore)
	assert.Equal(t, "Backend engineer", iv.Documents.Role)

	iv, err = f.svc.Assign(ctx, iv.InterviewID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, iv.Status)
	require.NotNil(t, iv.CandidateLinkToken)
	assert.Equal(t, f.clock.Now().Add(interview.DefaultLinkTTL), *iv.TokenExpiresAt)
	token := *iv.CandidateLinkToken

	start, err := f.svc.Start(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, iv.InterviewID, start.InterviewID)
	assert.Equal(t, "Welcome! We will cover 2 questions.", start.Introduction)
	assert.Equal(t, "Question 1?", start.FirstQuestion)

	msgs, err := f.svc.CandidateMessages(ctx, token)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Nil(t, msgs[0].QuestionNumber)
	assert.Equal(t, 1, *msgs[1].QuestionNumber)

	_, err = f.svc.Complete(ctx, iv.InterviewID)
	require.ErrorIs(t, err, interview.ErrInterviewIncomplete)

	_, err = f.svc.SendMessage(ctx, token, answer("first answer", 9000, false))
	require.NoError(t, err)
	res, err := f.svc.SendMessage(ctx, token, answer("second answer", 1000, true))
	require.NoError(t, err)
	require.True(t, res.InterviewComplete)

	view, err := f.svc.CandidateMessages(ctx, token)
	require.NoError(t, err)
	full, err := f.svc.Messages(ctx, iv.InterviewID)
	require.NoError(t, err)
	require.Len(t, view, len(full))
	require.NotNil(t, full[2].AnswerQualityScore)
	for i := range view {
		assert.Equal(t, full[i].Content, view[i].Content)
		assert.Nil(t, view[i].AnswerQualityScore)
		assert.Nil(t, view[i].CheatCertainty)
		assert.Nil(t, view[i].DifficultyLevel)
	}

	done, err := f.svc.Complete(ctx, iv.InterviewID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
	require.NotNil(t, done.Report)
	assert.Equal(t, 7, done.Report.InterviewScore)
	require.Len(t, done.Report.IntegrityFlags, 1)
	flag := done.Report.IntegrityFlags[0]
	assert.Equal(t, 2, *flag.QuestionNumber)
	assert.Equal(t, "Question 2?", flag.QuestionText)
	assert.Equal(t, "second answer", flag.AnswerExcerpt)

	_, err = f.svc.SendMessage(ctx, token, answer("late", 9000, false))
	require.ErrorIs(t, err, interview.ErrInvalidSessionState)

	_, err = f.svc.Complete(ctx, iv.InterviewID)
	requireTransitionError(t, err, interview.InvalidStateTransition)
}

func TestOutOfOrderOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	iv, err := f.svc.Create(ctx, model.CreateInterviewReq{})
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, iv.InterviewID)
	requireTransitionError(t, err, interview.InvalidStateTransition)
	_, err = f.svc.Complete(ctx, iv.InterviewID)
	requireTransitionError(t, err, interview.InvalidStateTransition)

	_, err = f.svc.AnalyzeDocuments(ctx, iv.InterviewID, docs)
	require.NoError(t, err)
	_, err = f.svc.AnalyzeDocuments(ctx, iv.InterviewID, docs)
	requireTransitionError(t, err, interview.InvalidStateTransition)

	got, err := f.svc.Get(ctx, iv.InterviewID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, got.Status)
}

func TestStartTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	id, token := f.started(t, 3)

	_, err := f.svc.Start(context.Background(), token)
	requireTransitionError(t, err, interview.InvalidStateTransition)
	assert.Len(t, f.messages(t, id), 2)
}

func TestAnalyzeFailureLeavesDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	iv, err := f.svc.Create(ctx, model.CreateInterviewReq{})
	require.NoError(t, err)

	f.fake.set(func(c *fakeCollab) { c.analyzeErr = errors.New("bad gateway") })
	_, err = f.svc.AnalyzeDocuments(ctx, iv.InterviewID, docs)
	require.ErrorIs(t, err, interview.ErrRemoteCall)

	got, err := f.svc.Get(ctx, iv.InterviewID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, got.Status)
	assert.Nil(t, got.MatchAnalysis)
}

func TestCandidateTokenChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, token := f.started(t, 3)

	_, err := f.svc.SendMessage(ctx, "", answer("x", 9000, false))
	require.ErrorIs(t, err, interview.ErrInvalidToken)
	_, err = f.svc.CandidateMessages(ctx, "unknown")
	require.ErrorIs(t, err, interview.ErrInvalidToken)

	f.clock.Advance(interview.DefaultLinkTTL)
	_, err = f.svc.SendMessage(ctx, token, answer("x", 9000, false))
	require.ErrorIs(t, err, interview.ErrExpiredToken)
	_, err = f.svc.CandidateMessages(ctx, token)
	require.ErrorIs(t, err, interview.ErrExpiredToken)
}

func TestStartWithExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	iv, err := f.svc.Create(ctx, model.CreateInterviewReq{})
	require.NoError(t, err)
	_, err = f.svc.AnalyzeDocuments(ctx, iv.InterviewID, docs)
	require.NoError(t, err)
	assigned, err := f.svc.Assign(ctx, iv.InterviewID)
	require.NoError(t, err)

	f.clock.Advance(interview.DefaultLinkTTL + time.Minute)
	_, err = f.svc.Start(ctx, *assigned.CandidateLinkToken)
	require.ErrorIs(t, err, interview.ErrExpiredToken)

	got, err := f.svc.Get(ctx, iv.InterviewID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, got.Status)
}

func TestAssignRetriesDuplicateToken(t *testing.T) {
	store := repository.NewMemoryStore()
	fake := newFakeCollab()
	tokens := []string{"same", "same", "fresh"}
	svc := interview.NewService(store, store, interview.NewLocalLocker(), fake.collaborators(), interview.Options{
		NewToken: func() (string, error) {
			tok := tokens[0]
			tokens = tokens[1:]
			return tok, nil
		},
	})
	ctx := context.Background()

	ids := make([]int64, 2)
	for i := range ids {
		iv, err := svc.Create(ctx, model.CreateInterviewReq{})
		require.NoError(t, err)
		_, err = svc.AnalyzeDocuments(ctx, iv.InterviewID, docs)
		require.NoError(t, err)
		ids[i] = iv.InterviewID
	}

	a, err := svc.Assign(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "same", *a.CandidateLinkToken)

	b, err := svc.Assign(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, "fresh", *b.CandidateLinkToken)
}

func TestListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, _ := f.started(t, 3)
	for i := 0; i < 2; i++ {
		_, err := f.svc.Create(ctx, model.CreateInterviewReq{})
		require.NoError(t, err)
	}

	items, total, err := f.svc.List(ctx, model.ListInterviewQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 2)

	items, _, err = f.svc.List(ctx, model.ListInterviewQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].InterviewID)
	require.NotNil(t, items[0].MatchScore)
	assert.Equal(t, 8, *items[0].MatchScore)

	require.NoError(t, f.svc.Delete(ctx, id))
	_, err = f.svc.Get(ctx, id)
	require.ErrorIs(t, err, interview.ErrNotFound)
	_, err = f.svc.Messages(ctx, id)
	require.ErrorIs(t, err, interview.ErrNotFound)
	require.ErrorIs(t, f.svc.Delete(ctx, id), interview.ErrNotFound)
}

func TestCostsAndCacheStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, _ := f.started(t, 3)

	require.NoError(t, f.store.RecordUsage(ctx, &model.LLMUsage{InterviewID: &id, AgentName: "introduction", TotalTokens: 12, EstimatedCost: 0.001}))

	costs, err := f.svc.Costs(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 12, costs.TotalTokens)
	assert.Equal(t, 1, costs.ByAgent["introduction"].Calls)

	_, err = f.svc.Costs(ctx, 999)
	require.ErrorIs(t, err, interview.ErrNotFound)

	stats, err := f.svc.CostStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCalls)

	cache, err := f.svc.CacheStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, cache.Size)
}

func TestNewLinkToken(t *testing.T) {
	a, err := interview.NewLinkToken()
	require.NoError(t, err)
	b, err := interview.NewLinkToken()
	require.NoError(t, err)
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}
