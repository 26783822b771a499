package interview

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ddiaz-itx/ai-interviewer/internal/llm"
	"github.com/ddiaz-itx/ai-interviewer/internal/metrics"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

const (
	DefaultLinkTTL     = 48 * time.Hour
	DefaultCallTimeout = 60 * time.Second

	tokenBytes       = 32
	maxTokenAttempts = 3
)

// CacheInspector reports LLM response cache statistics.
type CacheInspector interface {
	Stats(ctx context.Context) (*model.CacheStats, error)
}

type Options struct {
	Logger      *zap.Logger
	LinkTTL     time.Duration
	CallTimeout time.Duration
	Cache       CacheInspector
	Now         func() time.Time
	NewToken    func() (string, error)
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.LinkTTL <= 0 {
		o.LinkTTL = DefaultLinkTTL
	}
	if o.CallTimeout == 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewToken == nil {
		o.NewToken = NewLinkToken
	}
	return o
}

// NewLinkToken returns a URL-safe random token carrying 32 bytes of entropy.
func NewLinkToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Service drives interviews through their lifecycle. Every mutating call
// holds the interview's lock and persists through Store.Save only after all
// collaborator calls have succeeded.
type Service struct {
	store    Store
	usage    UsageStore
	locker   Locker
	collab   Collaborators
	pipeline *Pipeline
	opts     Options
}

func NewService(store Store, usage UsageStore, locker Locker, collab Collaborators, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		store:    store,
		usage:    usage,
		locker:   locker,
		collab:   collab,
		pipeline: NewPipeline(store, locker, collab, opts),
		opts:     opts,
	}
}

func (s *Service) log() *zap.SugaredLogger {
	return s.opts.Logger.Sugar()
}

func (s *Service) Create(ctx context.Context, req model.CreateInterviewReq) (*model.Interview, error) {
	iv := &model.Interview{
		Status:          model.StatusDraft,
		TargetQuestions: model.DefaultTargetQuestions,
		DifficultyLevel: model.DefaultDifficultyLevel,
	}
	if req.TargetQuestions != nil {
		iv.TargetQuestions = *req.TargetQuestions
	}
	if req.DifficultyLevel != nil {
		iv.DifficultyLevel = *req.DifficultyLevel
	}
	if iv.TargetQuestions < 1 || iv.TargetQuestions > model.MaxTargetQuestions {
		return nil, fmt.Errorf("%w: target_questions must be between 1 and %d", ErrInvalidInput, model.MaxTargetQuestions)
	}
	if iv.DifficultyLevel < model.MinDifficultyLevel || iv.DifficultyLevel > model.MaxDifficultyLevel {
		return nil, fmt.Errorf("%w: difficulty_level must be between %d and %d", ErrInvalidInput, model.MinDifficultyLevel, model.MaxDifficultyLevel)
	}

	if err := s.store.CreateInterview(ctx, iv); err != nil {
		return nil, fmt.Errorf("create interview: %w", err)
	}
	s.log().Infow("interview created", "interview_id", iv.InterviewID, "target_questions", iv.TargetQuestions)
	return iv, nil
}

func (s *Service) Get(ctx context.Context, interviewID int64) (*model.Interview, error) {
	return s.store.GetInterview(ctx, interviewID)
}

func (s *Service) List(ctx context.Context, q model.ListInterviewQuery) ([]model.InterviewListItem, int, error) {
	q.Normalize()

	ivs, total, err := s.store.ListInterviews(ctx, q.PageSize, (q.Page-1)*q.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list interviews: %w", err)
	}
	items := make([]model.InterviewListItem, 0, len(ivs))
	for i := range ivs {
		items = append(items, ivs[i].ListItem())
	}
	return items, total, nil
}

func (s *Service) Delete(ctx context.Context, interviewID int64) error {
	unlock, err := s.locker.Lock(ctx, lockKey(interviewID))
	if err != nil {
		return fmt.Errorf("lock interview: %w", err)
	}
	defer unlock()

	if err := s.store.DeleteInterview(ctx, interviewID); err != nil {
		return err
	}
	s.log().Infow("interview deleted", "interview_id", interviewID)
	return nil
}

// AnalyzeDocuments runs match analysis over the three documents and moves
// the interview to READY.
func (s *Service) AnalyzeDocuments(ctx context.Context, interviewID int64, docs model.Documents) (*model.Interview, error) {
	return s.mutate(ctx, interviewID, model.StatusReady, func(ctx context.Context, iv *model.Interview) ([]*model.Message, error) {
		var analysis *model.MatchAnalysis
		err := callRemote(llm.WithInterviewID(ctx, iv.InterviewID), s.opts.CallTimeout, "analyze documents", func(ctx context.Context) error {
			var err error
			analysis, err = s.collab.Documents.Analyze(ctx, docs.Resume, docs.Role, docs.JobOffering)
			return err
		})
		if err != nil {
			return nil, err
		}
		iv.Documents = docs
		iv.MatchAnalysis = analysis
		return nil, nil
	})
}

// Assign generates the candidate link and moves the interview to ASSIGNED.
func (s *Service) Assign(ctx context.Context, interviewID int64) (*model.Interview, error) {
	var out *model.Interview
	var err error
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		out, err = s.mutate(ctx, interviewID, model.StatusAssigned, func(_ context.Context, iv *model.Interview) ([]*model.Message, error) {
			token, err := s.opts.NewToken()
			if err != nil {
				return nil, fmt.Errorf("generate link token: %w", err)
			}
			expires := s.opts.Now().Add(s.opts.LinkTTL)
			iv.CandidateLinkToken = &token
			iv.TokenExpiresAt = &expires
			return nil, nil
		})
		if !errors.Is(err, ErrDuplicateToken) {
			break
		}
		s.log().Warnw("link token collision, regenerating", "interview_id", interviewID, "attempt", attempt)
	}
	return out, err
}

// Start opens the candidate session: it writes the introduction and the
// first question and moves the interview to IN_PROGRESS.
func (s *Service) Start(ctx context.Context, token string) (*model.StartInterviewRes, error) {
	resolved, err := s.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	res := &model.StartInterviewRes{}
	_, err = s.mutate(ctx, resolved.InterviewID, model.StatusInProgress, func(ctx context.Context, iv *model.Interview) ([]*model.Message, error) {
		ctx = llm.WithInterviewID(ctx, iv.InterviewID)

		var intro string
		err := callRemote(ctx, s.opts.CallTimeout, "generate introduction", func(ctx context.Context) error {
			var err error
			intro, err = s.collab.Introduction.Introduce(ctx, iv.Documents.Role, iv.TargetQuestions)
			return err
		})
		if err != nil {
			return nil, err
		}

		var first string
		err = callRemote(ctx, s.opts.CallTimeout, "generate question", func(ctx context.Context) error {
			var err error
			first, err = s.collab.Questions.Generate(ctx, model.QuestionRequest{
				FocusAreas:      focusAreas(iv),
				DifficultyLevel: iv.DifficultyLevel,
			})
			return err
		})
		if err != nil {
			return nil, err
		}

		number := 1
		res.InterviewID = iv.InterviewID
		res.Introduction = intro
		res.FirstQuestion = first
		res.TargetQuestions = iv.TargetQuestions
		return []*model.Message{
			{Role: model.RoleAssistant, Content: intro},
			{Role: model.RoleAssistant, Content: first, QuestionNumber: &number, DifficultyLevel: difficultySnapshot(iv)},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SendMessage resolves the candidate link and runs one conversation turn.
func (s *Service) SendMessage(ctx context.Context, token string, req model.CandidateMessageReq) (*model.TurnResult, error) {
	iv, err := s.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Process(llm.WithInterviewID(ctx, iv.InterviewID), iv.InterviewID, req)
}

// CandidateMessages returns the conversation visible to the candidate link.
func (s *Service) CandidateMessages(ctx context.Context, token string) ([]model.Message, error) {
	iv, err := s.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, iv.InterviewID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Message, len(msgs))
	for i := range msgs {
		out[i] = msgs[i].CandidateView()
	}
	return out, nil
}

func (s *Service) Messages(ctx context.Context, interviewID int64) ([]model.Message, error) {
	if _, err := s.store.GetInterview(ctx, interviewID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, interviewID)
}

// Complete synthesizes the final report once every target question has been
// answered and moves the interview to COMPLETED.
func (s *Service) Complete(ctx context.Context, interviewID int64) (*model.Interview, error) {
	return s.mutate(ctx, interviewID, model.StatusCompleted, func(ctx context.Context, iv *model.Interview) ([]*model.Message, error) {
		msgs, err := s.store.ListMessages(ctx, iv.InterviewID)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		if AnswersGiven(msgs) < iv.TargetQuestions {
			return nil, ErrInterviewIncomplete
		}

		in := model.ReportInput{
			Transcript:     Transcript(msgs),
			QuestionScores: QuestionScores(msgs),
			Telemetry:      Summarize(msgs),
		}
		if iv.MatchAnalysis != nil {
			in.MatchAnalysis = *iv.MatchAnalysis
		}

		var report *model.FinalReport
		err = callRemote(llm.WithInterviewID(ctx, iv.InterviewID), s.opts.CallTimeout, "synthesize report", func(ctx context.Context) error {
			var err error
			report, err = s.collab.Reports.Synthesize(ctx, in)
			return err
		})
		if err != nil {
			return nil, err
		}
		EnrichFlags(report, msgs)
		iv.Report = report
		return nil, nil
	})
}

func (s *Service) Costs(ctx context.Context, interviewID int64) (*model.CostBreakdown, error) {
	if _, err := s.store.GetInterview(ctx, interviewID); err != nil {
		return nil, err
	}
	return s.usage.CostBreakdown(ctx, interviewID)
}

func (s *Service) CostStats(ctx context.Context) (*model.CostStats, error) {
	return s.usage.CostStats(ctx)
}

func (s *Service) CacheStats(ctx context.Context) (*model.CacheStats, error) {
	if s.opts.Cache == nil {
		return &model.CacheStats{}, nil
	}
	return s.opts.Cache.Stats(ctx)
}

// mutate loads the interview under its lock, rejects an impossible
// transition before any collaborator is called, lets apply stage changes on
// a copy, then transitions and saves the copy with its messages.
func (s *Service) mutate(
	ctx context.Context,
	interviewID int64,
	target model.Status,
	apply func(ctx context.Context, iv *model.Interview) ([]*model.Message, error),
) (*model.Interview, error) {
	unlock, err := s.locker.Lock(ctx, lockKey(interviewID))
	if err != nil {
		return nil, fmt.Errorf("lock interview: %w", err)
	}
	defer unlock()

	current, err := s.store.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, target) {
		return nil, ValidateTransition(current, target)
	}

	staged := current.Clone()
	msgs, err := apply(ctx, staged)
	if err != nil {
		return nil, err
	}
	if err := Transition(staged, target); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, staged, msgs...); err != nil {
		return nil, err
	}

	metrics.ObserveTransition(current.Status.String(), target.String())
	s.log().Infow("interview transitioned",
		"interview_id", interviewID,
		"from", current.Status,
		"to", target,
	)
	return staged, nil
}

// resolveToken maps a candidate link token to its interview, rejecting
// unknown and expired links.
func (s *Service) resolveToken(ctx context.Context, token string) (*model.Interview, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	iv, err := s.store.GetInterviewByToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if iv.TokenExpired(s.opts.Now()) {
		return nil, ErrExpiredToken
	}
	return iv, nil
}
