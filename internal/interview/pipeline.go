package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ddiaz-itx/ai-interviewer/internal/metrics"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

const (
	// Answers faster than this (or pasted ones) get an integrity assessment.
	fastResponseThresholdMs = 5000

	ClosingMessage = "Thank you for completing the interview! Your responses have been recorded and will be reviewed by our team."

	clarificationTemplate = "Let me clarify the question: %s\n\nPlease provide your answer when you're ready."
	redirectTemplate      = "Let's stay focused on the current question: %s"
)

const (
	ClassificationAnswer        = "answer"
	ClassificationClarification = "clarification"
	ClassificationOffTopic      = "off_topic"
)

// NeedsIntegrityCheck reports whether telemetry is suspicious enough to pay
// for an integrity assessment.
func NeedsIntegrityCheck(t model.Telemetry) bool {
	return t.PasteDetected || t.ResponseTimeMs < fastResponseThresholdMs
}

// Pipeline turns one incoming candidate message into exactly one candidate
// message plus one assistant message, persisted together.
type Pipeline struct {
	store       Store
	locker      Locker
	collab      Collaborators
	logger      *zap.Logger
	callTimeout time.Duration
}

func NewPipeline(store Store, locker Locker, collab Collaborators, opts Options) *Pipeline {
	opts = opts.withDefaults()
	return &Pipeline{
		store:       store,
		locker:      locker,
		collab:      collab,
		logger:      opts.Logger,
		callTimeout: opts.CallTimeout,
	}
}

// turn is the staged outcome of a branch: messages to append and the result
// to report once they are durable.
type turn struct {
	messages []*model.Message
	result   *model.TurnResult
}

// Process handles one candidate message for the given interview. Calls for the
// same interview are serialized; nothing is persisted unless every
// collaborator call succeeded.
func (p *Pipeline) Process(ctx context.Context, interviewID int64, req model.CandidateMessageReq) (*model.TurnResult, error) {
	unlock, err := p.locker.Lock(ctx, lockKey(interviewID))
	if err != nil {
		return nil, fmt.Errorf("lock interview: %w", err)
	}
	defer unlock()

	iv, err := p.store.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if iv.Status != model.StatusInProgress {
		return nil, ErrInvalidSessionState
	}

	msgs, err := p.store.ListMessages(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	current := CurrentQuestion(msgs)
	if current == nil {
		return nil, ErrNoActiveQuestion
	}

	var cls *model.MessageClassification
	err = callRemote(ctx, p.callTimeout, "classify message", func(ctx context.Context) error {
		var err error
		cls, err = p.collab.Classifier.Classify(ctx, current.Content, req.Content)
		return err
	})
	if err != nil {
		return nil, err
	}

	var t *turn
	switch cls.Type {
	case model.KindAnswer:
		t, err = p.answer(ctx, iv, msgs, current, req)
	case model.KindClarification:
		t = p.reply(req, fmt.Sprintf(clarificationTemplate, current.Content), ClassificationClarification)
	default:
		t = p.reply(req, fmt.Sprintf(redirectTemplate, current.Content), ClassificationOffTopic)
	}
	if err != nil {
		return nil, err
	}
	t.result.Confidence = cls.Confidence

	if err := p.store.Save(ctx, iv, t.messages...); err != nil {
		return nil, fmt.Errorf("save turn: %w", err)
	}

	metrics.ObserveTurn(t.result.Classification, t.result.InterviewComplete)
	p.logger.Sugar().Infow("candidate message processed",
		"interview_id", interviewID,
		"question_number", *current.QuestionNumber,
		"classification", t.result.Classification,
		"confidence", cls.Confidence,
		"interview_complete", t.result.InterviewComplete,
	)
	return t.result, nil
}

func (p *Pipeline) answer(ctx context.Context, iv *model.Interview, msgs []model.Message, current *model.Message, req model.CandidateMessageReq) (*turn, error) {
	var eval *model.AnswerEvaluation
	err := callRemote(ctx, p.callTimeout, "evaluate answer", func(ctx context.Context) error {
		var err error
		eval, err = p.collab.Evaluator.Evaluate(ctx, current.Content, req.Content)
		return err
	})
	if err != nil {
		return nil, err
	}

	telemetry := req.Telemetry
	score := eval.Score
	candidate := &model.Message{
		Role:               model.RoleCandidate,
		Content:            req.Content,
		DifficultyLevel:    difficultySnapshot(iv),
		AnswerQualityScore: &score,
		Telemetry:          &telemetry,
	}

	if NeedsIntegrityCheck(telemetry) {
		var assessment *model.IntegrityAssessment
		err := callRemote(ctx, p.callTimeout, "assess integrity", func(ctx context.Context) error {
			var err error
			assessment, err = p.collab.Integrity.Assess(ctx, model.IntegrityInput{
				Question:        current.Content,
				Answer:          req.Content,
				ResponseTimeMs:  max(telemetry.ResponseTimeMs, 0),
				PasteDetected:   telemetry.PasteDetected,
				PreviousAnswers: PreviousAnswers(msgs),
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		certainty := assessment.CheatCertainty
		candidate.CheatCertainty = &certainty
	}

	result := &model.TurnResult{
		Classification: ClassificationAnswer,
		Evaluation:     eval,
	}

	asked := QuestionsAsked(msgs)
	if asked >= iv.TargetQuestions {
		result.Response = ClosingMessage
		result.InterviewComplete = true
		closing := &model.Message{Role: model.RoleAssistant, Content: ClosingMessage}
		return &turn{messages: []*model.Message{candidate, closing}, result: result}, nil
	}

	history := ChatHistory(append(msgs[:len(msgs):len(msgs)], *candidate))
	var next string
	err = callRemote(ctx, p.callTimeout, "generate question", func(ctx context.Context) error {
		var err error
		next, err = p.collab.Questions.Generate(ctx, model.QuestionRequest{
			FocusAreas:      focusAreas(iv),
			DifficultyLevel: iv.DifficultyLevel,
			History:         history,
			QuestionsAsked:  asked,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	number := *current.QuestionNumber + 1
	question := &model.Message{
		Role:            model.RoleAssistant,
		Content:         next,
		QuestionNumber:  &number,
		DifficultyLevel: difficultySnapshot(iv),
	}
	result.Response = next
	result.NextQuestionNumber = &number
	return &turn{messages: []*model.Message{candidate, question}, result: result}, nil
}

// reply stores the raw candidate message and a fixed response that does not
// advance the question count.
func (p *Pipeline) reply(req model.CandidateMessageReq, response, classification string) *turn {
	telemetry := req.Telemetry
	return &turn{
		messages: []*model.Message{
			{Role: model.RoleCandidate, Content: req.Content, Telemetry: &telemetry},
			{Role: model.RoleAssistant, Content: response},
		},
		result: &model.TurnResult{
			Response:       response,
			Classification: classification,
		},
	}
}

func difficultySnapshot(iv *model.Interview) *float64 {
	d := float64(iv.DifficultyLevel)
	return &d
}

func focusAreas(iv *model.Interview) []string {
	if iv.MatchAnalysis == nil || len(iv.MatchAnalysis.FocusAreas) == 0 {
		return []string{"General"}
	}
	return iv.MatchAnalysis.FocusAreas
}

// callRemote runs fn under an optional deadline and tags failures as
// RemoteCallError.
func callRemote(ctx context.Context, timeout time.Duration, op string, fn func(context.Context) error) error {
	cctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	err := fn(cctx)
	if err == nil {
		return nil
	}
	if errors.Is(cctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrRemoteCallTimeout, err)
	}
	return remoteErr(op, err)
}
