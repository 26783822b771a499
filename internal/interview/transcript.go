package interview

import (
	"strings"

	"github.com/ddiaz-itx/ai-interviewer/pkg"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

const maxPreviousAnswers = 3

// CurrentQuestion returns the last assistant message that carries a question
// number, or nil when none has been asked.
func CurrentQuestion(msgs []model.Message) *model.Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsQuestion() {
			return &msgs[i]
		}
	}
	return nil
}

// QuestionsAsked counts assistant messages carrying a question number.
func QuestionsAsked(msgs []model.Message) int {
	n := 0
	for i := range msgs {
		if msgs[i].IsQuestion() {
			n++
		}
	}
	return n
}

// AnswersGiven counts candidate messages that were evaluated as answers.
func AnswersGiven(msgs []model.Message) int {
	n := 0
	for i := range msgs {
		if msgs[i].Role == model.RoleCandidate && msgs[i].AnswerQualityScore != nil {
			n++
		}
	}
	return n
}

// PreviousAnswers returns up to the last three evaluated candidate answers in
// chronological order.
func PreviousAnswers(msgs []model.Message) []string {
	var out []string
	for i := range msgs {
		if msgs[i].Role == model.RoleCandidate && msgs[i].AnswerQualityScore != nil {
			out = append(out, msgs[i].Content)
		}
	}
	if len(out) > maxPreviousAnswers {
		out = out[len(out)-maxPreviousAnswers:]
	}
	return out
}

// ChatHistory renders messages as role-prefixed lines, one per message.
func ChatHistory(msgs []model.Message) string {
	lines := make([]string, 0, len(msgs))
	for i := range msgs {
		lines = append(lines, msgs[i].Line())
	}
	return strings.Join(lines, "\n")
}

// Transcript renders the full session for report synthesis.
func Transcript(msgs []model.Message) string {
	parts := make([]string, 0, len(msgs))
	for i := range msgs {
		parts = append(parts, strings.ToUpper(string(msgs[i].Role))+": "+msgs[i].Content)
	}
	return strings.Join(parts, "\n\n")
}

// QuestionScores pairs every evaluated answer with the question it answered.
func QuestionScores(msgs []model.Message) []model.QuestionScore {
	var (
		out     []model.QuestionScore
		current int
	)
	for i := range msgs {
		m := &msgs[i]
		if m.IsQuestion() {
			current = *m.QuestionNumber
			continue
		}
		if m.Role == model.RoleCandidate && m.AnswerQualityScore != nil {
			out = append(out, model.QuestionScore{QuestionNumber: current, Score: *m.AnswerQualityScore})
		}
	}
	return out
}

func Summarize(msgs []model.Message) model.TelemetrySummary {
	s := model.TelemetrySummary{TotalMessages: len(msgs)}
	for i := range msgs {
		if msgs[i].Telemetry != nil && msgs[i].Telemetry.PasteDetected {
			s.PasteEvents++
		}
	}
	return s
}

const excerptLength = 200

// EnrichFlags fills in the question text and an answer excerpt for every
// integrity flag that points at a question the session actually asked.
func EnrichFlags(report *model.FinalReport, msgs []model.Message) {
	if report == nil {
		return
	}
	questions := map[int]string{}
	answers := map[int]string{}
	current := 0
	for i := range msgs {
		m := &msgs[i]
		if m.IsQuestion() {
			current = *m.QuestionNumber
			questions[current] = m.Content
			continue
		}
		if m.Role == model.RoleCandidate && m.AnswerQualityScore != nil && current > 0 {
			answers[current] = m.Content
		}
	}

	for i := range report.IntegrityFlags {
		f := &report.IntegrityFlags[i]
		n := 0
		if f.QuestionNumber != nil {
			n = *f.QuestionNumber
		} else if parsed, ok := pkg.QuestionNumber(f.MessageReference); ok {
			n = parsed
			f.QuestionNumber = &parsed
		}
		if n == 0 {
			continue
		}
		if f.QuestionText == "" {
			f.QuestionText = questions[n]
		}
		if f.AnswerExcerpt == "" {
			f.AnswerExcerpt = pkg.Excerpt(answers[n], excerptLength)
		}
	}
}
