package agents

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

const (
	minQuestionLen = 10
	maxQuestionLen = 1000
	minAnswerLen   = 1
	maxAnswerLen   = 5000
	minResumeLen   = 50
	maxResumeLen   = 20000
	minRoleLen     = 20
	maxRoleLen     = 10000
	maxHistoryLen  = 50000
	maxFocusAreas  = 10
	maxAsked       = 50
	maxMatchAreas  = 5
)

// checkText trims s and enforces a character length window.
func checkText(field, s string, lo, hi int) (string, error) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return "", fmt.Errorf("%w: %s cannot be empty or whitespace only", ErrInvalidInput, field)
	}
	if n < lo || n > hi {
		return "", fmt.Errorf("%w: %s must be between %d and %d characters, got %d", ErrInvalidInput, field, lo, hi, n)
	}
	return s, nil
}

// ValidateDocuments applies the document analysis bounds and returns the
// trimmed documents.
func ValidateDocuments(d model.Documents) (model.Documents, error) {
	var err error
	if d.Resume, err = checkText("resume", d.Resume, minResumeLen, maxResumeLen); err != nil {
		return d, err
	}
	if d.Role, err = checkText("role description", d.Role, minRoleLen, maxRoleLen); err != nil {
		return d, err
	}
	if d.JobOffering, err = checkText("job offering", d.JobOffering, minRoleLen, maxRoleLen); err != nil {
		return d, err
	}
	return d, nil
}

func validateQA(question, answer string) (string, string, error) {
	q, err := checkText("question", question, minQuestionLen, maxQuestionLen)
	if err != nil {
		return "", "", err
	}
	a, err := checkText("answer", answer, minAnswerLen, maxAnswerLen)
	if err != nil {
		return "", "", err
	}
	return q, a, nil
}

func validateQuestionRequest(in model.QuestionRequest) (model.QuestionRequest, error) {
	if len(in.FocusAreas) == 0 || len(in.FocusAreas) > maxFocusAreas {
		return in, fmt.Errorf("%w: focus areas must contain 1 to %d entries", ErrInvalidInput, maxFocusAreas)
	}
	areas := make([]string, 0, len(in.FocusAreas))
	for _, a := range in.FocusAreas {
		a = strings.TrimSpace(a)
		if a == "" {
			return in, fmt.Errorf("%w: focus areas cannot be empty", ErrInvalidInput)
		}
		areas = append(areas, a)
	}
	in.FocusAreas = areas

	if in.DifficultyLevel < model.MinDifficultyLevel || in.DifficultyLevel > model.MaxDifficultyLevel {
		return in, fmt.Errorf("%w: difficulty level must be between %d and %d", ErrInvalidInput, model.MinDifficultyLevel, model.MaxDifficultyLevel)
	}
	if in.QuestionsAsked < 0 || in.QuestionsAsked > maxAsked {
		return in, fmt.Errorf("%w: questions asked must be between 0 and %d", ErrInvalidInput, maxAsked)
	}
	// keep the most recent part of a long conversation
	if len(in.History) > maxHistoryLen {
		in.History = strings.ToValidUTF8(in.History[len(in.History)-maxHistoryLen:], "")
	}
	return in, nil
}
