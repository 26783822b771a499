package pkg

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var spaces = regexp.MustCompile(`\s+`)

// Excerpt collapses whitespace and cuts s to at most n runes, marking the
// cut with an ellipsis.
func Excerpt(s string, n int) string {
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "..."
}

var questionRef = regexp.MustCompile(`(?i)^\s*(?:q|question)\s*#?\s*(\d+)\s*$`)

// QuestionNumber parses references such as "Q3", "question 3" or "3".
func QuestionNumber(ref string) (int, bool) {
	ref = strings.TrimSpace(ref)
	if m := questionRef.FindStringSubmatch(ref); m != nil {
		ref = m[1]
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
