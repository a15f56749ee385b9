// Package grading decides whether a selected option matches a question's
// recorded answer. Either side may be a choice id, a 0-based index, an
// ordinal letter or the option text.
package grading

import (
	"regexp"
	"strconv"
	"strings"

	"quizai/models"
)

var (
	labelPrefix = regexp.MustCompile(`^(?:\(?(?:[a-z]|[0-9]{1,2})\)|(?:[a-z]|[0-9]{1,2})[.:])\s+`)
	// bareLabel matches a label on its own: "b)", "b.", "(b)", "2)".
	bareLabel = regexp.MustCompile(`^\(?([a-z]|[0-9]{1,2})[).:]$`)
)

// Normalize lower-cases, trims and collapses inner whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// StripLabel normalizes s and removes a leading "A) ", "b. " or "(c)" label.
func StripLabel(s string) string {
	n := Normalize(s)
	stripped := labelPrefix.ReplaceAllString(n, "")
	if stripped == "" {
		return n
	}
	return stripped
}

// Resolve maps value to a choice position of q. Order: choice id, option
// text, bare label, ordinal letter, numeric index.
func Resolve(q *models.Question, value string) (int, bool) {
	raw := strings.TrimSpace(value)
	if raw == "" || len(q.Choices) == 0 {
		return 0, false
	}
	for i, c := range q.Choices {
		if strings.EqualFold(c.ID.String(), raw) {
			return i, true
		}
	}

	norm := Normalize(raw)
	bare := StripLabel(raw)
	for i, c := range q.Choices {
		text := Normalize(c.Text)
		if text == norm || StripLabel(c.Text) == bare {
			return i, true
		}
	}

	// A punctuated label names a printed choice, so digits count from 1.
	if m := bareLabel.FindStringSubmatch(norm); m != nil {
		label := m[1]
		if label[0] >= 'a' && label[0] <= 'z' {
			if idx := int(label[0] - 'a'); idx < len(q.Choices) {
				return idx, true
			}
			return 0, false
		}
		if n, err := strconv.Atoi(label); err == nil && n >= 1 && n <= len(q.Choices) {
			return n - 1, true
		}
		return 0, false
	}

	if len(norm) == 1 && norm[0] >= 'a' && norm[0] <= 'z' {
		if idx := int(norm[0] - 'a'); idx < len(q.Choices) {
			return idx, true
		}
		return 0, false
	}
	if idx, err := strconv.Atoi(norm); err == nil && idx >= 0 && idx < len(q.Choices) {
		return idx, true
	}
	return 0, false
}

// IsCorrect compares the selected option with the question's suggested
// answer. When either side cannot be resolved to a choice the label-stripped
// texts are compared.
func IsCorrect(q *models.Question, selected string) bool {
	if strings.TrimSpace(selected) == "" {
		return false
	}
	got, okGot := Resolve(q, selected)
	want, okWant := Resolve(q, q.SuggestedAnswer)
	if okGot && okWant {
		return got == want
	}
	if okGot {
		selected = q.Choices[got].Text
	}
	answer := q.SuggestedAnswer
	if okWant {
		answer = q.Choices[want].Text
	}
	expected := StripLabel(answer)
	return expected != "" && StripLabel(selected) == expected
}

// Passed reports whether score reaches passPercent of total.
func Passed(score, total, passPercent int) bool {
	if total <= 0 {
		return false
	}
	return score*100 >= passPercent*total
}
