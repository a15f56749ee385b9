package grading

import (
	"testing"

	"github.com/google/uuid"

	"quizai/models"
)

func mcq(answer string, texts ...string) *models.Question {
	q := &models.Question{Type: models.QuestionTypeMCQ, SuggestedAnswer: answer}
	for i, text := range texts {
		q.Choices = append(q.Choices, models.Choice{ID: uuid.New(), Text: text, Position: i})
	}
	return q
}

func TestIsCorrectAcceptsEveryEncoding(t *testing.T) {
	q := mcq("B", "A) Paris", "B) Berlin", "C) Rome", "D) Madrid")
	for _, selected := range []string{"b", "B", "1", "Berlin", "  berlin ", "B) Berlin", "b)   BERLIN", q.Choices[1].ID.String()} {
		if !IsCorrect(q, selected) {
			t.Fatalf("expected %q to be correct", selected)
		}
	}
	for _, selected := range []string{"a", "0", "Paris", "e", "7", "", "Lisbon"} {
		if IsCorrect(q, selected) {
			t.Fatalf("expected %q to be wrong", selected)
		}
	}
}

func TestIsCorrectWithTextAnswer(t *testing.T) {
	q := mcq("Rome", "Paris", "Berlin", "Rome")
	if !IsCorrect(q, "c") || !IsCorrect(q, "2") || !IsCorrect(q, "ROME") {
		t.Fatalf("text answer should match letter, index and text")
	}
	if IsCorrect(q, "a") {
		t.Fatalf("wrong letter accepted")
	}
}

func TestIsCorrectTrueFalse(t *testing.T) {
	q := &models.Question{
		Type:            models.QuestionTypeTF,
		SuggestedAnswer: "False",
		Choices:         []models.Choice{{ID: uuid.New(), Text: "True"}, {ID: uuid.New(), Text: "False", Position: 1}},
	}
	if !IsCorrect(q, "false") || !IsCorrect(q, "1") || !IsCorrect(q, "b") {
		t.Fatalf("false answer not matched")
	}
	if IsCorrect(q, "True") {
		t.Fatalf("true accepted for a false answer")
	}
}

func TestIsCorrectFallsBackToText(t *testing.T) {
	q := mcq("Photosynthesis", "Respiration", "Digestion")
	if !IsCorrect(q, "photosynthesis") {
		t.Fatalf("unresolvable answer should compare by text")
	}
	if IsCorrect(q, "a") {
		t.Fatalf("resolved choice compared against unrelated answer text")
	}
}

func TestIsCorrectWithBareLabelAnswer(t *testing.T) {
	for _, answer := range []string{"B)", "B.", "(B)", "b) ", " b:", "2)"} {
		q := mcq(answer, "A) Paris", "B) Rome", "C) Oslo")
		for _, selected := range []string{"b", "B) Rome", "rome", "1", "(b)"} {
			if !IsCorrect(q, selected) {
				t.Fatalf("answer %q: expected %q to be correct", answer, selected)
			}
		}
		for _, selected := range []string{"a", "C) Oslo", "0", "c."} {
			if IsCorrect(q, selected) {
				t.Fatalf("answer %q: expected %q to be wrong", answer, selected)
			}
		}
	}
}

func TestResolveBareLabelOutOfRange(t *testing.T) {
	q := mcq("A", "A) Paris", "B) Rome")
	for _, value := range []string{"d)", "(e)", "0)", "3."} {
		if _, ok := Resolve(q, value); ok {
			t.Fatalf("expected %q to be unresolved", value)
		}
	}
}

func TestStripLabel(t *testing.T) {
	cases := map[string]string{
		"A) Paris":    "paris",
		"(b) Berlin":  "berlin",
		"c. Rome":     "rome",
		"  Madrid  ":  "madrid",
		"a)":          "a)",
		"New   York": "new york",
	}
	for in, want := range cases {
		if got := StripLabel(in); got != want {
			t.Fatalf("StripLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPassed(t *testing.T) {
	if !Passed(5, 10, 50) || Passed(4, 10, 50) || Passed(0, 0, 50) || !Passed(3, 3, 100) {
		t.Fatalf("unexpected pass threshold behaviour")
	}
}
