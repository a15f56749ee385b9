package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	QuestionTypeMCQ = "MCQ"
	QuestionTypeTF  = "TF"
)

type Question struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	QuizID          uuid.UUID `json:"quiz_id" gorm:"type:uuid;not null;index"`
	Type            string    `json:"type" gorm:"not null"`
	Content         string    `json:"content" gorm:"not null"`
	SuggestedAnswer string    `json:"suggested_answer"`
	Position        int       `json:"position" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`

	// Relationships
	Choices []Choice `json:"choices,omitempty" gorm:"foreignKey:QuestionID"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	ensureID(&q.ID)
	return nil
}

// ParseQuestionType accepts the spellings used by the client and the AI
// service and returns the canonical type.
func ParseQuestionType(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "mcq", "multiple_choice", "multiple choice", "multiplechoice":
		return QuestionTypeMCQ, nil
	case "tf", "true_false", "true/false", "true or false", "truefalse":
		return QuestionTypeTF, nil
	}
	return "", fmt.Errorf("unknown question type %q", raw)
}

// Validate checks the choice-count invariant for the question's type.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Content) == "" {
		return fmt.Errorf("question content is empty")
	}
	switch q.Type {
	case QuestionTypeMCQ:
		if len(q.Choices) < 1 {
			return fmt.Errorf("multiple-choice question %q has no choices", q.Content)
		}
	case QuestionTypeTF:
		if len(q.Choices) != 2 {
			return fmt.Errorf("true/false question %q must have exactly two choices, has %d", q.Content, len(q.Choices))
		}
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}
