package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Quiz struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Title        string     `json:"title" gorm:"not null"`
	SourcePath   string     `json:"-" gorm:"not null;index"`
	TotalMarks   int        `json:"total_marks" gorm:"not null;default:0"`
	SharedFromID *uuid.UUID `json:"shared_from_id,omitempty" gorm:"type:uuid"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relationships
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	ensureID(&q.ID)
	return nil
}

// CountByType returns how many multiple-choice and true/false questions the
// quiz holds.
func (q *Quiz) CountByType() (mcq, tf int) {
	for _, question := range q.Questions {
		switch question.Type {
		case QuestionTypeMCQ:
			mcq++
		case QuestionTypeTF:
			tf++
		}
	}
	return mcq, tf
}

// Question returns the question with the given id, or nil.
func (q *Quiz) Question(id uuid.UUID) *Question {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i]
		}
	}
	return nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
