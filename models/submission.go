package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Submission struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	QuizID    uuid.UUID `json:"quiz_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Score     int       `json:"score" gorm:"not null"`
	Total     int       `json:"total" gorm:"not null"`
	Passed    bool      `json:"passed" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Answers []SubmissionAnswer `json:"answers,omitempty" gorm:"foreignKey:SubmissionID"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type SubmissionAnswer struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SubmissionID   uuid.UUID `json:"submission_id" gorm:"type:uuid;not null;index"`
	QuestionID     uuid.UUID `json:"question_id" gorm:"type:uuid;not null"`
	SelectedOption string    `json:"selected_option"`
	IsCorrect      bool      `json:"is_correct" gorm:"not null"`
}

func (a *SubmissionAnswer) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
