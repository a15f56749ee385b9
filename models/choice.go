package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Choice struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	QuestionID uuid.UUID `json:"question_id" gorm:"type:uuid;not null;index"`
	Text       string    `json:"text" gorm:"not null"`
	Position   int       `json:"position" gorm:"not null"`
}

func (c *Choice) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
