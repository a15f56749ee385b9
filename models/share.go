package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShareToken struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	QuizID    uuid.UUID  `json:"quiz_id" gorm:"type:uuid;not null;index"`
	CreatedBy uuid.UUID  `json:"created_by" gorm:"type:uuid;not null"`
	Token     string     `json:"token" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedBy    *uuid.UUID `json:"used_by,omitempty" gorm:"type:uuid"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

func (t *ShareToken) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// ShareRedemption records which copy a recipient received for a token.
type ShareRedemption struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ShareTokenID uuid.UUID `json:"share_token_id" gorm:"type:uuid;not null;uniqueIndex:idx_share_recipient"`
	RecipientID  uuid.UUID `json:"recipient_id" gorm:"type:uuid;not null;uniqueIndex:idx_share_recipient"`
	QuizID       uuid.UUID `json:"quiz_id" gorm:"type:uuid;not null;index"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *ShareRedemption) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
