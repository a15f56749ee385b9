package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"quizai/apperr"
	"quizai/models"
)

const msgShareInvalid = "Invalid or expired share token."

func (s *Store) ShareTokenExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := s.conn(ctx).Model(&models.ShareToken{}).Where("token = ?", code).Count(&count).Error; err != nil {
		return false, mapError("share token exists", err)
	}
	return count > 0, nil
}

// CreateShareToken stores token for a quiz owned by its creator.
func (s *Store) CreateShareToken(ctx context.Context, token *models.ShareToken) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureOwned(tx, token.QuizID, token.CreatedBy); err != nil {
			return err
		}
		return mapError("create share token", tx.Create(token).Error)
	})
}

// RedeemShareToken copies the shared quiz to recipientID. The first
// redemption claims the token; repeating it as the same recipient returns
// the existing copy with created=false.
func (s *Store) RedeemShareToken(ctx context.Context, code string, recipientID uuid.UUID, now time.Time) (*models.Quiz, bool, error) {
	var (
		result  *models.Quiz
		created bool
	)
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var token models.ShareToken
		if err := tx.Where("token = ?", code).First(&token).Error; err != nil {
			return notFoundOr("find share token", err, msgShareInvalid)
		}
		if !token.ExpiresAt.After(now) {
			return apperr.NotFound(msgShareInvalid)
		}

		var source models.Quiz
		if err := withQuestions(tx).Where("id = ?", token.QuizID).First(&source).Error; err != nil {
			return notFoundOr("find shared quiz", err, msgShareInvalid)
		}
		if source.UserID == recipientID {
			return apperr.Forbidden("You cannot redeem a share token for your own quiz.")
		}

		if token.UsedBy == nil {
			res := tx.Model(&models.ShareToken{}).
				Where("id = ? AND used_by IS NULL", token.ID).
				Updates(map[string]interface{}{"used_by": recipientID, "used_at": now})
			if res.Error != nil {
				return mapError("claim share token", res.Error)
			}
			if res.RowsAffected == 0 {
				if err := tx.Where("id = ?", token.ID).First(&token).Error; err != nil {
					return mapError("reload share token", err)
				}
			} else {
				token.UsedBy = &recipientID
			}
		}
		if token.UsedBy == nil || *token.UsedBy != recipientID {
			return apperr.NotFound("Share token has already been used.")
		}

		existing, err := redeemedCopy(tx, token.ID, recipientID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		copied := copyQuiz(&source, recipientID)
		if err := tx.Create(copied).Error; err != nil {
			return mapError("copy shared quiz", err)
		}
		redemption := models.ShareRedemption{ShareTokenID: token.ID, RecipientID: recipientID, QuizID: copied.ID}
		if err := tx.Create(&redemption).Error; err != nil {
			return mapError("record share redemption", err)
		}
		result, created = copied, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

// redeemedCopy returns the recipient's copy for a token, or nil when there is
// none. A redemption whose copy was deleted is cleared.
func redeemedCopy(tx *gorm.DB, tokenID, recipientID uuid.UUID) (*models.Quiz, error) {
	var redemption models.ShareRedemption
	err := tx.Where("share_token_id = ? AND recipient_id = ?", tokenID, recipientID).First(&redemption).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("find share redemption", err)
	}

	var quiz models.Quiz
	err = withQuestions(tx).Where("id = ? AND user_id = ?", redemption.QuizID, recipientID).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := tx.Delete(&redemption).Error; err != nil {
			return nil, mapError("clear share redemption", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, mapError("find redeemed quiz", err)
	}
	return &quiz, nil
}

func copyQuiz(source *models.Quiz, ownerID uuid.UUID) *models.Quiz {
	sourceID := source.ID
	copied := &models.Quiz{
		UserID:       ownerID,
		Title:        source.Title,
		SourcePath:   source.SourcePath,
		SharedFromID: &sourceID,
	}
	for _, q := range source.Questions {
		question := models.Question{
			Type:            q.Type,
			Content:         q.Content,
			SuggestedAnswer: q.SuggestedAnswer,
		}
		for _, c := range q.Choices {
			question.Choices = append(question.Choices, models.Choice{Text: c.Text})
		}
		copied.Questions = append(copied.Questions, question)
	}
	prepareQuestions(copied.Questions)
	copied.TotalMarks = len(copied.Questions)
	return copied
}
