package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"quizai/apperr"
	"quizai/models"
)

var errTokenInvalid = apperr.Validation("Invalid or expired token.").WithCode("TOKEN_INVALID")

// CreateUserWithVerification inserts the user and its first verification
// token together.
func (s *Store) CreateUserWithVerification(ctx context.Context, user *models.User, token *models.EmailVerificationToken) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	tx := s.conn(ctx).Begin()
	if tx.Error != nil {
		return mapError("begin signup", tx.Error)
	}
	if err := tx.Create(user).Error; err != nil {
		tx.Rollback()
		if apperr.Is(mapError("create user", err), apperr.KindConflict) {
			return apperr.Conflict("Email is already registered.")
		}
		return mapError("create user", err)
	}

	token.UserID = user.ID
	if err := tx.Create(token).Error; err != nil {
		tx.Rollback()
		return mapError("create verification token", err)
	}

	return mapError("commit signup", tx.Commit().Error)
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	if err != nil {
		return false, mapError("email exists", err)
	}
	return count > 0, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.conn(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, notFoundOr("get user by email", err, "User not found.")
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFoundOr("get user by id", err, "User not found.")
	}
	return &user, nil
}

// SaveVerificationToken retires the user's outstanding codes and stores a
// new one.
func (s *Store) SaveVerificationToken(ctx context.Context, token *models.EmailVerificationToken) error {
	tx := s.conn(ctx).Begin()
	if tx.Error != nil {
		return mapError("begin save verification", tx.Error)
	}
	now := time.Now().UTC()
	if err := tx.Model(&models.EmailVerificationToken{}).
		Where("user_id = ? AND used = ?", token.UserID, false).
		Updates(map[string]interface{}{"used": true, "used_at": now}).Error; err != nil {
		tx.Rollback()
		return mapError("retire verification tokens", err)
	}
	if err := tx.Create(token).Error; err != nil {
		tx.Rollback()
		return mapError("create verification token", err)
	}
	return mapError("commit save verification", tx.Commit().Error)
}

// UseVerificationToken consumes a matching, unexpired code and marks the
// user verified. A used or expired code is rejected without side effects.
func (s *Store) UseVerificationToken(ctx context.Context, userID uuid.UUID, code string, now time.Time) error {
	tx := s.conn(ctx).Begin()
	if tx.Error != nil {
		return mapError("begin verify", tx.Error)
	}

	res := tx.Model(&models.EmailVerificationToken{}).
		Where("user_id = ? AND token = ? AND used = ? AND expires_at > ?", userID, code, false, now).
		Updates(map[string]interface{}{"used": true, "used_at": now})
	if res.Error != nil {
		tx.Rollback()
		return mapError("consume verification token", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return apperr.Validation("Invalid email verification token.").WithCode("TOKEN_INVALID")
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"email_verified": true, "updated_at": now}).Error; err != nil {
		tx.Rollback()
		return mapError("mark user verified", err)
	}
	return mapError("commit verify", tx.Commit().Error)
}

func (s *Store) SavePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	return mapError("create reset token", s.conn(ctx).Create(token).Error)
}

func (s *Store) ResetTokenExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := s.conn(ctx).Model(&models.PasswordResetToken{}).Where("token = ?", code).Count(&count).Error; err != nil {
		return false, mapError("reset token exists", err)
	}
	return count > 0, nil
}

func (s *Store) GetPasswordResetToken(ctx context.Context, code string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	err := s.conn(ctx).Where("token = ?", code).Order("created_at DESC").First(&token).Error
	if err != nil {
		return nil, notFoundOr("get reset token", err, "Invalid or expired token.")
	}
	return &token, nil
}

// ResetPasswordWithToken consumes the reset code and replaces the password in
// one transaction. When userID is non-nil it must match the token's owner.
func (s *Store) ResetPasswordWithToken(ctx context.Context, code string, userID *uuid.UUID, hash, salt string, now time.Time) (uuid.UUID, error) {
	var owner uuid.UUID
	tx := s.conn(ctx).Begin()
	if tx.Error != nil {
		return owner, mapError("begin reset", tx.Error)
	}

	var token models.PasswordResetToken
	if err := tx.Where("token = ? AND used = ? AND expires_at > ?", code, false, now).First(&token).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return owner, errTokenInvalid
		}
		return owner, mapError("find reset token", err)
	}
	if userID != nil && *userID != token.UserID {
		tx.Rollback()
		return owner, errTokenInvalid
	}

	res := tx.Model(&models.PasswordResetToken{}).
		Where("id = ? AND used = ?", token.ID, false).
		Updates(map[string]interface{}{"used": true, "used_at": now})
	if res.Error != nil {
		tx.Rollback()
		return owner, mapError("consume reset token", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return owner, errTokenInvalid
	}

	if err := tx.Model(&models.User{}).Where("id = ?", token.UserID).
		Updates(map[string]interface{}{"password_hash": hash, "password_salt": salt, "updated_at": now}).Error; err != nil {
		tx.Rollback()
		return owner, mapError("update password", err)
	}
	if err := tx.Commit().Error; err != nil {
		return owner, mapError("commit reset", err)
	}
	return token.UserID, nil
}
