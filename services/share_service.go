package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizai/apperr"
	"quizai/logger"
	"quizai/models"
	"quizai/security"
	"quizai/store"
)

type ShareService struct {
	store  *store.Store
	events Publisher
	ttl    time.Duration
	log    *logger.Logger
	now    func() time.Time
}

func NewShareService(st *store.Store, events Publisher, ttl time.Duration, log *logger.Logger) *ShareService {
	if events == nil {
		events = noopPublisher{}
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &ShareService{
		store:  st,
		events: events,
		ttl:    ttl,
		log:    orNop(log).With("service", "share"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Share issues a single-use code for an owned quiz.
func (s *ShareService) Share(ctx context.Context, userID, quizID uuid.UUID) (*models.ShareToken, error) {
	code, err := uniqueCode(ctx, security.ShareCode, s.store.ShareTokenExists)
	if err != nil {
		return nil, err
	}
	token := &models.ShareToken{
		QuizID:    quizID,
		CreatedBy: userID,
		Token:     code,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.store.CreateShareToken(ctx, token); err != nil {
		return nil, err
	}
	s.log.Info("quiz shared", "quiz_id", quizID, "user_id", userID)
	s.events.Publish(userID, EventQuizShared, quizEvent{QuizID: quizID})
	return token, nil
}

// Redeem copies the shared quiz into recipientID's library. created is false
// when the recipient had already redeemed this code.
func (s *ShareService) Redeem(ctx context.Context, recipientID uuid.UUID, code string) (*models.Quiz, bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, false, apperr.NotFound("Invalid or expired share token.")
	}
	quiz, created, err := s.store.RedeemShareToken(ctx, code, recipientID, s.now())
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info("share redeemed", "quiz_id", quiz.ID, "recipient_id", recipientID)
		s.events.Publish(recipientID, EventQuizGenerated, quizEvent{QuizID: quiz.ID, Title: quiz.Title, QuestionCount: len(quiz.Questions)})
	}
	return quiz, created, nil
}
