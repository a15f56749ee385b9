package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"quizai/apperr"
	"quizai/grading"
	"quizai/models"
)

type AnswerInput struct {
	QuestionID     uuid.UUID
	SelectedOption string
}

// RecordSubmission grades answers against an owned quiz and stores the
// attempt. Total is the quiz's question count; unanswered questions score
// zero.
func (s *Store) RecordSubmission(ctx context.Context, userID, quizID uuid.UUID, answers []AnswerInput, passPercent int) (*models.Submission, error) {
	var submission *models.Submission
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		quiz, err := getOwnedQuiz(tx, quizID, userID)
		if err != nil {
			return err
		}

		sub := &models.Submission{QuizID: quizID, UserID: userID, Total: len(quiz.Questions)}
		var fields []apperr.FieldError
		for i, answer := range answers {
			question := quiz.Question(answer.QuestionID)
			if question == nil {
				fields = append(fields, apperr.FieldError{
					Field:   fmt.Sprintf("answers[%d].questionId", i),
					Message: fmt.Sprintf("Question %s does not belong to this quiz.", answer.QuestionID),
				})
				continue
			}
			correct := grading.IsCorrect(question, answer.SelectedOption)
			if correct {
				sub.Score++
			}
			sub.Answers = append(sub.Answers, models.SubmissionAnswer{
				QuestionID:     answer.QuestionID,
				SelectedOption: answer.SelectedOption,
				IsCorrect:      correct,
			})
		}
		if len(fields) > 0 {
			return apperr.Validation("Submission contains invalid answers.", fields...)
		}
		sub.Passed = grading.Passed(sub.Score, sub.Total, passPercent)

		if err := tx.Create(sub).Error; err != nil {
			return mapError("create submission", err)
		}
		submission = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *Store) ListSubmissions(ctx context.Context, userID, quizID uuid.UUID) ([]models.Submission, error) {
	var submissions []models.Submission
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureOwned(tx, quizID, userID); err != nil {
			return err
		}
		return tx.Preload("Answers").
			Where("quiz_id = ? AND user_id = ?", quizID, userID).
			Order("created_at DESC").
			Find(&submissions).Error
	})
	if err != nil {
		return nil, mapError("list submissions", err)
	}
	return submissions, nil
}
