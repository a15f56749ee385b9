package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"quizai/apperr"
	"quizai/logger"
	"quizai/models"
	"quizai/store"
)

// SubmissionStore is the persistence the submission flow needs.
type SubmissionStore interface {
	RecordSubmission(ctx context.Context, userID, quizID uuid.UUID, answers []store.AnswerInput, passPercent int) (*models.Submission, error)
	ListSubmissions(ctx context.Context, userID, quizID uuid.UUID) ([]models.Submission, error)
}

type SubmissionService struct {
	store       SubmissionStore
	passPercent int
	log         *logger.Logger
}

func NewSubmissionService(st SubmissionStore, passPercent int, log *logger.Logger) *SubmissionService {
	return &SubmissionService{
		store:       st,
		passPercent: passPercent,
		log:         orNop(log).With("service", "submission"),
	}
}

type AnswerRequest struct {
	QuestionID       string `json:"questionId"`
	SelectedOption   string `json:"selectedOption"`
	SelectedOptionID string `json:"selectedOptionId"`
}

type SubmitRequest struct {
	ExamID  string          `json:"examId"`
	Answers []AnswerRequest `json:"answers"`
}

// Submit grades one attempt. Malformed input is rejected before anything is
// read from or written to the store.
func (s *SubmissionService) Submit(ctx context.Context, userID uuid.UUID, req SubmitRequest) (*models.Submission, error) {
	if len(req.Answers) == 0 {
		return nil, apperr.Validation("Validation errors occurred.", apperr.FieldError{Field: "answers", Message: "At least one answer is required."})
	}

	var fields []apperr.FieldError
	quizID, err := uuid.Parse(strings.TrimSpace(req.ExamID))
	if err != nil {
		fields = append(fields, apperr.FieldError{Field: "examId", Message: "Invalid exam id."})
	}

	seen := make(map[uuid.UUID]bool, len(req.Answers))
	answers := make([]store.AnswerInput, 0, len(req.Answers))
	for i, a := range req.Answers {
		field := fmt.Sprintf("answers[%d].questionId", i)
		questionID, err := uuid.Parse(strings.TrimSpace(a.QuestionID))
		if err != nil {
			fields = append(fields, apperr.FieldError{Field: field, Message: "Invalid question id."})
			continue
		}
		if seen[questionID] {
			fields = append(fields, apperr.FieldError{Field: field, Message: "Question answered more than once."})
			continue
		}
		seen[questionID] = true

		selected := a.SelectedOption
		if strings.TrimSpace(selected) == "" {
			selected = a.SelectedOptionID
		}
		answers = append(answers, store.AnswerInput{QuestionID: questionID, SelectedOption: strings.TrimSpace(selected)})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("Validation errors occurred.", fields...)
	}

	submission, err := s.store.RecordSubmission(ctx, userID, quizID, answers, s.passPercent)
	if err != nil {
		return nil, err
	}
	s.log.Info("submission graded", "user_id", userID, "quiz_id", quizID, "score", submission.Score, "total", submission.Total)
	return submission, nil
}

func (s *SubmissionService) List(ctx context.Context, userID, quizID uuid.UUID) ([]models.Submission, error) {
	return s.store.ListSubmissions(ctx, userID, quizID)
}
