package handlers

import (
	"time"

	"github.com/google/uuid"

	"quizai/models"
	"quizai/services"
)

type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
}

type SignupResponse struct {
	User          UserResponse `json:"user"`
	EmailDelivery string       `json:"emailDelivery"`
}

type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	OverallStatus      bool `json:"overallStatus"`
	DBConReadiness     bool `json:"dbConReadiness"`
	DiskSpaceReadiness bool `json:"diskSpaceReadiness"`
	AIModelReadiness   bool `json:"aiModelReadiness"`
}

type QuizSummary struct {
	QuizID        uuid.UUID  `json:"quizId"`
	QuizTitle     string     `json:"quizTitle"`
	TotalMarks    int        `json:"totalMarks"`
	QuestionCount int        `json:"questionCount"`
	SharedFromID  *uuid.UUID `json:"sharedFromId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type QuizListResponse struct {
	QuizzesInfo []QuizSummary `json:"quizzesInfo"`
}

type ChoiceResponse struct {
	ChoiceID   uuid.UUID `json:"choiceId"`
	Choice     string    `json:"choice"`
	QuestionID uuid.UUID `json:"questionId"`
}

type QuestionResponse struct {
	QuestionID      uuid.UUID        `json:"questionId"`
	Type            string           `json:"type"`
	QuestionContent string           `json:"questionContent"`
	SuggestedAnswer string           `json:"suggestedAnswer"`
	Choices         []ChoiceResponse `json:"choices"`
}

type QuizResponse struct {
	QuizID     uuid.UUID          `json:"quizId"`
	Title      string             `json:"title"`
	TotalMarks int                `json:"totalMarks"`
	Questions  []QuestionResponse `json:"questions"`
}

type ShareResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RedeemResponse struct {
	Quiz    QuizSummary `json:"quiz"`
	Created bool        `json:"created"`
}

type AnswerResult struct {
	QuestionID     uuid.UUID `json:"questionId"`
	SelectedOption string    `json:"selectedOption"`
	IsCorrect      bool      `json:"isCorrect"`
}

type SubmissionResponse struct {
	SubmissionID uuid.UUID      `json:"submissionId"`
	QuizID       uuid.UUID      `json:"quizId"`
	Score        int            `json:"score"`
	Total        int            `json:"total"`
	Passed       bool           `json:"passed"`
	SubmittedAt  time.Time      `json:"submittedAt"`
	Answers      []AnswerResult `json:"answers"`
}

type SubmissionListResponse struct {
	Submissions []SubmissionResponse `json:"submissions"`
}

func toUser(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, EmailVerified: u.EmailVerified}
}

func toQuizSummary(q *models.Quiz) QuizSummary {
	return QuizSummary{
		QuizID:        q.ID,
		QuizTitle:     q.Title,
		TotalMarks:    q.TotalMarks,
		QuestionCount: len(q.Questions),
		SharedFromID:  q.SharedFromID,
		CreatedAt:     q.CreatedAt,
	}
}

func toQuestion(q *models.Question) QuestionResponse {
	out := QuestionResponse{
		QuestionID:      q.ID,
		Type:            q.Type,
		QuestionContent: q.Content,
		SuggestedAnswer: q.SuggestedAnswer,
		Choices:         make([]ChoiceResponse, 0, len(q.Choices)),
	}
	for _, c := range q.Choices {
		out.Choices = append(out.Choices, ChoiceResponse{ChoiceID: c.ID, Choice: c.Text, QuestionID: q.ID})
	}
	return out
}

func toQuiz(q *models.Quiz) QuizResponse {
	out := QuizResponse{
		QuizID:     q.ID,
		Title:      q.Title,
		TotalMarks: q.TotalMarks,
		Questions:  make([]QuestionResponse, 0, len(q.Questions)),
	}
	for i := range q.Questions {
		out.Questions = append(out.Questions, toQuestion(&q.Questions[i]))
	}
	return out
}

func toSubmission(s *models.Submission) SubmissionResponse {
	out := SubmissionResponse{
		SubmissionID: s.ID,
		QuizID:       s.QuizID,
		Score:        s.Score,
		Total:        s.Total,
		Passed:       s.Passed,
		SubmittedAt:  s.CreatedAt,
		Answers:      make([]AnswerResult, 0, len(s.Answers)),
	}
	for _, a := range s.Answers {
		out.Answers = append(out.Answers, AnswerResult{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption, IsCorrect: a.IsCorrect})
	}
	return out
}

func toHealth(r services.HealthReport) HealthResponse {
	return HealthResponse{
		OverallStatus:      r.Overall,
		DBConReadiness:     r.Database,
		DiskSpaceReadiness: r.DiskSpace,
		AIModelReadiness:   r.AIModel,
	}
}
