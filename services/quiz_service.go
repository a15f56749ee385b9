package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"quizai/aiclient"
	"quizai/apperr"
	"quizai/filestore"
	"quizai/logger"
	"quizai/models"
	"quizai/store"
)

const (
	DefaultMCQCount     = 10
	DefaultTFCount      = 5
	MaxQuestionsPerType = 50
	MaxQuizNameLength   = 200

	msgSourceMissing = "The source document for this quiz is no longer available."
)

// QuestionGenerator turns a document into unsaved questions.
type QuestionGenerator interface {
	Generate(ctx context.Context, req aiclient.GenerateRequest) ([]models.Question, error)
}

type QuizService struct {
	store     *store.Store
	ai        QuestionGenerator
	files     filestore.Store
	events    Publisher
	maxUpload int64
	log       *logger.Logger
}

func NewQuizService(st *store.Store, ai QuestionGenerator, files filestore.Store, events Publisher, maxUploadBytes int64, log *logger.Logger) *QuizService {
	if events == nil {
		events = noopPublisher{}
	}
	return &QuizService{
		store:     st,
		ai:        ai,
		files:     files,
		events:    events,
		maxUpload: maxUploadBytes,
		log:       orNop(log).With("service", "quiz"),
	}
}

// Upload is a source document received from the client.
type Upload struct {
	Filename string
	Content  []byte
}

// QuestionCounts is the requested mix. A nil field was not supplied.
type QuestionCounts struct {
	MCQ *int `json:"mcqCount"`
	TF  *int `json:"tfCount"`
}

type RegenerateRequest struct {
	QuestionCounts
	KeepID *bool `json:"keepId"`
}

// resolve applies defaults when neither count was supplied and checks the
// ranges.
func (c QuestionCounts) resolve(defMCQ, defTF int) (int, int, error) {
	mcq, tf := defMCQ, defTF
	if c.MCQ != nil || c.TF != nil {
		mcq, tf = 0, 0
		if c.MCQ != nil {
			mcq = *c.MCQ
		}
		if c.TF != nil {
			tf = *c.TF
		}
	}

	var fields []apperr.FieldError
	if mcq < 0 || mcq > MaxQuestionsPerType {
		fields = append(fields, apperr.FieldError{Field: "mcqCount", Message: fmt.Sprintf("mcqCount must be between 0 and %d.", MaxQuestionsPerType)})
	}
	if tf < 0 || tf > MaxQuestionsPerType {
		fields = append(fields, apperr.FieldError{Field: "tfCount", Message: fmt.Sprintf("tfCount must be between 0 and %d.", MaxQuestionsPerType)})
	}
	if len(fields) == 0 && mcq+tf == 0 {
		fields = append(fields, apperr.FieldError{Field: "mcqCount", Message: "At least one question must be requested."})
	}
	if len(fields) > 0 {
		return 0, 0, apperr.Validation("Validation errors occurred.", fields...)
	}
	return mcq, tf, nil
}

func (s *QuizService) List(ctx context.Context, userID uuid.UUID) ([]models.Quiz, error) {
	return s.store.ListQuizzesByUser(ctx, userID)
}

func (s *QuizService) Get(ctx context.Context, userID, quizID uuid.UUID) (*models.Quiz, error) {
	return s.store.GetQuiz(ctx, quizID, userID)
}

// Generate asks the model for questions first and only then stores the file
// and the quiz, so a failed generation leaves nothing behind.
func (s *QuizService) Generate(ctx context.Context, userID uuid.UUID, upload Upload, counts QuestionCounts) (*models.Quiz, error) {
	if len(upload.Content) == 0 {
		return nil, apperr.Validation("Validation errors occurred.", apperr.FieldError{Field: "file", Message: "A non-empty file is required."})
	}
	if s.maxUpload > 0 && int64(len(upload.Content)) > s.maxUpload {
		return nil, apperr.Validation("Validation errors occurred.", apperr.FieldError{
			Field:   "file",
			Message: fmt.Sprintf("File exceeds the %d MB upload limit.", s.maxUpload/(1<<20)),
		})
	}
	mcq, tf, err := counts.resolve(DefaultMCQCount, DefaultTFCount)
	if err != nil {
		return nil, err
	}

	questions, err := s.ai.Generate(ctx, aiclient.GenerateRequest{
		Filename: filepath.Base(upload.Filename),
		Content:  upload.Content,
		MCQCount: mcq,
		TFCount:  tf,
	})
	if err != nil {
		s.log.Warn("question generation failed", "user_id", userID, "error", err)
		return nil, err
	}

	key := filestore.NewKey(upload.Filename)
	if err := s.files.Save(ctx, key, bytes.NewReader(upload.Content)); err != nil {
		return nil, apperr.Internal("store source file", err)
	}

	quiz := &models.Quiz{
		UserID:     userID,
		Title:      titleFromFilename(upload.Filename),
		SourcePath: key,
		Questions:  questions,
	}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		if derr := s.files.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.log.Error("remove orphaned source file", "key", key, "error", derr)
		}
		return nil, err
	}

	s.log.Info("quiz generated", "user_id", userID, "quiz_id", quiz.ID, "questions", len(quiz.Questions))
	s.events.Publish(userID, EventQuizGenerated, quizEvent{QuizID: quiz.ID, Title: quiz.Title, QuestionCount: len(quiz.Questions)})
	return quiz, nil
}

// Regenerate replaces every question of an owned quiz from its stored source
// document. With keepID false the quiz is recreated under a new id.
func (s *QuizService) Regenerate(ctx context.Context, userID, quizID uuid.UUID, req RegenerateRequest) (*models.Quiz, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID, userID)
	if err != nil {
		return nil, err
	}
	defMCQ, defTF := quiz.CountByType()
	if defMCQ+defTF == 0 {
		defMCQ, defTF = DefaultMCQCount, DefaultTFCount
	}
	mcq, tf, err := req.resolve(defMCQ, defTF)
	if err != nil {
		return nil, err
	}

	content, err := s.readSource(ctx, quiz.SourcePath)
	if err != nil {
		return nil, err
	}
	questions, err := s.ai.Generate(ctx, aiclient.GenerateRequest{
		Filename: quiz.SourcePath,
		Content:  content,
		MCQCount: mcq,
		TFCount:  tf,
	})
	if err != nil {
		s.log.Warn("quiz regeneration failed", "quiz_id", quizID, "error", err)
		return nil, err
	}

	keepID := req.KeepID == nil || *req.KeepID
	var result *models.Quiz
	if keepID {
		result, err = s.store.ReplaceQuizQuestions(ctx, quizID, userID, questions)
		if err != nil {
			return nil, err
		}
	} else {
		replacement := &models.Quiz{
			Title:        quiz.Title,
			SourcePath:   quiz.SourcePath,
			SharedFromID: quiz.SharedFromID,
			Questions:    questions,
		}
		if err := s.store.SwapQuiz(ctx, quizID, userID, replacement); err != nil {
			return nil, err
		}
		if result, err = s.store.GetQuiz(ctx, replacement.ID, userID); err != nil {
			return nil, err
		}
	}

	s.log.Info("quiz regenerated", "quiz_id", result.ID, "previous_id", quizID, "questions", len(result.Questions))
	s.events.Publish(userID, EventQuizRegenerated, quizEvent{
		QuizID:         result.ID,
		PreviousQuizID: quizID,
		Title:          result.Title,
		QuestionCount:  len(result.Questions),
	})
	return result, nil
}

// RegenerateQuestion asks the model for one question of rawType and puts it
// in place of questionID.
func (s *QuizService) RegenerateQuestion(ctx context.Context, userID, quizID, questionID uuid.UUID, rawType string) (*models.Question, error) {
	qType, err := models.ParseQuestionType(rawType)
	if err != nil {
		return nil, apperr.Validation("Validation errors occurred.", apperr.FieldError{
			Field:   "QuestionType",
			Message: "QuestionType must be MCQ or TF.",
		})
	}

	quiz, err := s.store.GetQuiz(ctx, quizID, userID)
	if err != nil {
		return nil, err
	}
	if quiz.Question(questionID) == nil {
		return nil, apperr.NotFound("Question not found in this quiz.")
	}

	content, err := s.readSource(ctx, quiz.SourcePath)
	if err != nil {
		return nil, err
	}
	req := aiclient.GenerateRequest{Filename: quiz.SourcePath, Content: content}
	if qType == models.QuestionTypeMCQ {
		req.MCQCount = 1
	} else {
		req.TFCount = 1
	}
	generated, err := s.ai.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var replacement *models.Question
	for i := range generated {
		if generated[i].Type == qType {
			replacement = &generated[i]
			break
		}
	}
	if replacement == nil {
		return nil, apperr.Upstream("AI model did not return a question of the requested type.", 0, "", nil)
	}

	question, err := s.store.ReplaceQuestion(ctx, quizID, questionID, userID, replacement)
	if err != nil {
		return nil, err
	}
	s.log.Info("question regenerated", "quiz_id", quizID, "old_id", questionID, "new_id", question.ID)
	s.events.Publish(userID, EventQuestionRegenerated, questionEvent{QuizID: quizID, QuestionID: question.ID, PreviousQuestionID: questionID})
	return question, nil
}

func (s *QuizService) Rename(ctx context.Context, userID, quizID uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 1 || n > MaxQuizNameLength {
		return apperr.Validation("Validation errors occurred.", apperr.FieldError{
			Field:   "name",
			Message: fmt.Sprintf("Quiz name must be between 1 and %d characters.", MaxQuizNameLength),
		})
	}
	if err := s.store.RenameQuiz(ctx, quizID, userID, name); err != nil {
		return err
	}
	s.events.Publish(userID, EventQuizRenamed, quizEvent{QuizID: quizID, Title: name})
	return nil
}

// Delete removes an owned quiz. The source file goes too once no other quiz
// points at it; failing to remove it is only logged.
func (s *QuizService) Delete(ctx context.Context, userID, quizID uuid.UUID) error {
	sourcePath, err := s.store.DeleteQuiz(ctx, quizID, userID)
	if err != nil {
		return err
	}
	s.removeSourceIfUnused(context.WithoutCancel(ctx), sourcePath)
	s.log.Info("quiz deleted", "user_id", userID, "quiz_id", quizID)
	s.events.Publish(userID, EventQuizDeleted, quizEvent{QuizID: quizID})
	return nil
}

func (s *QuizService) DeleteQuestion(ctx context.Context, userID, quizID, questionID uuid.UUID) error {
	if err := s.store.DeleteQuestion(ctx, quizID, questionID, userID); err != nil {
		return err
	}
	s.events.Publish(userID, EventQuestionDeleted, questionEvent{QuizID: quizID, QuestionID: questionID})
	return nil
}

func (s *QuizService) readSource(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, apperr.NotFound(msgSourceMissing)
	}
	exists, err := s.files.Exists(ctx, key)
	if err != nil {
		return nil, apperr.Internal("check source file", err)
	}
	if !exists {
		return nil, apperr.NotFound(msgSourceMissing)
	}
	rc, err := s.files.Open(ctx, key)
	if errors.Is(err, filestore.ErrNotFound) {
		return nil, apperr.NotFound(msgSourceMissing)
	}
	if err != nil {
		return nil, apperr.Internal("open source file", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperr.Internal("read source file", err)
	}
	return content, nil
}

func (s *QuizService) removeSourceIfUnused(ctx context.Context, key string) {
	if key == "" {
		return
	}
	remaining, err := s.store.CountQuizzesBySource(ctx, key)
	if err != nil {
		s.log.Error("count quizzes by source", "key", key, "error", err)
		return
	}
	if remaining > 0 {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		s.log.Error("delete source file", "key", key, "error", err)
	}
}

func titleFromFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	title := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if title == "" || title == "." || title == "/" {
		return "Untitled quiz"
	}
	if utf8.RuneCountInString(title) > MaxQuizNameLength {
		title = string([]rune(title)[:MaxQuizNameLength])
	}
	return title
}

type quizEvent struct {
	QuizID         uuid.UUID `json:"quizId"`
	PreviousQuizID uuid.UUID `json:"previousQuizId,omitempty"`
	Title          string    `json:"title,omitempty"`
	QuestionCount  int       `json:"questionCount,omitempty"`
}

type questionEvent struct {
	QuizID             uuid.UUID `json:"quizId"`
	QuestionID         uuid.UUID `json:"questionId"`
	PreviousQuestionID uuid.UUID `json:"previousQuestionId,omitempty"`
}
