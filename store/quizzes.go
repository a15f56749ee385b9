package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"quizai/apperr"
	"quizai/models"
)

const msgQuizNotFound = "Quiz not found or you do not have permission to access it."

func (s *Store) ListQuizzesByUser(ctx context.Context, userID uuid.UUID) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := withQuestions(s.conn(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&quizzes).Error
	if err != nil {
		return nil, mapError("list quizzes", err)
	}
	return quizzes, nil
}

// GetQuiz loads a quiz owned by userID with its questions and choices.
func (s *Store) GetQuiz(ctx context.Context, quizID, userID uuid.UUID) (*models.Quiz, error) {
	return getOwnedQuiz(s.conn(ctx), quizID, userID)
}

func getOwnedQuiz(db *gorm.DB, quizID, userID uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	err := withQuestions(db).Where("id = ? AND user_id = ?", quizID, userID).First(&quiz).Error
	if err != nil {
		return nil, notFoundOr("get quiz", err, msgQuizNotFound)
	}
	return &quiz, nil
}

func ensureOwned(tx *gorm.DB, quizID, userID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Quiz{}).Where("id = ? AND user_id = ?", quizID, userID).Count(&count).Error; err != nil {
		return mapError("check quiz owner", err)
	}
	if count == 0 {
		return apperr.NotFound(msgQuizNotFound)
	}
	return nil
}

// CreateQuiz inserts the quiz with its questions and choices.
func (s *Store) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	prepareQuestions(quiz.Questions)
	quiz.TotalMarks = len(quiz.Questions)

	tx := s.conn(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(quiz).Error; err != nil {
		tx.Rollback()
		return mapError("create quiz", err)
	}

	return mapError("commit create quiz", tx.Commit().Error)
}

// ReplaceQuizQuestions swaps every question of an owned quiz, keeping its id.
func (s *Store) ReplaceQuizQuestions(ctx context.Context, quizID, userID uuid.UUID, questions []models.Question) (*models.Quiz, error) {
	var quiz *models.Quiz
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureOwned(tx, quizID, userID); err != nil {
			return err
		}
		if err := deleteQuestionRows(tx, "quiz_id = ?", quizID); err != nil {
			return err
		}

		prepareQuestions(questions)
		for i := range questions {
			questions[i].QuizID = quizID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return mapError("insert questions", err)
			}
		}
		if err := tx.Model(&models.Quiz{}).Where("id = ?", quizID).
			Updates(map[string]interface{}{"total_marks": len(questions), "updated_at": time.Now().UTC()}).Error; err != nil {
			return mapError("update total marks", err)
		}

		var err error
		quiz, err = getOwnedQuiz(tx, quizID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

// SwapQuiz deletes an owned quiz and inserts replacement in its place under
// a new id. A share redemption that produced the old quiz follows it to the
// replacement.
func (s *Store) SwapQuiz(ctx context.Context, oldID, userID uuid.UUID, replacement *models.Quiz) error {
	prepareQuestions(replacement.Questions)
	replacement.TotalMarks = len(replacement.Questions)
	replacement.UserID = userID
	if replacement.ID == uuid.Nil || replacement.ID == oldID {
		replacement.ID = uuid.New()
	}

	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureOwned(tx, oldID, userID); err != nil {
			return err
		}
		if err := tx.Model(&models.ShareRedemption{}).
			Where("quiz_id = ? AND recipient_id = ?", oldID, userID).
			Update("quiz_id", replacement.ID).Error; err != nil {
			return mapError("move share redemption", err)
		}
		if err := deleteQuizRows(tx, oldID); err != nil {
			return err
		}
		if err := tx.Create(replacement).Error; err != nil {
			return mapError("insert replacement quiz", err)
		}
		return nil
	})
}

func (s *Store) RenameQuiz(ctx context.Context, quizID, userID uuid.UUID, title string) error {
	res := s.conn(ctx).Model(&models.Quiz{}).
		Where("id = ? AND user_id = ?", quizID, userID).
		Updates(map[string]interface{}{"title": title, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return mapError("rename quiz", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(msgQuizNotFound)
	}
	return nil
}

// DeleteQuiz removes an owned quiz and everything hanging off it. It returns
// the source path so the caller can clean up the file.
func (s *Store) DeleteQuiz(ctx context.Context, quizID, userID uuid.UUID) (string, error) {
	var sourcePath string
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var quiz models.Quiz
		if err := tx.Where("id = ? AND user_id = ?", quizID, userID).First(&quiz).Error; err != nil {
			return notFoundOr("find quiz", err, msgQuizNotFound)
		}
		sourcePath = quiz.SourcePath
		return deleteQuizRows(tx, quizID)
	})
	return sourcePath, err
}

func (s *Store) CountQuizzesBySource(ctx context.Context, sourcePath string) (int64, error) {
	var count int64
	if err := s.conn(ctx).Model(&models.Quiz{}).Where("source_path = ?", sourcePath).Count(&count).Error; err != nil {
		return 0, mapError("count quizzes by source", err)
	}
	return count, nil
}

// DeleteQuestion removes one question of an owned quiz and recomputes the
// quiz's total marks.
func (s *Store) DeleteQuestion(ctx context.Context, quizID, questionID, userID uuid.UUID) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureOwned(tx, quizID, userID); err != nil {
			return err
		}
		if _, err := findQuestion(tx, quizID, questionID); err != nil {
			return err
		}
		if err := deleteQuestionRows(tx, "id = ?", questionID); err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.Question{}).Where("quiz_id = ?", quizID).Count(&remaining).Error; err != nil {
			return mapError("count questions", err)
		}
		if err := tx.Model(&models.Quiz{}).Where("id = ?", quizID).
			Updates(map[string]interface{}{"total_marks": remaining, "updated_at": time.Now().UTC()}).Error; err != nil {
			return mapError("update total marks", err)
		}
		return nil
	})
}

// ReplaceQuestion swaps one question for replacement, which takes a new id
// and the old question's position.
func (s *Store) ReplaceQuestion(ctx context.Context, quizID, questionID, userID uuid.UUID, replacement *models.Question) (*models.Question, error) {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureOwned(tx, quizID, userID); err != nil {
			return err
		}
		old, err := findQuestion(tx, quizID, questionID)
		if err != nil {
			return err
		}
		if err := deleteQuestionRows(tx, "id = ?", questionID); err != nil {
			return err
		}

		replacement.ID = uuid.Nil
		replacement.QuizID = quizID
		replacement.Position = old.Position
		for i := range replacement.Choices {
			replacement.Choices[i].ID = uuid.Nil
			replacement.Choices[i].Position = i
		}
		if err := tx.Create(replacement).Error; err != nil {
			return mapError("insert question", err)
		}
		return tx.Model(&models.Quiz{}).Where("id = ?", quizID).
			Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		return nil, mapError("replace question", err)
	}
	return replacement, nil
}

func findQuestion(tx *gorm.DB, quizID, questionID uuid.UUID) (*models.Question, error) {
	var question models.Question
	if err := tx.Where("id = ? AND quiz_id = ?", questionID, quizID).First(&question).Error; err != nil {
		return nil, notFoundOr("find question", err, "Question not found in this quiz.")
	}
	return &question, nil
}

// deleteQuestionRows deletes the questions matching cond and their choices.
func deleteQuestionRows(tx *gorm.DB, cond string, arg interface{}) error {
	ids := tx.Model(&models.Question{}).Select("id").Where(cond, arg)
	if err := tx.Where("question_id IN (?)", ids).Delete(&models.Choice{}).Error; err != nil {
		return mapError("delete choices", err)
	}
	if err := tx.Where(cond, arg).Delete(&models.Question{}).Error; err != nil {
		return mapError("delete questions", err)
	}
	return nil
}

func deleteQuizRows(tx *gorm.DB, quizID uuid.UUID) error {
	if err := deleteQuestionRows(tx, "quiz_id = ?", quizID); err != nil {
		return err
	}

	submissions := tx.Model(&models.Submission{}).Select("id").Where("quiz_id = ?", quizID)
	if err := tx.Where("submission_id IN (?)", submissions).Delete(&models.SubmissionAnswer{}).Error; err != nil {
		return mapError("delete submission answers", err)
	}
	if err := tx.Where("quiz_id = ?", quizID).Delete(&models.Submission{}).Error; err != nil {
		return mapError("delete submissions", err)
	}

	tokens := tx.Model(&models.ShareToken{}).Select("id").Where("quiz_id = ?", quizID)
	if err := tx.Where("share_token_id IN (?) OR quiz_id = ?", tokens, quizID).Delete(&models.ShareRedemption{}).Error; err != nil {
		return mapError("delete share redemptions", err)
	}
	if err := tx.Where("quiz_id = ?", quizID).Delete(&models.ShareToken{}).Error; err != nil {
		return mapError("delete share tokens", err)
	}

	if err := tx.Where("id = ?", quizID).Delete(&models.Quiz{}).Error; err != nil {
		return mapError("delete quiz", err)
	}
	return nil
}

// prepareQuestions assigns positions and clears ids so inserts get fresh
// rows.
func prepareQuestions(questions []models.Question) {
	for i := range questions {
		questions[i].ID = uuid.Nil
		questions[i].Position = i
		for j := range questions[i].Choices {
			questions[i].Choices[j].ID = uuid.Nil
			questions[i].Choices[j].QuestionID = uuid.Nil
			questions[i].Choices[j].Position = j
		}
	}
}
