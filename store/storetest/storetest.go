// Package storetest opens throwaway sqlite databases for tests.
package storetest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"quizai/models"
	"quizai/security"
)

// DB returns a migrated in-memory database private to tb.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// Transactions and plain queries must share the one in-memory connection.
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// User inserts a verified user with password "Abcdef1!".
func User(tb testing.TB, db *gorm.DB, email string) *models.User {
	tb.Helper()
	hash, salt, err := security.NewPasswordHash("Abcdef1!")
	if err != nil {
		tb.Fatalf("hash: %v", err)
	}
	user := &models.User{
		Email:         strings.ToLower(email),
		Name:          "Test User",
		PasswordHash:  hash,
		PasswordSalt:  salt,
		EmailVerified: true,
	}
	if err := db.Create(user).Error; err != nil {
		tb.Fatalf("create user: %v", err)
	}
	return user
}

// Quiz inserts a quiz owned by userID with mcq multiple-choice and tf
// true/false questions. Every correct answer is the first choice.
func Quiz(tb testing.TB, db *gorm.DB, userID uuid.UUID, mcq, tf int) *models.Quiz {
	tb.Helper()
	quiz := &models.Quiz{
		UserID:     userID,
		Title:      "notes.pdf",
		SourcePath: uuid.NewString() + ".pdf",
		CreatedAt:  time.Now().UTC(),
	}
	for i := 0; i < mcq; i++ {
		quiz.Questions = append(quiz.Questions, models.Question{
			Type:            models.QuestionTypeMCQ,
			Content:         fmt.Sprintf("Multiple choice question %d?", i+1),
			SuggestedAnswer: "A",
			Position:        len(quiz.Questions),
			Choices: []models.Choice{
				{Text: "A) Right", Position: 0},
				{Text: "B) Wrong", Position: 1},
				{Text: "C) Also wrong", Position: 2},
				{Text: "D) Still wrong", Position: 3},
			},
		})
	}
	for i := 0; i < tf; i++ {
		quiz.Questions = append(quiz.Questions, models.Question{
			Type:            models.QuestionTypeTF,
			Content:         fmt.Sprintf("True or false %d?", i+1),
			SuggestedAnswer: "True",
			Position:        len(quiz.Questions),
			Choices:         []models.Choice{{Text: "True", Position: 0}, {Text: "False", Position: 1}},
		})
	}
	quiz.TotalMarks = len(quiz.Questions)
	if err := db.Create(quiz).Error; err != nil {
		tb.Fatalf("create quiz: %v", err)
	}
	return quiz
}

// Count returns the number of rows of model matching the optional condition.
func Count(tb testing.TB, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	tb.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		tb.Fatalf("count: %v", err)
	}
	return n
}
