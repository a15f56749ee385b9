package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"quizai/aiclient"
	"quizai/filestore"
	"quizai/mailer"
	"quizai/models"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls []aiclient.GenerateRequest
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, req aiclient.GenerateRequest) ([]models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return generatedQuestions(req.MCQCount, req.TFCount), nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeGenerator) lastCall() aiclient.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func generatedQuestions(mcq, tf int) []models.Question {
	var out []models.Question
	for i := 0; i < mcq; i++ {
		out = append(out, models.Question{
			Type:            models.QuestionTypeMCQ,
			Content:         fmt.Sprintf("Generated MCQ %d?", i+1),
			SuggestedAnswer: "B",
			Choices: []models.Choice{
				{Text: "A) Lyon"}, {Text: "B) Paris"}, {Text: "C) Nice"}, {Text: "D) Lille"},
			},
		})
	}
	for i := 0; i < tf; i++ {
		out = append(out, models.Question{
			Type:            models.QuestionTypeTF,
			Content:         fmt.Sprintf("Generated TF %d?", i+1),
			SuggestedAnswer: "False",
			Choices:         []models.Choice{{Text: "True"}, {Text: "False"}},
		})
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(userID uuid.UUID, eventType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType+":"+userID.String())
}

func (p *recordingPublisher) has(userID uuid.UUID, eventType string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e == eventType+":"+userID.String() {
			return true
		}
	}
	return false
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last(t *testing.T) mailer.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("no email sent")
	}
	return m.sent[len(m.sent)-1]
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newLocalFiles(t *testing.T) *filestore.Local {
	t.Helper()
	files, err := filestore.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	return files
}

func saveSource(t *testing.T, files filestore.Store, key string) {
	t.Helper()
	if err := files.Save(context.Background(), key, strings.NewReader("lecture notes")); err != nil {
		t.Fatalf("save source: %v", err)
	}
}

func fileExists(t *testing.T, files filestore.Store, key string) bool {
	t.Helper()
	ok, err := files.Exists(context.Background(), key)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	return ok
}

func pdfUpload(name string) Upload {
	return Upload{Filename: name, Content: bytes.Repeat([]byte("%PDF-1.4 "), 8)}
}

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }
