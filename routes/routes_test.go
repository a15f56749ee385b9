package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"quizai/aiclient"
	"quizai/filestore"
	"quizai/handlers"
	"quizai/mailer"
	"quizai/middleware"
	"quizai/ratelimit"
	"quizai/security"
	"quizai/services"
	"quizai/store"
	"quizai/store/storetest"
)

var (
	codeRe  = regexp.MustCompile(`Verification Code: ([0-9]{6})`)
	resetRe = regexp.MustCompile(`/change-password/([A-Z0-9]{6})`)
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	return m.lastMatch(t, codeRe)
}

func (m *captureMailer) lastResetCode(t *testing.T) string {
	t.Helper()
	return m.lastMatch(t, resetRe)
}

func (m *captureMailer) lastMatch(t *testing.T, re *regexp.Regexp) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("no email sent")
	}
	match := re.FindStringSubmatch(m.sent[len(m.sent)-1].Text)
	if match == nil {
		t.Fatalf("no code in email: %q", m.sent[len(m.sent)-1].Text)
	}
	return match[1]
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// fakeModel answers ask_ai_model with the requested number of questions.
func fakeModel(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ask_ai_model" {
			w.WriteHeader(http.StatusOK)
			return
		}
		mcq, _ := strconv.Atoi(r.URL.Query().Get("mcq_count"))
		tf, _ := strconv.Atoi(r.URL.Query().Get("tf_count"))
		type item struct {
			Question string   `json:"question"`
			Options  []string `json:"options,omitempty"`
			Answer   string   `json:"answer"`
		}
		body := struct {
			Filename  string `json:"filename"`
			Questions struct {
				MultipleChoice []item `json:"multiple_choice"`
				TrueFalse      []item `json:"true_false"`
			} `json:"questions"`
		}{Filename: "notes.pdf"}
		for i := 0; i < mcq; i++ {
			body.Questions.MultipleChoice = append(body.Questions.MultipleChoice, item{
				Question: fmt.Sprintf("Question %d?", i+1),
				Options:  []string{"A) One", "B) Two", "C) Three", "D) Four"},
				Answer:   "B) Two",
			})
		}
		for i := 0; i < tf; i++ {
			body.Questions.TrueFalse = append(body.Questions.TrueFalse, item{Question: fmt.Sprintf("Statement %d.", i+1), Answer: "True"})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testServer struct {
	router *gin.Engine
	mail   *captureMailer
	hub    *services.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := storetest.DB(t)
	st := store.New(db)
	files, err := filestore.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	ai, err := aiclient.New(aiclient.Options{BaseURL: fakeModel(t).URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("ai client: %v", err)
	}
	mail := &captureMailer{}
	tokens := security.NewTokenIssuer("test-secret", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := services.NewHub(nil)
	go hub.Run(ctx)

	authService := services.NewAuthService(st, tokens, mail, ratelimit.NewMemory(), services.AuthConfig{FrontendURL: "http://localhost:3000"}, nil)
	quizService := services.NewQuizService(st, ai, files, hub, 1<<20, nil)
	shareService := services.NewShareService(st, hub, 0, nil)
	submissionService := services.NewSubmissionService(st, 50, nil)
	healthService := services.NewHealthService(st, ai, t.TempDir(), 0, nil)

	router := gin.New()
	router.Use(middleware.Recovery(nil))
	SetupRoutes(router,
		handlers.NewAuthHandler(authService),
		handlers.NewQuizHandler(quizService, shareService, 1<<20),
		handlers.NewSubmissionHandler(submissionService),
		handlers.NewHealthHandler(healthService),
		handlers.NewEventsHandler(hub, nil, nil),
		tokens,
	)
	return &testServer{router: router, mail: mail, hub: hub}
}

type envelope struct {
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, APIPrefix+path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (int, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v (%s)", req.Method, req.URL, err, rec.Body.String())
	}
	if env.Status != rec.Code {
		t.Fatalf("envelope status %d != http status %d", env.Status, rec.Code)
	}
	return rec.Code, env
}

func decode(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}

func (s *testServer) signup(t *testing.T, email string) handlers.SignupResponse {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/Signup", "", map[string]string{
		"email": email, "password": "Secret1!", "name": "Test User",
	})
	if code != http.StatusOK {
		t.Fatalf("signup: %d %+v", code, env.Error)
	}
	var signup handlers.SignupResponse
	decode(t, env, &signup)
	if signup.EmailDelivery != services.EmailDeliverySent {
		t.Fatalf("email delivery %q", signup.EmailDelivery)
	}
	return signup
}

// register signs up, verifies and logs in, returning the session token.
func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	signup := s.signup(t, email)

	verifyPath := fmt.Sprintf("/VerifyNewUser?UserID=%s&token=%s", signup.User.ID, s.mail.lastCode(t))
	if code, env := s.do(t, http.MethodPost, verifyPath, "", nil); code != http.StatusOK {
		t.Fatalf("verify: %d %+v", code, env.Error)
	}

	code, env := s.do(t, http.MethodPost, "/Login", "", map[string]string{"email": email, "password": "Secret1!"})
	if code != http.StatusOK {
		t.Fatalf("login: %d %+v", code, env.Error)
	}
	var login handlers.LoginResponse
	decode(t, env, &login)
	if login.Token == "" || login.User.Email != email {
		t.Fatalf("unexpected login %+v", login)
	}
	return login.Token
}

func (s *testServer) generate(t *testing.T, token string, mcq, tf int) handlers.QuizResponse {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "biology.pdf")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write([]byte("%PDF-1.4 cells and membranes"))
	_ = w.WriteField("mcqCount", strconv.Itoa(mcq))
	_ = w.WriteField("tfCount", strconv.Itoa(tf))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, APIPrefix+"/Quiz/Generate", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	code, env := s.send(t, req, token)
	if code != http.StatusCreated {
		t.Fatalf("generate: %d %+v", code, env.Error)
	}
	var quiz handlers.QuizResponse
	decode(t, env, &quiz)
	return quiz
}

func (s *testServer) exams(t *testing.T, token string) []handlers.QuizSummary {
	t.Helper()
	code, env := s.do(t, http.MethodGet, "/exams", token, nil)
	if code != http.StatusOK {
		t.Fatalf("exams: %d %+v", code, env.Error)
	}
	var list handlers.QuizListResponse
	decode(t, env, &list)
	return list.QuizzesInfo
}

func TestSignupVerifyLoginFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice@example.com")

	if got := s.exams(t, token); len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}

	code, env := s.do(t, http.MethodPost, "/Login", "", map[string]string{"email": "alice@example.com", "password": "Wrong123!"})
	if code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "AUTH_FAILED" {
		t.Fatalf("bad password: %d %+v", code, env.Error)
	}
}

func TestSignupValidationEnvelope(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodPost, "/Signup", "", map[string]string{"email": "nope", "password": "x", "name": "A"})
	if code != http.StatusBadRequest || env.Success || env.Message != "Validation errors occurred." {
		t.Fatalf("unexpected response %d %+v", code, env)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("unexpected error %+v", env.Error)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodGet, "/exams", "", nil)
	if code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "AUTH_FAILED" {
		t.Fatalf("expected 401 envelope, got %d %+v", code, env.Error)
	}
}

func TestGenerateReturnsRequestedQuestions(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "bob@example.com")

	quiz := s.generate(t, token, 3, 2)
	if len(quiz.Questions) != 5 || quiz.TotalMarks != 5 {
		t.Fatalf("expected 5 questions, got %d", len(quiz.Questions))
	}
	list := s.exams(t, token)
	if len(list) != 1 || list[0].QuizID != quiz.QuizID || list[0].QuestionCount != 5 {
		t.Fatalf("unexpected list %+v", list)
	}

	code, env := s.do(t, http.MethodGet, "/Quiz/"+quiz.QuizID.String()+"?QuizTitle=ignored", token, nil)
	if code != http.StatusOK {
		t.Fatalf("get quiz: %d %+v", code, env.Error)
	}
	var got handlers.QuizResponse
	decode(t, env, &got)
	if got.Title != "biology" {
		t.Fatalf("title %q", got.Title)
	}

	answers := make([]map[string]string, 0, len(got.Questions))
	for _, q := range got.Questions {
		answers = append(answers, map[string]string{"questionId": q.QuestionID.String(), "selectedOption": q.SuggestedAnswer})
	}
	code, env = s.do(t, http.MethodPost, "/submit", token, map[string]interface{}{"examId": quiz.QuizID, "answers": answers})
	if code != http.StatusOK {
		t.Fatalf("submit: %d %+v", code, env.Error)
	}
	var sub handlers.SubmissionResponse
	decode(t, env, &sub)
	if sub.Score != 5 || sub.Total != 5 || !sub.Passed {
		t.Fatalf("unexpected result %+v", sub)
	}
}

func TestCreateDeleteQuiz(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "carol@example.com")
	quiz := s.generate(t, token, 1, 1)
	path := "/quiz/delete?QuizID=" + quiz.QuizID.String()

	if code, env := s.do(t, http.MethodDelete, path, token, nil); code != http.StatusOK {
		t.Fatalf("delete: %d %+v", code, env.Error)
	}
	if got := s.exams(t, token); len(got) != 0 {
		t.Fatalf("quiz still listed")
	}
	code, env := s.do(t, http.MethodGet, "/Quiz/"+quiz.QuizID.String(), token, nil)
	if code != http.StatusNotFound || env.Error.Code != "RESOURCE_NOT_FOUND" {
		t.Fatalf("get deleted: %d %+v", code, env.Error)
	}
	if code, _ := s.do(t, http.MethodDelete, path, token, nil); code != http.StatusNotFound {
		t.Fatalf("second delete: %d", code)
	}
}

func TestShareAndRedeem(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice@example.com")
	bob := s.register(t, "bob@example.com")
	quiz := s.generate(t, alice, 2, 1)

	code, env := s.do(t, http.MethodPost, "/Share?QuizID="+quiz.QuizID.String(), alice, nil)
	if code != http.StatusOK {
		t.Fatalf("share: %d %+v", code, env.Error)
	}
	var share handlers.ShareResponse
	decode(t, env, &share)

	code, env = s.do(t, http.MethodPost, "/ShareVerify?Token="+share.Token, bob, nil)
	if code != http.StatusOK {
		t.Fatalf("redeem: %d %+v", code, env.Error)
	}
	var redeemed handlers.RedeemResponse
	decode(t, env, &redeemed)
	if !redeemed.Created || redeemed.Quiz.QuestionCount != 3 {
		t.Fatalf("unexpected redemption %+v", redeemed)
	}

	code, env = s.do(t, http.MethodPost, "/ShareVerify?Token="+share.Token, bob, nil)
	if code != http.StatusOK {
		t.Fatalf("second redeem: %d %+v", code, env.Error)
	}
	decode(t, env, &redeemed)
	if redeemed.Created {
		t.Fatalf("second redemption created a copy")
	}

	list := s.exams(t, bob)
	if len(list) != 1 || list[0].SharedFromID == nil || *list[0].SharedFromID != quiz.QuizID {
		t.Fatalf("unexpected list for recipient %+v", list)
	}
	if got := s.exams(t, alice); len(got) != 1 {
		t.Fatalf("owner list changed: %d", len(got))
	}
}

func TestRenameAndDeleteQuestionOwnership(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice@example.com")
	mallory := s.register(t, "mallory@example.com")
	quiz := s.generate(t, alice, 2, 0)

	code, _ := s.do(t, http.MethodPut, "/"+quiz.QuizID.String()+"/rename", mallory, map[string]string{"name": "Mine now"})
	if code != http.StatusNotFound {
		t.Fatalf("foreign rename: %d", code)
	}
	code, _ = s.do(t, http.MethodPut, "/"+quiz.QuizID.String()+"/rename", alice, map[string]string{"name": "Cells"})
	if code != http.StatusOK {
		t.Fatalf("rename: %d", code)
	}

	path := fmt.Sprintf("/Questions/delete?QuestionID=%s&QuizID=%s", quiz.Questions[0].QuestionID, quiz.QuizID)
	if code, _ := s.do(t, http.MethodDelete, path, mallory, nil); code != http.StatusNotFound {
		t.Fatalf("foreign question delete: %d", code)
	}
	if code, _ := s.do(t, http.MethodDelete, path, alice, nil); code != http.StatusOK {
		t.Fatalf("question delete: %d", code)
	}

	list := s.exams(t, alice)
	if len(list) != 1 || list[0].QuizTitle != "Cells" || list[0].TotalMarks != 1 {
		t.Fatalf("unexpected quiz %+v", list)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", APIPrefix + "/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		code, env := s.send(t, req, "")
		if code != http.StatusOK {
			t.Fatalf("%s: %d", path, code)
		}
		var health handlers.HealthResponse
		decode(t, env, &health)
		if !health.DBConReadiness || !health.AIModelReadiness {
			t.Fatalf("%s: unexpected report %+v", path, health)
		}
	}
}

func TestPasswordResetFlow(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "dana@example.com")

	if code, env := s.do(t, http.MethodPost, "/Forgot-Password", "", map[string]string{"email": "dana@example.com"}); code != http.StatusOK {
		t.Fatalf("forgot password: %d %+v", code, env.Error)
	}
	resetCode := s.mail.lastResetCode(t)

	if code, env := s.do(t, http.MethodGet, "/VerifyForgetPasswordToken?token="+resetCode, "", nil); code != http.StatusOK {
		t.Fatalf("verify reset token: %d %+v", code, env.Error)
	}

	code, env := s.do(t, http.MethodPost, "/ResetPassword?password=Fresh1Pass!", "", nil)
	if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "TOKEN_INVALID" {
		t.Fatalf("reset without token: %d %+v", code, env.Error)
	}

	code, env = s.do(t, http.MethodPost, "/ResetPassword", "", map[string]string{"password": "Fresh1Pass!", "token": strings.ToLower(resetCode)})
	if code != http.StatusOK {
		t.Fatalf("reset from body: %d %+v", code, env.Error)
	}

	code, env = s.do(t, http.MethodGet, "/VerifyForgetPasswordToken?token="+resetCode, "", nil)
	if code != http.StatusBadRequest || env.Error.Code != "TOKEN_INVALID" {
		t.Fatalf("used token still valid: %d %+v", code, env.Error)
	}
	if code, _ := s.do(t, http.MethodPost, "/Login", "", map[string]string{"email": "dana@example.com", "password": "Secret1!"}); code != http.StatusUnauthorized {
		t.Fatalf("old password accepted: %d", code)
	}
	if code, env := s.do(t, http.MethodPost, "/Login", "", map[string]string{"email": "dana@example.com", "password": "Fresh1Pass!"}); code != http.StatusOK {
		t.Fatalf("new password rejected: %d %+v", code, env.Error)
	}
}

func TestResendVerification(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "erin@example.com")
	sent := s.mail.count()

	code, env := s.do(t, http.MethodPost, "/ResendVerification", "", map[string]string{"email": "erin@example.com"})
	if code != http.StatusTooManyRequests || env.Error.Code != "RATE_LIMITED" {
		t.Fatalf("resend inside cooldown: %d %+v", code, env.Error)
	}
	if code, _ := s.do(t, http.MethodPost, "/ResendVerification", "", map[string]string{"email": "nobody@example.com"}); code != http.StatusOK {
		t.Fatalf("unknown email: %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/ResendVerification", "", map[string]string{"email": "not-an-email"}); code != http.StatusBadRequest {
		t.Fatalf("invalid email: %d", code)
	}
	if s.mail.count() != sent {
		t.Fatalf("unexpected email sent")
	}

	code, env = s.do(t, http.MethodPost, "/Login", "", map[string]string{"email": "erin@example.com", "password": "Secret1!"})
	if code != http.StatusForbidden || env.Error.Code != "EMAIL_NOT_VERIFIED" {
		t.Fatalf("unverified login: %d %+v", code, env.Error)
	}
}

func TestRegenerateRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "frank@example.com")
	quiz := s.generate(t, token, 2, 1)

	code, env := s.do(t, http.MethodPost, "/Quiz/Regenerate?QuizID="+quiz.QuizID.String(), token, nil)
	if code != http.StatusOK {
		t.Fatalf("regenerate without body: %d %+v", code, env.Error)
	}
	var same handlers.QuizResponse
	decode(t, env, &same)
	if same.QuizID != quiz.QuizID || len(same.Questions) != 3 {
		t.Fatalf("expected same id and mix, got %s with %d questions", same.QuizID, len(same.Questions))
	}

	code, env = s.do(t, http.MethodPost, "/Quiz/Regenerate?QuizID="+quiz.QuizID.String(), token,
		map[string]interface{}{"mcqCount": 1, "tfCount": 0, "keepId": false})
	if code != http.StatusOK {
		t.Fatalf("regenerate with new id: %d %+v", code, env.Error)
	}
	var fresh handlers.QuizResponse
	decode(t, env, &fresh)
	if fresh.QuizID == quiz.QuizID || len(fresh.Questions) != 1 {
		t.Fatalf("unexpected regenerated quiz %+v", fresh)
	}
	if code, _ := s.do(t, http.MethodGet, "/Quiz/"+quiz.QuizID.String(), token, nil); code != http.StatusNotFound {
		t.Fatalf("old quiz still readable: %d", code)
	}

	path := fmt.Sprintf("/regenerate-question?QuizID=%s&QuestionID=%s&QuestionType=tf", fresh.QuizID, fresh.Questions[0].QuestionID)
	code, env = s.do(t, http.MethodPost, path, token, nil)
	if code != http.StatusOK {
		t.Fatalf("regenerate question: %d %+v", code, env.Error)
	}
	var question handlers.QuestionResponse
	decode(t, env, &question)
	if question.Type != "TF" || question.QuestionID == fresh.Questions[0].QuestionID {
		t.Fatalf("unexpected question %+v", question)
	}

	path = fmt.Sprintf("/regenerate-question?QuizID=%s&QuestionID=%s&QuestionType=essay", fresh.QuizID, question.QuestionID)
	if code, _ := s.do(t, http.MethodPost, path, token, nil); code != http.StatusBadRequest {
		t.Fatalf("bad question type: %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/Quiz/Regenerate?QuizID=nope", token, nil); code != http.StatusBadRequest {
		t.Fatalf("bad quiz id: %d", code)
	}
}

func TestSubmissionHistoryRoute(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "gina@example.com")
	quiz := s.generate(t, token, 1, 1)

	answers := []map[string]string{
		{"questionId": quiz.Questions[0].QuestionID.String(), "selectedOption": "a"},
		{"questionId": quiz.Questions[1].QuestionID.String(), "selectedOptionId": quiz.Questions[1].Choices[0].ChoiceID.String()},
	}
	if code, env := s.do(t, http.MethodPost, "/submit", token, map[string]interface{}{"examId": quiz.QuizID, "answers": answers}); code != http.StatusOK {
		t.Fatalf("submit: %d %+v", code, env.Error)
	}
	if code, _ := s.do(t, http.MethodPost, "/submit", token, map[string]interface{}{"examId": quiz.QuizID, "answers": []string{}}); code != http.StatusBadRequest {
		t.Fatalf("empty submission: %d", code)
	}

	code, env := s.do(t, http.MethodGet, "/submissions?QuizID="+quiz.QuizID.String(), token, nil)
	if code != http.StatusOK {
		t.Fatalf("list submissions: %d %+v", code, env.Error)
	}
	var list handlers.SubmissionListResponse
	decode(t, env, &list)
	if len(list.Submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(list.Submissions))
	}
	if got := list.Submissions[0]; got.Score != 1 || got.Total != 2 || len(got.Answers) != 2 {
		t.Fatalf("unexpected submission %+v", got)
	}

	if code, _ := s.do(t, http.MethodGet, "/submissions", token, nil); code != http.StatusBadRequest {
		t.Fatalf("missing quiz id: %d", code)
	}
}

func TestEventsSocket(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "hank@example.com")
	quiz := s.generate(t, token, 1, 0)

	if code, env := s.do(t, http.MethodGet, "/ws", "", nil); code != http.StatusUnauthorized || env.Error.Code != "AUTH_FAILED" {
		t.Fatalf("socket without token: %d", code)
	}

	srv := httptest.NewServer(s.router)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + APIPrefix + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	claims, err := security.NewTokenIssuer("test-secret", time.Hour).Parse(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	userID, _ := claims.UserID()
	deadline := time.Now().Add(2 * time.Second)
	for s.hub.ConnectedClients(userID) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("socket never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(services.Message{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var msg services.Message
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "pong" {
		t.Fatalf("expected pong, got %+v (%v)", msg, err)
	}

	if code, _ := s.do(t, http.MethodPut, "/"+quiz.QuizID.String()+"/rename", token, map[string]string{"name": "Renamed"}); code != http.StatusOK {
		t.Fatalf("rename: %d", code)
	}
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != services.EventQuizRenamed {
		t.Fatalf("expected rename event, got %+v (%v)", msg, err)
	}
}
