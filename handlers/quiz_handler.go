package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"quizai/apperr"
	"quizai/response"
	"quizai/services"
)

type QuizHandler struct {
	quizService  *services.QuizService
	shareService *services.ShareService
	maxUpload    int64
}

func NewQuizHandler(quizService *services.QuizService, shareService *services.ShareService, maxUploadBytes int64) *QuizHandler {
	return &QuizHandler{
		quizService:  quizService,
		shareService: shareService,
		maxUpload:    maxUploadBytes,
	}
}

type renameRequest struct {
	Name string `json:"name"`
}

func (h *QuizHandler) GetUserQuizzes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	quizzes, err := h.quizService.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := QuizListResponse{QuizzesInfo: make([]QuizSummary, 0, len(quizzes))}
	for i := range quizzes {
		out.QuizzesInfo = append(out.QuizzesInfo, toQuizSummary(&quizzes[i]))
	}
	response.OK(c, http.StatusOK, out)
}

func (h *QuizHandler) GetQuizByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, err := parseID(c.Param("id"), "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	quiz, err := h.quizService.Get(c.Request.Context(), userID, quizID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, toQuiz(quiz))
}

func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, err := parseID(queryParam(c, "QuizID", "quizId"), "QuizID")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), userID, quizID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, true)
}

func (h *QuizHandler) RenameQuiz(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, err := parseID(c.Param("quizId"), "quizId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req renameRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.quizService.Rename(c.Request.Context(), userID, quizID, req.Name); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, true)
}

func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, err := parseID(queryParam(c, "QuizID", "quizId"), "QuizID")
	if err != nil {
		response.Error(c, err)
		return
	}
	questionID, err := parseID(queryParam(c, "QuestionID", "questionId"), "QuestionID")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.quizService.DeleteQuestion(c.Request.Context(), userID, quizID, questionID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, true)
}

// GenerateQuiz accepts a multipart upload with the document under "file"
// and optional mcqCount and tfCount fields.
func (h *QuizHandler) GenerateQuiz(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperr.Validation("Validation errors occurred.", apperr.FieldError{Field: "file", Message: "A file is required."}))
		return
	}
	if h.maxUpload > 0 && fileHeader.Size > h.maxUpload {
		response.Error(c, apperr.Validation("Validation errors occurred.", apperr.FieldError{
			Field:   "file",
			Message: fmt.Sprintf("File exceeds the %d MB upload limit.", h.maxUpload/(1<<20)),
		}))
		return
	}
	counts, err := formCounts(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, apperr.Internal("open upload", err))
		return
	}
	defer f.Close()
	var r io.Reader = f
	if h.maxUpload > 0 {
		r = io.LimitReader(f, h.maxUpload+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		response.Error(c, apperr.Internal("read upload", err))
		return
	}

	quiz, err := h.quizService.Generate(c.Request.Context(), userID, services.Upload{Filename: fileHeader.Filename, Content: content}, counts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, toQuiz(quiz))
}

func (h *QuizHandler) RegenerateQuiz(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, err := parseID(queryParam(c, "QuizID", "quizId"), "QuizID")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req services.RegenerateRequest
	if err := bindJSON(c, &req, true); err != nil {
		response.Error(c, err)
		return
	}

	quiz, err := h.quizService.Regenerate(c.Request.Context(), userID, quizID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, toQuiz(quiz))
}

func (h *QuizHandler) RegenerateQuestion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, err := parseID(queryParam(c, "QuizID", "quizId"), "QuizID")
	if err != nil {
		response.Error(c, err)
		return
	}
	questionID, err := parseID(queryParam(c, "QuestionID", "questionId"), "QuestionID")
	if err != nil {
		response.Error(c, err)
		return
	}

	question, err := h.quizService.RegenerateQuestion(c.Request.Context(), userID, quizID, questionID, queryParam(c, "QuestionType", "questionType"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, toQuestion(question))
}

func (h *QuizHandler) ShareQuiz(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, err := parseID(queryParam(c, "QuizID", "quizId"), "QuizID")
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.shareService.Share(c.Request.Context(), userID, quizID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, ShareResponse{Token: token.Token, ExpiresAt: token.ExpiresAt})
}

func (h *QuizHandler) RedeemShare(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	quiz, created, err := h.shareService.Redeem(c.Request.Context(), userID, queryParam(c, "Token", "token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, RedeemResponse{Quiz: toQuizSummary(quiz), Created: created})
}

// formCounts reads the optional question counts from the multipart form.
func formCounts(c *gin.Context) (services.QuestionCounts, error) {
	var counts services.QuestionCounts
	var fields []apperr.FieldError
	parse := func(name string) *int {
		raw := strings.TrimSpace(c.PostForm(name))
		if raw == "" {
			raw = strings.TrimSpace(c.Query(name))
		}
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, apperr.FieldError{Field: name, Message: name + " must be a whole number."})
			return nil
		}
		return &n
	}
	counts.MCQ = parse("mcqCount")
	counts.TF = parse("tfCount")
	if len(fields) > 0 {
		return counts, apperr.Validation("Validation errors occurred.", fields...)
	}
	return counts, nil
}
