package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizai/response"
	"quizai/services"
)

type SubmissionHandler struct {
	submissionService *services.SubmissionService
}

func NewSubmissionHandler(submissionService *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

func (h *SubmissionHandler) Submit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.SubmitRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	submission, err := h.submissionService.Submit(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, toSubmission(submission))
}

func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, err := parseID(queryParam(c, "QuizID", "quizId"), "QuizID")
	if err != nil {
		response.Error(c, err)
		return
	}

	submissions, err := h.submissionService.List(c.Request.Context(), userID, quizID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := SubmissionListResponse{Submissions: make([]SubmissionResponse, 0, len(submissions))}
	for i := range submissions {
		out.Submissions = append(out.Submissions, toSubmission(&submissions[i]))
	}
	response.OK(c, http.StatusOK, out)
}
