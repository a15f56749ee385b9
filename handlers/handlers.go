package handlers

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quizai/apperr"
	"quizai/middleware"
	"quizai/response"
)

// currentUser writes a 401 envelope and returns false when the request has
// no authenticated caller.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperr.Unauthenticated("User not authenticated."))
		return uuid.Nil, false
	}
	return id, true
}

// queryParam returns the first non-empty value among the given spellings.
func queryParam(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(c.Query(name)); v != "" {
			return v
		}
	}
	return ""
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Validation("Validation errors occurred.", apperr.FieldError{
			Field:   field,
			Message: "Invalid " + field + ".",
		})
	}
	return id, nil
}

// bindJSON decodes the request body into dst. An empty body is allowed when
// optional is set.
func bindJSON(c *gin.Context, dst interface{}, optional bool) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return apperr.Validation("Malformed request body.")
}
