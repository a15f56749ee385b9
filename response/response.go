package response

import (
	"time"

	"github.com/gin-gonic/gin"

	"quizai/apperr"
)

const successMessage = "Request completed successfully."

type APIError struct {
	Code    string              `json:"code"`
	Details string              `json:"details"`
	Fields  []apperr.FieldError `json:"fields,omitempty"`
}

// Envelope is the shape of every response body.
type Envelope struct {
	Success   bool      `json:"success"`
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Error     *APIError `json:"error"`
}

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{
		Success:   true,
		Status:    status,
		Message:   successMessage,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// Error writes err as a failure envelope. Unknown errors become internal.
func Error(c *gin.Context, err error) {
	appErr := apperr.As(err)
	status := appErr.Kind.Status()
	c.JSON(status, failure(appErr, status))
}

// Abort is Error for middleware: it stops the handler chain.
func Abort(c *gin.Context, err error) {
	appErr := apperr.As(err)
	status := appErr.Kind.Status()
	c.AbortWithStatusJSON(status, failure(appErr, status))
}

func failure(appErr *apperr.Error, status int) Envelope {
	msg := appErr.Message
	if appErr.Kind == apperr.KindInternal || msg == "" {
		msg = "Internal server error"
	}
	return Envelope{
		Success:   false,
		Status:    status,
		Message:   msg,
		Timestamp: time.Now().UTC(),
		Error: &APIError{
			Code:    appErr.ErrorCode(),
			Details: appErr.Details(),
			Fields:  appErr.Fields,
		},
	}
}
