package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"quizai/apperr"
	"quizai/logger"
	"quizai/response"
)

// Recovery turns a panic into the standard 500 envelope.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if log != nil {
					log.Error("panic recovered", "path", c.Request.URL.Path, "panic", fmt.Sprint(r))
				}
				response.Abort(c, apperr.Internal("panic", fmt.Errorf("%v", r)))
			}
		}()
		c.Next()
	}
}
