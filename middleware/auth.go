package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quizai/apperr"
	"quizai/response"
	"quizai/security"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
)

// AuthMiddleware rejects requests without a valid session token and puts
// the caller's id and email on the context.
func AuthMiddleware(tokens *security.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			response.Abort(c, apperr.Unauthenticated("Missing or invalid token."))
			return
		}
		claims, err := tokens.Parse(tokenString)
		if err != nil {
			response.Abort(c, apperr.Unauthenticated("Invalid or expired token."))
			return
		}
		userID, err := claims.UserID()
		if err != nil || userID == uuid.Nil {
			response.Abort(c, apperr.Unauthenticated("Invalid or expired token."))
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated caller set by AuthMiddleware.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// extractToken prefers the Authorization header. Browsers cannot set headers
// on websocket upgrades, so a token query parameter is accepted as well.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return strings.TrimSpace(c.Query("token"))
}
