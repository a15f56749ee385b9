package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizai/response"
	"quizai/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, SignupResponse{User: toUser(result.User), EmailDelivery: result.EmailDelivery})
}

func (h *AuthHandler) VerifyNewUser(c *gin.Context) {
	userID, err := parseID(queryParam(c, "UserID", "userId", "userID"), "UserID")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.authService.VerifyNewUser(c.Request.Context(), userID, queryParam(c, "token", "Token")); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, true)
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, MessageResponse{Message: "If the account exists and is unverified, a new code has been sent."})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, LoginResponse{User: toUser(result.User), Token: result.Token, ExpiresAt: result.ExpiresAt})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email, c.ClientIP()); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, MessageResponse{Message: "If the email is registered, a password reset link has been sent."})
}

func (h *AuthHandler) VerifyResetToken(c *gin.Context) {
	if err := h.authService.VerifyResetToken(c.Request.Context(), queryParam(c, "token", "Token")); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, true)
}

// ResetPassword takes id, password and token from the query string, or from
// a JSON body when the query carries none of them.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	req := services.ResetPasswordRequest{
		UserID:   queryParam(c, "id", "ID", "UserID"),
		Password: c.Query("password"),
		Token:    queryParam(c, "token", "Token"),
	}
	if req.UserID == "" && req.Password == "" && req.Token == "" {
		if err := bindJSON(c, &req, false); err != nil {
			response.Error(c, err)
			return
		}
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, MessageResponse{Message: "Password has been reset."})
}
