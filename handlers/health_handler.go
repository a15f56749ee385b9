package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizai/response"
	"quizai/services"
)

type HealthHandler struct {
	healthService *services.HealthService
}

func NewHealthHandler(healthService *services.HealthService) *HealthHandler {
	return &HealthHandler{healthService: healthService}
}

// Health always answers 200; readiness is carried in the payload.
func (h *HealthHandler) Health(c *gin.Context) {
	report := h.healthService.Check(c.Request.Context())
	response.OK(c, http.StatusOK, toHealth(report))
}
