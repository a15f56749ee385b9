package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"quizai/logger"
	"quizai/services"
)

type EventsHandler struct {
	hub      *services.Hub
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewEventsHandler accepts upgrades from allowedOrigins, or from any origin
// when the list is empty.
func NewEventsHandler(hub *services.Hub, allowedOrigins []string, log *logger.Logger) *EventsHandler {
	if log == nil {
		log = logger.Nop()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[strings.TrimRight(origin, "/")]
			},
		},
		log: log.With("handler", "events"),
	}
}

// Connect upgrades an authenticated request to a websocket that receives
// the caller's quiz events.
func (h *EventsHandler) Connect(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}
	h.hub.RegisterClient(conn, userID)
}
