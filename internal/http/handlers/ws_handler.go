package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/telehealth-backend/internal/logger"
	"github.com/ignatzorin/telehealth-backend/internal/pkg/apperror"
	"github.com/ignatzorin/telehealth-backend/internal/service"
	"github.com/ignatzorin/telehealth-backend/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений.
type WSHandler struct {
	hub          *ws.Hub
	tokenManager *service.TokenManager
	upgrader     websocket.Upgrader
}

// NewWSHandler создаёт новый хэндлер.
func NewWSHandler(hub *ws.Hub, tokens *service.TokenManager) *WSHandler {
	return &WSHandler{
		hub:          hub,
		tokenManager: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle обслуживает GET /api/ws?token=...
// Клиенты и врачи получают здесь события об урегулировании своих приёмов.
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		_ = c.Error(apperror.New(apperror.ErrCodeUnauthorized, "access токен обязателен"))
		return
	}

	userID, _, err := h.tokenManager.ParseAccess(rawToken)
	if err != nil || userID == uuid.Nil {
		_ = c.Error(apperror.New(apperror.ErrCodeUnauthorized, "невалидный access токен"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ клиенту
		logger.Log.WithError(err).Debug("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(conn, h.hub, userID)
	if err := h.hub.Register(client); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("WebSocket client rejected")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server is shutting down"))
		_ = conn.Close()
		return
	}

	client.Run(c.Request.Context())
}
