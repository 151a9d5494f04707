package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/pressroomhq/pressroom-go/internal/infrastructure/messaging"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/security"
	"github.com/pressroomhq/pressroom-go/pkg/config"
)

// LiveHandlers contains the admin live feed websocket handler.
type LiveHandlers struct {
	broadcaster *messaging.LiveBroadcaster
	logger      *logging.ChanneledLogger
	upgrader    websocket.Upgrader
}

// NewLiveHandlers creates live feed handlers with injected dependencies.
func NewLiveHandlers(broadcaster *messaging.LiveBroadcaster, logger *logging.ChanneledLogger) *LiveHandlers {
	return &LiveHandlers{
		broadcaster: broadcaster,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Stream handles GET /api/v1/admin/live. Browsers cannot set headers on a
// websocket handshake, so the admin token arrives as a query parameter.
func (h *LiveHandlers) Stream(c *gin.Context) {
	claims, err := security.ValidateJWT(c.Query("token"), config.JWTSecret)
	if err != nil || !security.IsAdmin(claims) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Live().Error("Websocket upgrade failed", "error", err.Error())
		}
		return
	}

	client := &messaging.LiveClient{Conn: conn, Send: make(chan []byte, 64)}
	h.broadcaster.Register(client)

	go h.broadcaster.WritePump(client)

	// The read loop exists only to observe the close handshake.
	go func() {
		defer h.broadcaster.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
