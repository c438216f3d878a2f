package api

import (
	"log/slog"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

// handleWebSocket upgrades the connection and hands it to the event hub.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: s.wsOrigins,
	})
	if err != nil {
		slog.Warn("WebSocket accept failed", "error", err)
		return
	}
	s.hub.HandleConnection(c.Request.Context(), conn)
}
