package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pong/internal/session"
	"github.com/playmatatu/pong/internal/ws"
)

// HandleGameWebSocket serves /ws/:mode for multiplayer, local and tournament play.
func HandleGameWebSocket(gm *session.GameManager, allowedOrigins []string) gin.HandlerFunc {
	return ws.NewHandler(gm, allowedOrigins).Serve
}
