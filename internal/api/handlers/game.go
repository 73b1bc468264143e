package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pong/internal/session"
)

// StatusSource is satisfied by *session.GameManager.
type StatusSource interface {
	Status() session.Status
}

// GetGameStatus reports queue length, active matches and live connections.
func GetGameStatus(src StatusSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := src.Status()
		c.JSON(http.StatusOK, gin.H{
			"queued":          st.Queued,
			"active_matches":  st.ActiveMatches,
			"connections":     st.Connections,
			"matches_by_mode": st.MatchesByMode,
		})
	}
}
