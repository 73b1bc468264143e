package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pong/internal/api/handlers"
	"github.com/playmatatu/pong/internal/config"
	"github.com/playmatatu/pong/internal/middleware"
	"github.com/playmatatu/pong/internal/session"
)

// Deps are what the routes serve. History may be nil when no database is
// configured; Checks maps backend names to health probes (nil = disabled).
type Deps struct {
	Manager *session.GameManager
	History handlers.MatchHistory
	Checks  map[string]handlers.Pinger
}

// SetupRoutes configures the REST and websocket routes.
func SetupRoutes(router *gin.Engine, cfg *config.Config, deps Deps) {
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.NoCache(cfg))
	if cfg.Environment != "production" {
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	health := handlers.HealthCheck(deps.Checks)
	router.GET("/health", health)

	// one socket endpoint per mode: /ws/multiplayer, /ws/local, /ws/tournament
	router.GET("/ws/:mode", handlers.HandleGameWebSocket(deps.Manager, cfg.AllowedOrigins()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", health)

		game := v1.Group("/game")
		{
			game.GET("/status", handlers.GetGameStatus(deps.Manager))
		}

		if deps.History != nil {
			matches := v1.Group("/matches")
			{
				matches.GET("/recent", handlers.GetRecentMatches(deps.History))
				matches.GET("/:id", handlers.GetMatchResult(deps.History))
			}
		}
	}
}
