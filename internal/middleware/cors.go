package middleware

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pong/internal/config"
)

// CORSMiddleware allows the configured frontends to call the REST endpoints.
// With no configured origin every origin is allowed, without credentials.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	origins := cfg.AllowedOrigins()
	log.Printf("[CORS] Environment: %s, allowed origins: %v", cfg.Environment, origins)

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Authorization",
			"Accept", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}

	return cors.New(corsConfig)
}

// NoCache disables caching of API responses outside production.
func NoCache(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Environment != "production" {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}
		c.Next()
	}
}
