package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pong/internal/models"
	"github.com/playmatatu/pong/internal/records"
)

// MatchHistory is satisfied by *records.Store.
type MatchHistory interface {
	RecentMatches(ctx context.Context, limit int) ([]models.MatchRecord, error)
	CachedResult(ctx context.Context, matchID string) (models.MatchRecord, bool, error)
}

// GetRecentMatches lists finished matches, newest first. ?limit= caps the
// count (default 20, max 100).
func GetRecentMatches(history MatchHistory) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

		matches, err := history.RecentMatches(c.Request.Context(), limit)
		if errors.Is(err, records.ErrNoStore) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match history is not configured"})
			return
		}
		if err != nil {
			log.Printf("[DB] recent matches query failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load matches"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"matches": matches,
			"count":   len(matches),
		})
	}
}

// GetMatchResult returns a recently finished match from the result cache.
func GetMatchResult(history MatchHistory) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok, err := history.CachedResult(c.Request.Context(), c.Param("id"))
		if err != nil {
			log.Printf("[REDIS] cached result lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load match"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}
