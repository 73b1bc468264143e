package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pong/internal/models"
	"github.com/redis/go-redis/v9"
)

// EventsChannel is the pub/sub channel finished matches are announced on.
const EventsChannel = "game_events"

// resultTTL is how long a finished match stays in the Redis cache.
const resultTTL = 24 * time.Hour

var ErrNoStore = errors.New("no match store configured")

// Store persists finished matches. Either backend may be nil; a Store with
// neither is a no-op.
type Store struct {
	db  *sqlx.DB
	rdb *redis.Client
}

func NewStore(db *sqlx.DB, rdb *redis.Client) *Store {
	return &Store{db: db, rdb: rdb}
}

// RecordMatch inserts rec, caches it and publishes a match_finished event.
// The database write is authoritative; cache and publish failures are logged.
func (s *Store) RecordMatch(ctx context.Context, rec models.MatchRecord) error {
	if s == nil {
		return nil
	}

	if s.db != nil {
		err := s.db.QueryRowxContext(ctx, `INSERT INTO pong_matches
			(match_id, mode, tournament_match_id, player1_id, player1_name, player2_id, player2_name,
			 player1_score, player2_score, winner_id, reason, ticks, started_at, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id`,
			rec.MatchID, rec.Mode, rec.TournamentMatchID, rec.Player1ID, rec.Player1Name, rec.Player2ID, rec.Player2Name,
			rec.Player1Score, rec.Player2Score, rec.WinnerID, rec.Reason, rec.Ticks, rec.StartedAt, rec.FinishedAt,
		).Scan(&rec.ID)
		if err != nil {
			return fmt.Errorf("insert pong_matches %s: %w", rec.MatchID, err)
		}
		log.Printf("[DB] recorded match %s (row %d, %d-%d, reason=%s)", rec.MatchID, rec.ID, rec.Player1Score, rec.Player2Score, rec.Reason)
	}

	if s.rdb != nil {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := s.rdb.SetEx(ctx, resultKey(rec.MatchID), data, resultTTL).Err(); err != nil {
			log.Printf("[REDIS] failed to cache result for match %s: %v", rec.MatchID, err)
		}

		event, _ := json.Marshal(matchEvent(rec))
		if n, err := s.rdb.Publish(ctx, EventsChannel, event).Result(); err != nil {
			log.Printf("[REDIS] publish match_finished failed: match=%s err=%v", rec.MatchID, err)
		} else {
			log.Printf("[REDIS] published match_finished: match=%s subscribers=%d", rec.MatchID, n)
		}
	}
	return nil
}

// CachedResult returns a recently finished match from Redis.
func (s *Store) CachedResult(ctx context.Context, matchID string) (models.MatchRecord, bool, error) {
	var rec models.MatchRecord
	if s == nil || s.rdb == nil {
		return rec, false, nil
	}
	data, err := s.rdb.Get(ctx, resultKey(matchID)).Bytes()
	if err == redis.Nil {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

// RecentMatches returns up to limit matches, newest first.
func (s *Store) RecentMatches(ctx context.Context, limit int) ([]models.MatchRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrNoStore
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	matches := []models.MatchRecord{}
	err := s.db.SelectContext(ctx, &matches, `SELECT id, match_id, mode, tournament_match_id, player1_id, player1_name,
		player2_id, player2_name, player1_score, player2_score, winner_id, reason, ticks, started_at, finished_at
		FROM pong_matches ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent matches: %w", err)
	}
	return matches, nil
}

func resultKey(matchID string) string {
	return "match:" + matchID + ":result"
}

func matchEvent(rec models.MatchRecord) map[string]interface{} {
	payload := map[string]interface{}{
		"type":          "match_finished",
		"match_id":      rec.MatchID,
		"mode":          rec.Mode,
		"player1_id":    rec.Player1ID,
		"player2_id":    rec.Player2ID,
		"player1_score": rec.Player1Score,
		"player2_score": rec.Player2Score,
		"reason":        rec.Reason,
	}
	if rec.WinnerID.Valid {
		payload["winner"] = rec.WinnerID.String
	}
	if rec.TournamentMatchID.Valid {
		payload["tournament_match_id"] = rec.TournamentMatchID.String
	}
	return payload
}
