package tournament

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// StartRetryWorker resubmits parked results every interval until ctx is done.
func StartRetryWorker(ctx context.Context, c *Client, interval time.Duration) {
	if c == nil || c.rdb == nil {
		log.Println("[TOURNAMENT] Client or Redis missing; retry worker not started")
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}

	log.Printf("[TOURNAMENT] Retry worker started (every %s)", interval)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[TOURNAMENT] Retry worker stopping")
				return
			case <-ticker.C:
				if n, err := c.RetryParked(ctx); err != nil {
					log.Printf("[TOURNAMENT] retry pass stopped after %d result(s): %v", n, err)
				} else if n > 0 {
					log.Printf("[TOURNAMENT] resubmitted %d parked result(s)", n)
				}
			}
		}
	}()
}

// RetryParked drains FailedResultsKey. A result that fails again goes back
// to the tail of the list and the pass stops.
func (c *Client) RetryParked(ctx context.Context) (int, error) {
	if c == nil || c.rdb == nil {
		return 0, ErrNotConfigured
	}

	pending, err := c.rdb.LLen(ctx, FailedResultsKey).Result()
	if err != nil {
		return 0, err
	}

	done := 0
	for i := int64(0); i < pending; i++ {
		raw, err := c.rdb.LPop(ctx, FailedResultsKey).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return done, err
		}

		var r Result
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			log.Printf("[TOURNAMENT] dropping unreadable parked result: %s", raw)
			continue
		}
		if err := c.submit(ctx, r); err != nil {
			if perr := c.pushParked(ctx, raw); perr != nil {
				log.Printf("[TOURNAMENT] lost parked result for match %s: %v (result=%s)", r.MatchID, perr, raw)
				return done, fmt.Errorf("requeue result for match %s: %w", r.MatchID, perr)
			}
			return done, err
		}
		done++
	}
	return done, nil
}
