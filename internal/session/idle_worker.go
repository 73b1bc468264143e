package session

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdleEventsChannel carries a notice for every connection dropped for inactivity.
const IdleEventsChannel = "idle_events"

// SweepIdle closes every connection that has sent nothing for longer than the
// idle timeout and returns the dropped player ids. Disabled when the timeout
// is zero.
func (gm *GameManager) SweepIdle(now time.Time) []string {
	if gm.opts.IdleTimeout <= 0 {
		return nil
	}

	gm.mu.RLock()
	var idle []string
	for id, c := range gm.connections {
		if now.Sub(c.lastSeen) >= gm.opts.IdleTimeout {
			idle = append(idle, id)
		}
	}
	gm.mu.RUnlock()

	for _, id := range idle {
		log.Printf("[IDLE] dropping %s after %s without traffic", id, gm.opts.IdleTimeout)
		gm.dropConnection(id, CloseGoingAway, "idle timeout")
	}
	return idle
}

// StartIdleWorker sweeps idle connections every interval until ctx is done.
// When rdb is set each drop is also published on IdleEventsChannel.
func (gm *GameManager) StartIdleWorker(ctx context.Context, rdb *redis.Client, interval time.Duration) {
	if gm.opts.IdleTimeout <= 0 || interval <= 0 {
		log.Println("[IDLE] idle timeout disabled; idle worker not started")
		return
	}

	log.Printf("[IDLE] idle worker started (timeout %s, every %s)", gm.opts.IdleTimeout, interval)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] idle worker stopping")
				return
			case <-ticker.C:
				dropped := gm.SweepIdle(gm.sched.Now())
				if rdb == nil {
					continue
				}
				for _, id := range dropped {
					payload := map[string]interface{}{"type": "player_idle_dropped", "player": id, "at": time.Now().Format(time.RFC3339)}
					b, _ := json.Marshal(payload)
					if err := rdb.Publish(ctx, IdleEventsChannel, b).Err(); err != nil {
						log.Printf("[IDLE] publish failed for %s: %v", id, err)
					}
				}
			}
		}
	}()
}
