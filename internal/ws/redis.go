package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// StartEventSubscriber follows the match and idle event channels so that
// events published by any server instance show up in this one's log.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client, channels ...string) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return
	}
	if len(channels) == 0 {
		return
	}

	pubsub := rdb.Subscribe(ctx, channels...)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] event subscriber started on %v", channels)
		for {
			select {
			case <-ctx.Done():
				log.Println("[WS] event subscriber stopping")
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				logEvent(msg.Channel, msg.Payload)
			}
		}
	}()
}

func logEvent(channel, payload string) {
	var event map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		log.Printf("[WS] invalid event payload on %s: %v", channel, err)
		return
	}

	typ, _ := event["type"].(string)
	switch typ {
	case "match_finished":
		log.Printf("[WS] %s: match %v (%v) finished %v-%v winner=%v", channel, event["match_id"], event["mode"], event["player1_score"], event["player2_score"], event["winner"])
	case "player_idle_dropped":
		log.Printf("[WS] %s: player %v dropped for inactivity", channel, event["player"])
	default:
		log.Printf("[WS] %s: event %q", channel, typ)
	}
}
