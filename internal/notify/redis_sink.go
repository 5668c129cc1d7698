package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes events on "auc:<auctionID>:events", the same channels
// the websocket fanout subscribes to. Fire and forget: subscribers that are
// not listening miss the event.
type RedisSink struct {
	rdc *redis.Client
}

func NewRedisSink(rdc *redis.Client) *RedisSink { return &RedisSink{rdc: rdc} }

func (s *RedisSink) Publish(ctx context.Context, topic string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.rdc.Publish(ctx, "auc:"+topic+":events", payload).Err()
}
