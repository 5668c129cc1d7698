package ws

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SubscribeAuctionEvents relays bid outcome events published by any
// settlement worker to the in-process hub. The channel name carries the
// auction id ("auc:<id>:events"); the payload is forwarded as-is after a
// shape check, so a stray publish on the pattern cannot reach clients.
func SubscribeAuctionEvents(ctx context.Context, rdb *redis.Client, hub *Hub) {
	pubsub := rdb.PSubscribe(ctx, "auc:*:events")
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			auctionID, payload := parseEvent(m.Channel, m.Payload)
			if auctionID == "" {
				zap.L().Warn("ws.fanout_skip", zap.String("channel", m.Channel))
				continue
			}
			hub.Broadcast(auctionID, payload)
		}
	}
}

// parseEvent extracts the auction id from the channel name and checks the
// payload is a JSON object. Returns an empty id for anything malformed.
func parseEvent(channel, payload string) (string, []byte) {
	parts := strings.Split(channel, ":")
	if len(parts) != 3 || parts[1] == "" {
		return "", nil
	}
	if !json.Valid([]byte(payload)) {
		return "", nil
	}
	return parts[1], []byte(payload)
}
