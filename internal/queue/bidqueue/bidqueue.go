// Package bidqueue is the bid ingestion queue on a Redis stream with a
// consumer group: at-least-once delivery, batch consumption, per-message
// acknowledgement and reclaim of entries a dead consumer left pending.
package bidqueue

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"auctionpipe/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message is one delivered queue entry: an opaque delivery id, the
// serialized bid payload and the queue-visible attributes it was tagged
// with at enqueue time.
type Message struct {
	DeliveryID string
	Body       []byte
	Attributes map[string]string
}

// ItemOutcome is the per-message result inside a batch report.
type ItemOutcome struct {
	DeliveryID string
	BidID      string
	Err        error
}

// BatchReport summarises one batch. Outcomes are tracked independently;
// one failing message never blocks the others.
type BatchReport struct {
	Successful []ItemOutcome
	Failed     []ItemOutcome
}

// BatchHandler consumes one batch per invocation.
type BatchHandler interface {
	ProcessBatch(ctx context.Context, msgs []Message) BatchReport
}

type Options struct {
	Stream       string
	Group        string
	BatchSize    int64
	ReclaimAfter time.Duration
}

type Queue struct {
	rdc      *redis.Client
	stream   string
	group    string
	consumer string
	batch    int64
	reclaim  time.Duration
}

func New(rdc *redis.Client, opts Options) *Queue {
	host, _ := os.Hostname()
	return &Queue{
		rdc:      rdc,
		stream:   opts.Stream,
		group:    opts.Group,
		consumer: host + "-" + uuid.New().String()[:8],
		batch:    opts.BatchSize,
		reclaim:  opts.ReclaimAfter,
	}
}

// Enqueue appends the bid to the stream. The auction id, bidder id and
// amount ride along as plain fields so downstream tooling can filter
// without parsing the body.
func (q *Queue) Enqueue(ctx context.Context, bid *models.Bid) (string, error) {
	body, err := json.Marshal(bid)
	if err != nil {
		return "", err
	}
	return q.rdc.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{
			"body":       body,
			"auction_id": bid.AuctionID,
			"bidder_id":  bid.BidderID,
			"amount":     strconv.FormatFloat(bid.Amount, 'f', -1, 64),
		},
	}).Result()
}

// Run consumes batches until the context ends. Acknowledged messages leave
// the stream's pending list; failed ones stay pending and come back through
// the reclaim pass, which is the queue's only retry mechanism.
func (q *Queue) Run(ctx context.Context, handler BatchHandler) {
	go func() {
		if err := q.awaitGroup(ctx); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msgs := q.reclaimStale(ctx)
			if len(msgs) == 0 {
				var err error
				msgs, err = q.readBatch(ctx)
				if err != nil {
					zap.L().Warn("bidqueue.xreadgroup", zap.Error(err))
					time.Sleep(time.Second)
					continue
				}
			}
			if len(msgs) == 0 {
				continue
			}

			report := handler.ProcessBatch(ctx, msgs)
			q.ack(ctx, report)
		}
	}()
}

// awaitGroup retries group creation until it succeeds or the context ends.
// Admission keeps enqueuing while the consumer starts up; giving up here
// would silently strand everything it accepts.
func (q *Queue) awaitGroup(ctx context.Context) error {
	for {
		err := q.ensureGroup(ctx)
		if err == nil {
			return nil
		}
		zap.L().Error("bidqueue.group_create", zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func (q *Queue) ensureGroup(ctx context.Context) error {
	err := q.rdc.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (q *Queue) readBatch(ctx context.Context) ([]Message, error) {
	res, err := q.rdc.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumer,
		Streams:  []string{q.stream, ">"},
		Count:    q.batch,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var msgs []Message
	for _, s := range res {
		for _, m := range s.Messages {
			msgs = append(msgs, toMessage(m))
		}
	}
	return msgs, nil
}

// reclaimStale redelivers entries another consumer read but never acked.
func (q *Queue) reclaimStale(ctx context.Context) []Message {
	claimed, _, err := q.rdc.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: q.consumer,
		MinIdle:  q.reclaim,
		Start:    "0-0",
		Count:    q.batch,
	}).Result()
	if err != nil && err != redis.Nil {
		zap.L().Warn("bidqueue.xautoclaim", zap.Error(err))
		return nil
	}
	msgs := make([]Message, 0, len(claimed))
	for _, m := range claimed {
		msgs = append(msgs, toMessage(m))
	}
	return msgs
}

func (q *Queue) ack(ctx context.Context, report BatchReport) {
	for _, item := range report.Successful {
		if err := q.rdc.XAck(ctx, q.stream, q.group, item.DeliveryID).Err(); err != nil {
			zap.L().Warn("bidqueue.xack",
				zap.String("delivery_id", item.DeliveryID), zap.Error(err))
		}
	}
	for _, item := range report.Failed {
		// Left pending on purpose: the reclaim pass redelivers it.
		zap.L().Warn("bidqueue.item_failed",
			zap.String("delivery_id", item.DeliveryID),
			zap.String("bid_id", item.BidID),
			zap.Error(item.Err))
	}
}

func toMessage(m redis.XMessage) Message {
	msg := Message{DeliveryID: m.ID, Attributes: map[string]string{}}
	for k, v := range m.Values {
		s, _ := v.(string)
		if k == "body" {
			msg.Body = []byte(s)
			continue
		}
		msg.Attributes[k] = s
	}
	return msg
}
