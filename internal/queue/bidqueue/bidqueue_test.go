package bidqueue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"auctionpipe/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, redismock.ClientMock) {
	t.Helper()
	rdc, mock := redismock.NewClientMock()
	q := New(rdc, Options{
		Stream:       "bids_pending",
		Group:        "settlement",
		BatchSize:    10,
		ReclaimAfter: 30 * time.Second,
	})
	return q, mock
}

func TestEnqueueTagsAttributes(t *testing.T) {
	q, mock := newTestQueue(t)
	bid := models.NewBid("auc-1", "user-1", "Alice", 150)
	body, err := json.Marshal(bid)
	require.NoError(t, err)

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: "bids_pending",
		Values: map[string]any{
			"body":       body,
			"auction_id": "auc-1",
			"bidder_id":  "user-1",
			"amount":     "150",
		},
	}).SetVal("1-0")

	id, err := q.Enqueue(context.Background(), bid)
	require.NoError(t, err)
	assert.Equal(t, "1-0", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToMessageSplitsBodyAndAttributes(t *testing.T) {
	m := toMessage(redis.XMessage{
		ID: "5-1",
		Values: map[string]any{
			"body":       `{"id":"bid-1"}`,
			"auction_id": "auc-1",
			"bidder_id":  "user-1",
			"amount":     "150",
		},
	})

	assert.Equal(t, "5-1", m.DeliveryID)
	assert.JSONEq(t, `{"id":"bid-1"}`, string(m.Body))
	assert.Equal(t, map[string]string{
		"auction_id": "auc-1",
		"bidder_id":  "user-1",
		"amount":     "150",
	}, m.Attributes)
}

func TestAckOnlyAcknowledgesSuccessfulItems(t *testing.T) {
	q, mock := newTestQueue(t)

	mock.ExpectXAck("bids_pending", "settlement", "1-0").SetVal(1)
	mock.ExpectXAck("bids_pending", "settlement", "3-0").SetVal(1)

	q.ack(context.Background(), BatchReport{
		Successful: []ItemOutcome{{DeliveryID: "1-0"}, {DeliveryID: "3-0"}},
		Failed:     []ItemOutcome{{DeliveryID: "2-0", Err: assert.AnError}},
	})

	// "2-0" stays pending for redelivery; no XACK for it.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwaitGroupRetriesTransientFailure(t *testing.T) {
	q, mock := newTestQueue(t)

	// First attempt dies (redis not up yet), the retry succeeds. The
	// consumer must not give up while admission keeps enqueuing.
	mock.ExpectXGroupCreateMkStream("bids_pending", "settlement", "0").
		SetErr(assert.AnError)
	mock.ExpectXGroupCreateMkStream("bids_pending", "settlement", "0").
		SetVal("OK")

	require.NoError(t, q.awaitGroup(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwaitGroupStopsWithContext(t *testing.T) {
	q, mock := newTestQueue(t)

	mock.ExpectXGroupCreateMkStream("bids_pending", "settlement", "0").
		SetErr(assert.AnError)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.awaitGroup(ctx), context.Canceled)
}

func TestEnsureGroupToleratesExistingGroup(t *testing.T) {
	q, mock := newTestQueue(t)

	mock.ExpectXGroupCreateMkStream("bids_pending", "settlement", "0").
		SetErr(busyGroupErr{})

	require.NoError(t, q.ensureGroup(context.Background()))
}

type busyGroupErr struct{}

func (busyGroupErr) Error() string {
	return "BUSYGROUP Consumer Group name already exists"
}
