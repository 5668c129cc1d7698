// Package notify composes bid outcome notifications and publishes them to
// the event sink. Everything here is best effort: a failed publish is
// logged and swallowed, never surfaced to the settlement path.
package notify

import (
	"context"
	"fmt"

	"auctionpipe/internal/models"

	"go.uber.org/zap"
)

// Bundle is a channel-agnostic payload: a default rendering plus
// per-channel variants (long-form email, short-form sms).
type Bundle struct {
	Default string `json:"default"`
	Email   string `json:"email"`
	SMS     string `json:"sms"`
	Subject string `json:"subject"`
}

// Event is what actually goes over the wire, one fan-out call per outcome.
type Event struct {
	Event     string  `json:"event"`
	AuctionID string  `json:"auction_id"`
	BidID     string  `json:"bid_id"`
	BidderID  string  `json:"bidder_id"`
	Amount    float64 `json:"amount"`
	Bundle    Bundle  `json:"bundle"`
}

// Sink is the publish boundary. No delivery guarantee is assumed.
type Sink interface {
	Publish(ctx context.Context, topic string, ev Event) error
}

type Dispatcher struct {
	sink Sink
}

func NewDispatcher(sink Sink) *Dispatcher { return &Dispatcher{sink: sink} }

// BidAccepted announces a new high bid on the auction's topic.
func (d *Dispatcher) BidAccepted(ctx context.Context, a *models.Auction, b *models.Bid) {
	bundle := Bundle{
		Default: fmt.Sprintf("New bid of %v on auction: %s", b.Amount, a.Title),
		Email: fmt.Sprintf(
			"Hello!\n\nA new bid was placed on the auction %q.\n\n"+
				"Details:\n- Bid amount: %v\n- Placed by: %s\n- Total bids: %d\n\n"+
				"Visit the platform for more details!",
			a.Title, b.Amount, b.BidderName, a.BidCount),
		SMS:     fmt.Sprintf("New bid: %v on %q. Place yours now!", b.Amount, a.Title),
		Subject: "New bid on auction: " + a.Title,
	}
	d.publish(ctx, Event{
		Event:     "bid_accepted",
		AuctionID: a.ID,
		BidID:     b.ID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		Bundle:    bundle,
	})
}

// BidRejected tells the bidder why their bid did not go through.
func (d *Dispatcher) BidRejected(ctx context.Context, b *models.Bid, reason string) {
	bundle := Bundle{
		Default: "Bid rejected: " + reason,
		Email: fmt.Sprintf(
			"Hello %s,\n\nYour bid of %v was rejected.\n\nReason: %s\n\n"+
				"Try again with a higher amount!",
			b.BidderName, b.Amount, reason),
		SMS:     "Bid rejected: " + reason,
		Subject: "Bid rejected",
	}
	d.publish(ctx, Event{
		Event:     "bid_rejected",
		AuctionID: b.AuctionID,
		BidID:     b.ID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		Bundle:    bundle,
	})
}

func (d *Dispatcher) publish(ctx context.Context, ev Event) {
	if err := d.sink.Publish(ctx, ev.AuctionID, ev); err != nil {
		zap.L().Warn("notify.publish",
			zap.String("event", ev.Event),
			zap.String("bid_id", ev.BidID),
			zap.Error(err))
	}
}
