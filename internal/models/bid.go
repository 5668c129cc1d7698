package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Bid statuses. PENDING is queue-only: a bid is persisted exactly once,
// already carrying its terminal status. WINNING is reserved for a future
// close-of-auction sweep and is never assigned by the settlement pipeline.
const (
	BidStatusPending   = "PENDING"
	BidStatusProcessed = "PROCESSED"
	BidStatusWinning   = "WINNING"
	BidStatusRejected  = "REJECTED"
)

const BidTypeManual = "MANUAL"

// Bid is a single buyer's offer against an auction's current price.
type Bid struct {
	ID              string    `json:"id"`
	AuctionID       string    `json:"auction_id"`
	BidderID        string    `json:"bidder_id"`
	BidderName      string    `json:"bidder_name"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	BidType         string    `json:"bid_type"`
	SubmittedAt     time.Time `json:"submitted_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewBid constructs a transient PENDING bid. Identity is generated here, at
// admission time; a redelivered queue message keeps the same id so the
// durable write stays idempotent.
func NewBid(auctionID, bidderID, bidderName string, amount float64) *Bid {
	now := time.Now().UTC()
	return &Bid{
		ID:          uuid.New().String(),
		AuctionID:   auctionID,
		BidderID:    bidderID,
		BidderName:  bidderName,
		Amount:      amount,
		Status:      BidStatusPending,
		BidType:     BidTypeManual,
		SubmittedAt: now,
		CreatedAt:   now,
	}
}

// IsTerminal reports whether the bid has reached its final status.
func (b *Bid) IsTerminal() bool {
	return b.Status != BidStatusPending
}

// MarkProcessed records the bid as the accepted high bid at settlement time.
func (b *Bid) MarkProcessed() {
	b.transition(BidStatusProcessed)
}

// MarkWinning records the bid as the auction winner. Only a close-of-auction
// sweep may call this; the settlement pipeline never does.
func (b *Bid) MarkWinning() {
	b.transition(BidStatusWinning)
}

// MarkRejected records the bid as rejected with the given reason.
func (b *Bid) MarkRejected(reason string) {
	b.transition(BidStatusRejected)
	b.RejectionReason = reason
}

// transition enforces PENDING -> terminal, one way. Leaving a terminal
// status is a programming error, not a recoverable condition.
func (b *Bid) transition(to string) {
	if b.IsTerminal() {
		panic(fmt.Sprintf("bid %s: illegal transition %s -> %s", b.ID, b.Status, to))
	}
	b.Status = to
}
