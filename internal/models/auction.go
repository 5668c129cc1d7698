package models

import (
	"time"

	"github.com/google/uuid"
)

// Auction lifecycle statuses.
const (
	AuctionStatusActive    = "ACTIVE"
	AuctionStatusFinalized = "FINALIZED"
	AuctionStatusCancelled = "CANCELLED"
)

// Auction is a time-bounded sell offer with a rising price floor. The
// settlement pipeline is the only writer of CurrentPrice, BidCount and
// WinnerID after creation.
type Auction struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	InitialPrice float64   `json:"initial_price"`
	CurrentPrice float64   `json:"current_price"`
	StartsAt     time.Time `json:"starts_at" example:"2025-07-27T16:05:05Z"`
	EndsAt       time.Time `json:"ends_at"   example:"2025-07-27T18:05:05Z"`
	Status       string    `json:"status"    example:"ACTIVE"`
	SellerID     string    `json:"seller_id"`
	WinnerID     string    `json:"winner_id,omitempty"`
	BidCount     int       `json:"bid_count"`
	Category     string    `json:"category"`
	Images       []string  `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewAuction builds a fresh auction with its identity and defaults filled in.
func NewAuction(title, description string, initialPrice float64, startsAt, endsAt time.Time, sellerID, category string, images []string) *Auction {
	now := time.Now().UTC()
	if category == "" {
		category = "GENERAL"
	}
	if images == nil {
		images = []string{}
	}
	return &Auction{
		ID:           uuid.New().String(),
		Title:        title,
		Description:  description,
		InitialPrice: initialPrice,
		CurrentPrice: initialPrice,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		Status:       AuctionStatusActive,
		SellerID:     sellerID,
		Category:     category,
		Images:       images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsOpenForBidding reports whether a bid may be admitted at the given
// instant: the auction is ACTIVE and now falls within [StartsAt, EndsAt],
// both bounds inclusive. The predicate is derived, never stored; callers
// must re-evaluate it on every fresh read because it can flip between
// admission and settlement.
func (a *Auction) IsOpenForBidding(now time.Time) bool {
	return a.Status == AuctionStatusActive &&
		!now.Before(a.StartsAt) &&
		!now.After(a.EndsAt)
}

// TryRaisePrice accepts the amount iff it is strictly greater than the
// current price. On acceptance the price, bid count and modification
// timestamp move; otherwise the auction is left untouched.
//
// This models the arbitration rule only. Against the durable store the same
// rule must be applied as a single conditional update, never as a local
// read-modify-write on a snapshot.
func (a *Auction) TryRaisePrice(amount float64) bool {
	if amount <= a.CurrentPrice {
		return false
	}
	a.CurrentPrice = amount
	a.BidCount++
	a.UpdatedAt = time.Now().UTC()
	return true
}
