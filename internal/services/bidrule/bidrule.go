// Package bidrule holds the one bid acceptance predicate shared by the
// admission pre-check and the settlement re-check, so the two phases can
// never drift apart. Admission feeds it a cached snapshot, settlement a
// fresh read; the rules themselves are identical.
package bidrule

import (
	"errors"
	"fmt"
	"time"

	"auctionpipe/internal/models"
)

var ErrAuctionClosed = errors.New("auction is not open for bidding")

// TooLowError rejects an amount at or below the current price. It carries
// the price so callers can surface it to the bidder.
type TooLowError struct {
	CurrentPrice float64
}

func (e *TooLowError) Error() string {
	return fmt.Sprintf("bid must be greater than current price: %v", e.CurrentPrice)
}

// Check applies the bidding rules against the given auction state. A nil
// return means the amount would be the new high bid for that snapshot; it
// is a promise only as fresh as the snapshot itself.
func Check(a *models.Auction, amount float64, now time.Time) error {
	if !a.IsOpenForBidding(now) {
		return ErrAuctionClosed
	}
	if amount <= a.CurrentPrice {
		return &TooLowError{CurrentPrice: a.CurrentPrice}
	}
	return nil
}
