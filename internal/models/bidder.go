package models

import "time"

// Bidder carries per-user bidding statistics. Rows appear on a bidder's
// first settled bid and the counters are updated best-effort; losing an
// increment never fails a bid.
type Bidder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	TotalBids int       `json:"total_bids"`
	TotalWins int       `json:"total_wins"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
