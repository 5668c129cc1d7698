// Package settlement is the authoritative half of the bid pipeline. It
// consumes queued bids in batches, re-validates each one against fresh
// durable state, applies the price raise as a single conditional update and
// records every bid exactly once with its terminal status.
package settlement

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"auctionpipe/internal/models"
	"auctionpipe/internal/queue/bidqueue"
	"auctionpipe/internal/redis/auctioncache"
	"auctionpipe/internal/services/auction"
	"auctionpipe/internal/services/bidrule"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Rejection reasons recorded on the bid and sent to the bidder.
const (
	ReasonAuctionNotFound = "auction not found"
	ReasonAuctionClosed   = "auction no longer active"
	ReasonBidTooLow       = "amount must exceed current price"
)

// Notifier fires outcome notifications. Implementations must be best
// effort; settlement ignores their failures by contract.
type Notifier interface {
	BidAccepted(ctx context.Context, a *models.Auction, b *models.Bid)
	BidRejected(ctx context.Context, b *models.Bid, reason string)
}

type Service struct {
	db       *sql.DB
	reader   auction.Reader
	rdc      *redis.Client // advisory cache refresh, may be nil
	notifier Notifier
}

func NewService(db *sql.DB, rdc *redis.Client, notifier Notifier) *Service {
	return &Service{
		db:       db,
		reader:   auction.NewFreshReader(db),
		rdc:      rdc,
		notifier: notifier,
	}
}

// ProcessBatch settles every message in the batch independently. A failure
// on one message never prevents the others from being attempted; the report
// carries one outcome per message.
func (s *Service) ProcessBatch(ctx context.Context, msgs []bidqueue.Message) bidqueue.BatchReport {
	var report bidqueue.BatchReport
	for _, msg := range msgs {
		bidID, err := s.processOne(ctx, msg)
		outcome := bidqueue.ItemOutcome{DeliveryID: msg.DeliveryID, BidID: bidID, Err: err}
		if err != nil {
			report.Failed = append(report.Failed, outcome)
			continue
		}
		report.Successful = append(report.Successful, outcome)
	}
	zap.L().Info("settlement_batch",
		zap.Int("successful", len(report.Successful)),
		zap.Int("failed", len(report.Failed)),
	)
	return report
}

// processOne settles a single queued bid. A returned error marks the
// message failed and leaves it to the queue's redelivery; a rejected bid
// whose terminal record was written counts as processed.
func (s *Service) processOne(ctx context.Context, msg bidqueue.Message) (string, error) {
	var bid models.Bid
	if err := json.Unmarshal(msg.Body, &bid); err != nil {
		return "", fmt.Errorf("parse bid payload: %w", err)
	}
	if bid.ID == "" || bid.AuctionID == "" {
		return bid.ID, errors.New("bid payload missing identity")
	}

	// Authoritative read. The admission-time snapshot is void here.
	a, err := s.reader.Load(ctx, bid.AuctionID)
	if err != nil {
		if errors.Is(err, auction.ErrNotFound) {
			return bid.ID, s.reject(ctx, &bid, ReasonAuctionNotFound)
		}
		return bid.ID, err
	}

	if err := bidrule.Check(a, bid.Amount, time.Now().UTC()); err != nil {
		var tooLow *bidrule.TooLowError
		if errors.As(err, &tooLow) {
			return bid.ID, s.reject(ctx, &bid, ReasonBidTooLow)
		}
		return bid.ID, s.reject(ctx, &bid, ReasonAuctionClosed)
	}

	raised, err := s.settle(ctx, a, &bid)
	if err != nil {
		return bid.ID, err
	}
	if !raised {
		// Lost the race to a concurrently settled higher bid.
		return bid.ID, s.reject(ctx, &bid, ReasonBidTooLow)
	}

	a.CurrentPrice = bid.Amount
	a.BidCount++
	a.WinnerID = bid.BidderID
	a.UpdatedAt = time.Now().UTC()

	s.bumpBidderStats(ctx, &bid)
	s.refreshCache(ctx, a)
	s.notifier.BidAccepted(ctx, a, &bid)

	zap.L().Info("bid_settled",
		zap.String("bid_id", bid.ID),
		zap.String("auction_id", bid.AuctionID),
		zap.Float64("amount", bid.Amount),
	)
	return bid.ID, nil
}

// settle runs the price raise and the bid record as one transaction. The
// raise must never become visible without its bid record: committed alone
// it would turn the redelivered winner into a rejection against its own
// price. A false return means the raise condition did not hold.
func (s *Service) settle(ctx context.Context, a *models.Auction, bid *models.Bid) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin settle for auction %s: %w", a.ID, err)
	}

	raised, err := raisePrice(ctx, tx, a, bid)
	if err != nil || !raised {
		_ = tx.Rollback()
		return false, err
	}

	bid.MarkProcessed()
	if err := persistBid(ctx, tx, bid); err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit settle for auction %s: %w", a.ID, err)
	}
	return true, nil
}

// execer lets the bid record land inside the settle transaction or, for
// rejections, directly on the pool.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// raisePrice is the single arbitration point for "is this the new high
// bid". The condition is evaluated atomically at write time against the
// stored row, never against the snapshot read above, so two settlements of
// the same auction can never both raise from the same baseline.
func raisePrice(ctx context.Context, db execer, a *models.Auction, bid *models.Bid) (bool, error) {
	const q = `
	  UPDATE auctions
	     SET current_price = $1,
	         bid_count     = bid_count + 1,
	         winner_id     = $2,
	         updated_at    = $3
	   WHERE id = $4
	     AND status = 'ACTIVE'
	     AND starts_at <= $3 AND ends_at >= $3
	     AND current_price < $1`
	res, err := db.ExecContext(ctx, q,
		bid.Amount, bid.BidderID, time.Now().UTC(), a.ID)
	if err != nil {
		return false, fmt.Errorf("raise price for auction %s: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// reject writes the terminal REJECTED record and notifies the bidder. The
// record write is the primary effect; once it lands the message counts as
// processed even though the logical bid failed.
func (s *Service) reject(ctx context.Context, bid *models.Bid, reason string) error {
	bid.MarkRejected(reason)
	if err := persistBid(ctx, s.db, bid); err != nil {
		return err
	}
	s.notifier.BidRejected(ctx, bid, reason)
	zap.L().Info("bid_rejected",
		zap.String("bid_id", bid.ID),
		zap.String("auction_id", bid.AuctionID),
		zap.String("reason", reason),
	)
	return nil
}

// persistBid is an idempotent create: a redelivered message carries the
// same bid id, so the duplicate insert is a no-op and the first terminal
// record stands.
func persistBid(ctx context.Context, db execer, bid *models.Bid) error {
	const ins = `
	  INSERT INTO bids (id, auction_id, bidder_id, bidder_name, amount,
	                    status, rejection_reason, bid_type, submitted_at, created_at)
	       VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	  ON CONFLICT (id) DO NOTHING`
	if _, err := db.ExecContext(ctx, ins,
		bid.ID, bid.AuctionID, bid.BidderID, bid.BidderName, bid.Amount,
		bid.Status, bid.RejectionReason, bid.BidType, bid.SubmittedAt, bid.CreatedAt); err != nil {
		return fmt.Errorf("persist bid %s: %w", bid.ID, err)
	}
	return nil
}

// bumpBidderStats increments the bidder's personal counter, creating the
// stats row on a bidder's first settled bid. Best effort: a failed write is
// logged and swallowed.
func (s *Service) bumpBidderStats(ctx context.Context, bid *models.Bid) {
	const q = `
	  INSERT INTO bidders (id, name, email, total_bids, total_wins, created_at, updated_at)
	       VALUES ($1, $2, '', 1, 0, $3, $3)
	  ON CONFLICT (id) DO UPDATE
	          SET total_bids = bidders.total_bids + 1, updated_at = $3`
	if _, err := s.db.ExecContext(ctx, q, bid.BidderID, bid.BidderName, time.Now().UTC()); err != nil {
		zap.L().Warn("settlement.bidder_stats",
			zap.String("bidder_id", bid.BidderID), zap.Error(err))
	}
}

// refreshCache mirrors the accepted state into the advisory hash. The Lua
// guard keeps concurrent refreshes from lowering the cached price.
func (s *Service) refreshCache(ctx context.Context, a *models.Auction) {
	if s.rdc == nil {
		return
	}
	if err := auctioncache.Put(ctx, s.rdc, a); err != nil {
		zap.L().Warn("settlement.cache_refresh",
			zap.String("auction_id", a.ID), zap.Error(err))
	}
}
