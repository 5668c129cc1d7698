package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auctionpipe/internal/models"
	"auctionpipe/internal/services/auction"
	"auctionpipe/internal/services/bidrule"

	"go.uber.org/zap"
)

var ErrInvalidInput = errors.New("invalid bid input")

// Enqueuer hands an admitted bid to the ingestion queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, bid *models.Bid) (deliveryID string, err error)
}

type SubmitBidRequest struct {
	AuctionID  string
	BidderID   string
	BidderName string
	Amount     float64
}

type IAdmissionService interface {
	SubmitBid(ctx context.Context, req SubmitBidRequest) (*models.Bid, error)
}

// admissionService performs the synchronous, advisory pre-check. It reads a
// possibly stale auction snapshot and keeps obviously invalid traffic off
// the queue; the settlement pipeline re-validates everything against fresh
// state and is the only authority on the outcome.
type admissionService struct {
	reader auction.Reader
	queue  Enqueuer
}

func NewAdmissionService(reader auction.Reader, queue Enqueuer) IAdmissionService {
	return &admissionService{reader: reader, queue: queue}
}

func (svc *admissionService) SubmitBid(ctx context.Context, req SubmitBidRequest) (*models.Bid, error) {
	if req.AuctionID == "" {
		return nil, fmt.Errorf("%w: auction id is required", ErrInvalidInput)
	}
	if req.BidderID == "" {
		return nil, fmt.Errorf("%w: bidder id is required", ErrInvalidInput)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive number", ErrInvalidInput)
	}

	a, err := svc.reader.Load(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}

	if err := bidrule.Check(a, req.Amount, time.Now().UTC()); err != nil {
		return nil, err
	}

	bid := models.NewBid(req.AuctionID, req.BidderID, req.BidderName, req.Amount)
	deliveryID, err := svc.queue.Enqueue(ctx, bid)
	if err != nil {
		return nil, fmt.Errorf("enqueue bid %s: %w", bid.ID, err)
	}

	zap.L().Info("bid_admitted",
		zap.String("bid_id", bid.ID),
		zap.String("auction_id", bid.AuctionID),
		zap.Float64("amount", bid.Amount),
		zap.String("delivery_id", deliveryID),
	)
	return bid, nil
}
