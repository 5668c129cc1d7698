package auction

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"auctionpipe/internal/models"
	"auctionpipe/internal/redis/auctioncache"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrNotFound       = errors.New("auction not found")
	ErrInvalidAuction = errors.New("invalid auction")
)

type CreateAuctionParams struct {
	Title        string
	Description  string
	InitialPrice float64
	StartsAt     time.Time
	EndsAt       time.Time
	SellerID     string
	Category     string
	Images       []string
}

type IAuctionService interface {
	CreateAuction(ctx context.Context, p CreateAuctionParams) (*models.Auction, error)
	GetAuction(ctx context.Context, id string) (*models.Auction, error)
	ListAuctions(ctx context.Context, status string, limit, offset int) ([]models.Auction, error)
	ListBids(ctx context.Context, auctionID string) ([]models.Bid, error)
	GetBidder(ctx context.Context, id string) (*models.Bidder, error)
}

type auctionService struct {
	rdc *redis.Client
	db  *sql.DB
}

func NewAuctionService(rdc *redis.Client, db *sql.DB) IAuctionService {
	return &auctionService{rdc: rdc, db: db}
}

func (svc *auctionService) CreateAuction(ctx context.Context, p CreateAuctionParams) (*models.Auction, error) {
	if p.Title == "" || p.SellerID == "" || p.InitialPrice <= 0 {
		return nil, ErrInvalidAuction
	}
	if !p.EndsAt.After(p.StartsAt) {
		return nil, ErrInvalidAuction
	}

	a := models.NewAuction(p.Title, p.Description, p.InitialPrice,
		p.StartsAt.UTC(), p.EndsAt.UTC(), p.SellerID, p.Category, p.Images)

	images, err := json.Marshal(a.Images)
	if err != nil {
		return nil, err
	}

	const ins = `
	  INSERT INTO auctions (id, title, description, initial_price, current_price,
	                        starts_at, ends_at, status, seller_id, bid_count,
	                        category, images, created_at, updated_at)
	       VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	if _, err := svc.db.ExecContext(ctx, ins,
		a.ID, a.Title, a.Description, a.InitialPrice, a.CurrentPrice,
		a.StartsAt, a.EndsAt, a.Status, a.SellerID, a.BidCount,
		a.Category, images, a.CreatedAt, a.UpdatedAt); err != nil {
		return nil, err
	}

	// Prime the advisory cache so the first bids skip Postgres.
	if err := auctioncache.Put(ctx, svc.rdc, a); err != nil {
		zap.L().Warn("auction.cache_prime", zap.String("id", a.ID), zap.Error(err))
	}
	return a, nil
}

func (svc *auctionService) GetAuction(ctx context.Context, id string) (*models.Auction, error) {
	// Fast path: serve from the cache hash while the auction is live.
	if snap, err := auctioncache.Get(ctx, svc.rdc, id); err == nil && snap != nil {
		return snap, nil
	}
	return loadAuction(ctx, svc.db, id)
}

func (svc *auctionService) ListAuctions(ctx context.Context, st string,
	limit, offset int) ([]models.Auction, error) {

	if limit == 0 {
		limit = 10
	}
	var (
		rows *sql.Rows
		err  error
	)
	base := selectAuctionCols + ` FROM auctions`
	switch st {
	case models.AuctionStatusActive, models.AuctionStatusFinalized, models.AuctionStatusCancelled:
		rows, err = svc.db.QueryContext(ctx, base+" WHERE status = $1 ORDER BY ends_at ASC LIMIT $2 OFFSET $3",
			st, limit, offset)
	default:
		rows, err = svc.db.QueryContext(ctx, base+" ORDER BY ends_at ASC LIMIT $1 OFFSET $2",
			limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]models.Auction, 0, limit)
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func (svc *auctionService) ListBids(ctx context.Context, auctionID string) ([]models.Bid, error) {
	const q = `SELECT id, auction_id, bidder_id, bidder_name, amount, status,
	                  coalesce(rejection_reason,''), bid_type, submitted_at, created_at
	             FROM bids WHERE auction_id = $1 ORDER BY submitted_at DESC`
	rows, err := svc.db.QueryContext(ctx, q, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Bid
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.BidderName,
			&b.Amount, &b.Status, &b.RejectionReason, &b.BidType,
			&b.SubmittedAt, &b.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// GetBidder returns the bidder's settlement-maintained stats. A bidder that
// never had a bid settled has no row yet.
func (svc *auctionService) GetBidder(ctx context.Context, id string) (*models.Bidder, error) {
	const q = `SELECT id, name, coalesce(email,''), total_bids, total_wins, created_at, updated_at
	             FROM bidders WHERE id = $1`
	var b models.Bidder
	if err := svc.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Name, &b.Email,
		&b.TotalBids, &b.TotalWins, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}
