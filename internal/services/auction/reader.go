package auction

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"auctionpipe/internal/models"
	"auctionpipe/internal/redis/auctioncache"

	"github.com/redis/go-redis/v9"
)

// Reader loads an auction by id. Two implementations exist on purpose:
// admission reads a possibly stale cached snapshot (fast reject), settlement
// reads fresh durable state (authoritative confirm). Both feed the same
// bidding rules.
type Reader interface {
	Load(ctx context.Context, id string) (*models.Auction, error)
}

// CachedReader serves from the Redis hash and falls back to Postgres on a
// miss. The snapshot it returns may be stale by the time settlement runs;
// that race is accepted and resolved by the FreshReader re-check.
type CachedReader struct {
	rdc *redis.Client
	db  *sql.DB
}

func NewCachedReader(rdc *redis.Client, db *sql.DB) *CachedReader {
	return &CachedReader{rdc: rdc, db: db}
}

func (r *CachedReader) Load(ctx context.Context, id string) (*models.Auction, error) {
	if snap, err := auctioncache.Get(ctx, r.rdc, id); err == nil && snap != nil {
		return snap, nil
	}
	return loadAuction(ctx, r.db, id)
}

// FreshReader always reads the durable store.
type FreshReader struct {
	db *sql.DB
}

func NewFreshReader(db *sql.DB) *FreshReader { return &FreshReader{db: db} }

func (r *FreshReader) Load(ctx context.Context, id string) (*models.Auction, error) {
	return loadAuction(ctx, r.db, id)
}

const selectAuctionCols = `SELECT id, title, description, initial_price, current_price,
       starts_at, ends_at, status, seller_id, coalesce(winner_id,''),
       bid_count, category, images, created_at, updated_at`

func loadAuction(ctx context.Context, db *sql.DB, id string) (*models.Auction, error) {
	row := db.QueryRowContext(ctx, selectAuctionCols+` FROM auctions WHERE id = $1`, id)
	a, err := scanAuction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(row rowScanner) (*models.Auction, error) {
	a := &models.Auction{}
	var images []byte
	if err := row.Scan(&a.ID, &a.Title, &a.Description, &a.InitialPrice,
		&a.CurrentPrice, &a.StartsAt, &a.EndsAt, &a.Status, &a.SellerID,
		&a.WinnerID, &a.BidCount, &a.Category, &images,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if len(images) > 0 {
		_ = json.Unmarshal(images, &a.Images)
	}
	return a, nil
}
