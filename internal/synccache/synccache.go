package synccache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"auctionpipe/internal/models"
	"auctionpipe/internal/redis/auctioncache"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run mirrors ACTIVE auctions from Postgres into the Redis advisory hashes
// every interval, so the admission fast path stays warm and closed auctions
// age out through their TTL.
func Run(ctx context.Context, rdc *redis.Client, db *sql.DB, interval time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				syncOnce(ctx, rdc, db)
			}
		}
	}()
}

func syncOnce(ctx context.Context, rdc *redis.Client, db *sql.DB) {
	const q = `SELECT id, title, description, initial_price, current_price,
	                  starts_at, ends_at, status, seller_id, coalesce(winner_id,''),
	                  bid_count, category, images, created_at, updated_at
	             FROM auctions
	            WHERE status = 'ACTIVE' AND ends_at > $1`
	rows, err := db.QueryContext(ctx, q, time.Now().UTC())
	if err != nil {
		zap.L().Error("synccache.query", zap.Error(err))
		return
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Auction
		var images []byte
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.InitialPrice,
			&a.CurrentPrice, &a.StartsAt, &a.EndsAt, &a.Status, &a.SellerID,
			&a.WinnerID, &a.BidCount, &a.Category, &images, &a.CreatedAt,
			&a.UpdatedAt); err != nil {
			zap.L().Error("synccache.scan", zap.Error(err))
			return
		}
		if len(images) > 0 {
			_ = json.Unmarshal(images, &a.Images)
		}
		if err := auctioncache.Put(ctx, rdc, &a); err != nil {
			zap.L().Warn("synccache.put", zap.String("id", a.ID), zap.Error(err))
		}
	}
	if err := rows.Err(); err != nil {
		zap.L().Debug("synccache_error", zap.Error(err))
	}
}
