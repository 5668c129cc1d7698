package auctioncache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"auctionpipe/internal/models"

	"github.com/redis/go-redis/v9"
)

// Hash per auction under "auc:<id>". Advisory only: admission reads it for
// the fast pre-check, settlement always goes to Postgres.
const KeyPrefix = "auc:"

// Grace period a hash survives past the auction end, so late settlement
// reports still find their key.
const ttlGrace = time.Minute

func Key(auctionID string) string { return KeyPrefix + auctionID }

// Put mirrors the full auction record into its cache hash through the Lua
// guard, which refuses to lower an already cached price. The hash carries
// every field a read serves, so a cache hit is indistinguishable from the
// Postgres row.
func Put(ctx context.Context, rdc *redis.Client, a *models.Auction) error {
	ttl := int64(time.Until(a.EndsAt.Add(ttlGrace)).Seconds())
	if ttl <= 0 {
		ttl = int64(ttlGrace.Seconds())
	}
	images, err := json.Marshal(a.Images)
	if err != nil {
		return err
	}
	return rdc.FCall(ctx, "auction_cache_put",
		[]string{Key(a.ID)},
		strconv.FormatFloat(a.CurrentPrice, 'f', -1, 64),
		a.WinnerID,
		strconv.Itoa(a.BidCount),
		strconv.FormatInt(ttl, 10),
		"title", a.Title,
		"d", a.Description,
		"st", a.Status,
		"sa", strconv.FormatInt(a.StartsAt.Unix(), 10),
		"ea", strconv.FormatInt(a.EndsAt.Unix(), 10),
		"ip", strconv.FormatFloat(a.InitialPrice, 'f', -1, 64),
		"sid", a.SellerID,
		"cat", a.Category,
		"img", string(images),
		"ca", strconv.FormatInt(a.CreatedAt.Unix(), 10),
		"ua", strconv.FormatInt(a.UpdatedAt.Unix(), 10),
	).Err()
}

// Get returns the cached snapshot, or (nil, nil) on a cache miss.
func Get(ctx context.Context, rdc *redis.Client, auctionID string) (*models.Auction, error) {
	snap, err := rdc.HGetAll(ctx, Key(auctionID)).Result()
	if err != nil {
		return nil, err
	}
	if len(snap) == 0 || snap["st"] == "" {
		return nil, nil
	}
	images := []string{}
	if snap["img"] != "" {
		_ = json.Unmarshal([]byte(snap["img"]), &images)
	}
	return &models.Auction{
		ID:           auctionID,
		Title:        snap["title"],
		Description:  snap["d"],
		InitialPrice: atof(snap["ip"]),
		CurrentPrice: atof(snap["cp"]),
		StartsAt:     ts(snap["sa"]),
		EndsAt:       ts(snap["ea"]),
		Status:       snap["st"],
		SellerID:     snap["sid"],
		WinnerID:     snap["wid"],
		BidCount:     atoi(snap["bc"]),
		Category:     snap["cat"],
		Images:       images,
		CreatedAt:    ts(snap["ca"]),
		UpdatedAt:    ts(snap["ua"]),
	}, nil
}

// helpers
func ts(s string) time.Time {
	i, _ := strconv.ParseInt(s, 10, 64)
	return time.Unix(i, 0).UTC()
}
func atof(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
