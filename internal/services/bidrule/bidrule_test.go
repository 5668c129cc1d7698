package bidrule

import (
	"errors"
	"testing"
	"time"

	"auctionpipe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuction(price float64) *models.Auction {
	now := time.Now().UTC()
	a := models.NewAuction("Lot 1", "desc", price,
		now.Add(-time.Hour), now.Add(time.Hour), "seller-1", "", nil)
	return a
}

func TestCheckAccepts(t *testing.T) {
	a := testAuction(100)
	assert.NoError(t, Check(a, 100.01, time.Now().UTC()))
}

func TestCheckClosedAuction(t *testing.T) {
	a := testAuction(100)
	a.Status = models.AuctionStatusFinalized
	assert.ErrorIs(t, Check(a, 200, time.Now().UTC()), ErrAuctionClosed)

	a = testAuction(100)
	err := Check(a, 200, a.EndsAt.Add(time.Minute))
	assert.ErrorIs(t, err, ErrAuctionClosed)
}

func TestCheckTooLowCarriesPrice(t *testing.T) {
	a := testAuction(100)
	require.True(t, a.TryRaisePrice(150))

	err := Check(a, 120, time.Now().UTC())
	var tooLow *TooLowError
	require.True(t, errors.As(err, &tooLow))
	assert.Equal(t, 150.0, tooLow.CurrentPrice)
	assert.Contains(t, err.Error(), "150")

	// Equal to the current price is still too low.
	err = Check(a, 150, time.Now().UTC())
	assert.True(t, errors.As(err, &tooLow))
}
