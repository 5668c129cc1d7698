package auctionhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auctionpipe/internal/models"
	"auctionpipe/internal/services/admission"
	"auctionpipe/internal/services/auction"
	"auctionpipe/internal/services/bidrule"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuctionSvc struct {
	auction *models.Auction
	bids    []models.Bid
	bidder  *models.Bidder
	err     error
}

func (f *fakeAuctionSvc) CreateAuction(_ context.Context, p auction.CreateAuctionParams) (*models.Auction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return models.NewAuction(p.Title, p.Description, p.InitialPrice,
		p.StartsAt, p.EndsAt, p.SellerID, p.Category, p.Images), nil
}

func (f *fakeAuctionSvc) GetAuction(_ context.Context, _ string) (*models.Auction, error) {
	return f.auction, f.err
}

func (f *fakeAuctionSvc) ListAuctions(_ context.Context, _ string, _, _ int) ([]models.Auction, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.auction == nil {
		return nil, nil
	}
	return []models.Auction{*f.auction}, nil
}

func (f *fakeAuctionSvc) ListBids(_ context.Context, _ string) ([]models.Bid, error) {
	return f.bids, f.err
}

func (f *fakeAuctionSvc) GetBidder(_ context.Context, _ string) (*models.Bidder, error) {
	return f.bidder, f.err
}

type fakeAdmissionSvc struct {
	bid *models.Bid
	err error
}

func (f *fakeAdmissionSvc) SubmitBid(_ context.Context, _ admission.SubmitBidRequest) (*models.Bid, error) {
	return f.bid, f.err
}

func newTestRouter(svc auction.IAuctionService, adm admission.IAdmissionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(svc, adm).Register(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestSubmitBidAccepted(t *testing.T) {
	bid := models.NewBid("auc-1", "user-1", "Alice", 150)
	r := newTestRouter(&fakeAuctionSvc{}, &fakeAdmissionSvc{bid: bid})

	w, env := doJSON(t, r, http.MethodPost, "/bids", SubmitBidBody{
		AuctionID: "auc-1", BidderID: "user-1", Amount: 150,
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.True(t, env.Success)
	require.Nil(t, env.Error)
	assert.False(t, env.Timestamp.IsZero())

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var body BidAcceptedBody
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, bid.ID, body.BidID)
	assert.Equal(t, models.BidStatusPending, body.Status)
}

func TestSubmitBidErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid input", admission.ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput},
		{"not found", auction.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"auction closed", bidrule.ErrAuctionClosed, http.StatusBadRequest, CodeAuctionClosed},
		{"bid too low", &bidrule.TooLowError{CurrentPrice: 150}, http.StatusBadRequest, CodeBidTooLow},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError, CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&fakeAuctionSvc{}, &fakeAdmissionSvc{err: tc.err})

			w, env := doJSON(t, r, http.MethodPost, "/bids", SubmitBidBody{
				AuctionID: "auc-1", BidderID: "user-1", Amount: 120,
			})

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.wantCode, env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestSubmitBidTooLowMessageIncludesPrice(t *testing.T) {
	r := newTestRouter(&fakeAuctionSvc{},
		&fakeAdmissionSvc{err: &bidrule.TooLowError{CurrentPrice: 150}})

	w, env := doJSON(t, r, http.MethodPost, "/bids", SubmitBidBody{
		AuctionID: "auc-1", BidderID: "user-1", Amount: 120,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "must be greater than current price: 150")
}

func TestSubmitBidRejectsBadPayload(t *testing.T) {
	r := newTestRouter(&fakeAuctionSvc{}, &fakeAdmissionSvc{})

	// amount missing entirely
	w, env := doJSON(t, r, http.MethodPost, "/bids",
		map[string]any{"auction_id": "auc-1", "bidder_id": "user-1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, CodeInvalidInput, env.Error.Code)
}

func TestCreateAuctionValidatesWindow(t *testing.T) {
	r := newTestRouter(&fakeAuctionSvc{}, &fakeAdmissionSvc{})
	now := time.Now().UTC()

	w, env := doJSON(t, r, http.MethodPost, "/auctions", CreateAuctionBody{
		Title: "Lot 1", Description: "desc", InitialPrice: 100,
		StartsAt: now.Add(time.Hour), EndsAt: now, SellerID: "seller-1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, CodeInvalidInput, env.Error.Code)
	assert.Contains(t, env.Error.Details, "ends_at")
}

func TestCreateAuction(t *testing.T) {
	r := newTestRouter(&fakeAuctionSvc{}, &fakeAdmissionSvc{})
	now := time.Now().UTC()

	w, env := doJSON(t, r, http.MethodPost, "/auctions", CreateAuctionBody{
		Title: "Lot 1", Description: "desc", InitialPrice: 100,
		StartsAt: now, EndsAt: now.Add(time.Hour), SellerID: "seller-1",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
}

func TestGetAuctionNotFound(t *testing.T) {
	r := newTestRouter(&fakeAuctionSvc{err: auction.ErrNotFound}, &fakeAdmissionSvc{})

	w, env := doJSON(t, r, http.MethodGet, "/auctions/ghost", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, CodeNotFound, env.Error.Code)
}

func TestListBids(t *testing.T) {
	bid := models.NewBid("auc-1", "user-1", "Alice", 150)
	bid.MarkProcessed()
	r := newTestRouter(&fakeAuctionSvc{bids: []models.Bid{*bid}}, &fakeAdmissionSvc{})

	w, env := doJSON(t, r, http.MethodGet, "/bids/auc-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)
	data, _ := json.Marshal(env.Data)
	assert.Contains(t, string(data), `"total":1`)
	assert.Contains(t, string(data), bid.ID)
}

func TestGetBidder(t *testing.T) {
	r := newTestRouter(&fakeAuctionSvc{bidder: &models.Bidder{
		ID: "user-1", Name: "Alice", TotalBids: 3,
	}}, &fakeAdmissionSvc{})

	w, env := doJSON(t, r, http.MethodGet, "/bidders/user-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)
	data, _ := json.Marshal(env.Data)
	assert.Contains(t, string(data), `"total_bids":3`)
}

func TestGetBidderNotFound(t *testing.T) {
	r := newTestRouter(&fakeAuctionSvc{err: auction.ErrNotFound}, &fakeAdmissionSvc{})

	w, env := doJSON(t, r, http.MethodGet, "/bidders/ghost", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, CodeNotFound, env.Error.Code)
}
