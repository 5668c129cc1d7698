package auctionhandler

import (
	"errors"
	"net/http"
	"time"

	"auctionpipe/internal/services/admission"
	"auctionpipe/internal/services/auction"
	"auctionpipe/internal/services/bidrule"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc auction.IAuctionService
	adm admission.IAdmissionService
}

func New(svc auction.IAuctionService, adm admission.IAdmissionService) *Handler {
	return &Handler{svc: svc, adm: adm}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/auctions", h.create)
	r.GET("/auctions", h.list)
	r.GET("/auctions/:id", h.info)
	r.POST("/bids", h.submitBid)
	r.GET("/bids/:auctionId", h.listBids)
	r.GET("/bidders/:id", h.bidderInfo)
}

func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateAuctionBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		respondError(ginCtx, http.StatusBadRequest, CodeInvalidInput, "invalid auction data", err.Error())
		return
	}
	if !body.EndsAt.After(body.StartsAt) {
		respondError(ginCtx, http.StatusBadRequest, CodeInvalidInput,
			"invalid auction data", "ends_at must be after starts_at")
		return
	}

	a, err := h.svc.CreateAuction(ginCtx.Request.Context(), auction.CreateAuctionParams{
		Title:        body.Title,
		Description:  body.Description,
		InitialPrice: body.InitialPrice,
		StartsAt:     body.StartsAt,
		EndsAt:       body.EndsAt,
		SellerID:     body.SellerID,
		Category:     body.Category,
		Images:       body.Images,
	})
	if err != nil {
		if errors.Is(err, auction.ErrInvalidAuction) {
			respondError(ginCtx, http.StatusBadRequest, CodeInvalidInput, "invalid auction data", err.Error())
			return
		}
		respondError(ginCtx, http.StatusInternalServerError, CodeInternal, "failed to create auction", err.Error())
		return
	}
	respondData(ginCtx, http.StatusCreated, a)
}

func (h *Handler) list(ginCtx *gin.Context) {
	var q ListAuctionsQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		respondError(ginCtx, http.StatusBadRequest, CodeInvalidInput, "invalid query", err.Error())
		return
	}
	out, err := h.svc.ListAuctions(ginCtx.Request.Context(), q.Status, q.Limit, q.Offset)
	if err != nil {
		respondError(ginCtx, http.StatusInternalServerError, CodeInternal, "failed to list auctions", err.Error())
		return
	}
	respondData(ginCtx, http.StatusOK, gin.H{"total": len(out), "auctions": out})
}

func (h *Handler) info(ginCtx *gin.Context) {
	a, err := h.svc.GetAuction(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		if errors.Is(err, auction.ErrNotFound) {
			respondError(ginCtx, http.StatusNotFound, CodeNotFound, "auction not found", "")
			return
		}
		respondError(ginCtx, http.StatusInternalServerError, CodeInternal, "failed to load auction", err.Error())
		return
	}
	respondData(ginCtx, http.StatusOK, a)
}

// submitBid admits a bid for asynchronous settlement. A 202 only means the
// bid passed the advisory pre-check and was queued; the final outcome
// arrives through notifications, never through this response.
func (h *Handler) submitBid(ginCtx *gin.Context) {
	var body SubmitBidBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		respondError(ginCtx, http.StatusBadRequest, CodeInvalidInput, "invalid bid data", err.Error())
		return
	}

	bid, err := h.adm.SubmitBid(ginCtx.Request.Context(), admission.SubmitBidRequest{
		AuctionID:  body.AuctionID,
		BidderID:   body.BidderID,
		BidderName: body.BidderName,
		Amount:     body.Amount,
	})
	if err != nil {
		h.respondBidError(ginCtx, err)
		return
	}

	respondData(ginCtx, http.StatusAccepted, BidAcceptedBody{
		Message: "bid received and will be processed shortly",
		BidID:   bid.ID,
		Status:  bid.Status,
	})
}

func (h *Handler) listBids(ginCtx *gin.Context) {
	auctionID := ginCtx.Param("auctionId")
	bids, err := h.svc.ListBids(ginCtx.Request.Context(), auctionID)
	if err != nil {
		respondError(ginCtx, http.StatusInternalServerError, CodeInternal, "failed to list bids", err.Error())
		return
	}
	respondData(ginCtx, http.StatusOK, gin.H{
		"auction_id": auctionID,
		"total":      len(bids),
		"bids":       bids,
	})
}

func (h *Handler) bidderInfo(ginCtx *gin.Context) {
	b, err := h.svc.GetBidder(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		if errors.Is(err, auction.ErrNotFound) {
			respondError(ginCtx, http.StatusNotFound, CodeNotFound, "bidder not found", "")
			return
		}
		respondError(ginCtx, http.StatusInternalServerError, CodeInternal, "failed to load bidder", err.Error())
		return
	}
	respondData(ginCtx, http.StatusOK, b)
}

func (h *Handler) respondBidError(ginCtx *gin.Context, err error) {
	var tooLow *bidrule.TooLowError
	switch {
	case errors.Is(err, admission.ErrInvalidInput):
		respondError(ginCtx, http.StatusBadRequest, CodeInvalidInput, "invalid bid data", err.Error())
	case errors.Is(err, auction.ErrNotFound):
		respondError(ginCtx, http.StatusNotFound, CodeNotFound, "auction not found", "")
	case errors.Is(err, bidrule.ErrAuctionClosed):
		respondError(ginCtx, http.StatusBadRequest, CodeAuctionClosed, "auction is not open for bidding", "")
	case errors.As(err, &tooLow):
		respondError(ginCtx, http.StatusBadRequest, CodeBidTooLow, tooLow.Error(), "")
	default:
		respondError(ginCtx, http.StatusInternalServerError, CodeInternal, "failed to submit bid", err.Error())
	}
}

func respondData(ginCtx *gin.Context, status int, data any) {
	ginCtx.JSON(status, Envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func respondError(ginCtx *gin.Context, status int, code, message, details string) {
	ginCtx.JSON(status, Envelope{
		Success:   false,
		Error:     &ErrorBody{Code: code, Message: message, Details: details},
		Timestamp: time.Now().UTC(),
	})
}
