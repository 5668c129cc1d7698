package auctionhandler

import "time"

// Error codes carried in the response envelope.
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeNotFound      = "NOT_FOUND"
	CodeAuctionClosed = "AUCTION_CLOSED"
	CodeBidTooLow     = "BID_TOO_LOW"
	CodeInternal      = "INTERNAL"
)

type CreateAuctionBody struct {
	Title        string    `json:"title"         binding:"required"      example:"Vintage guitar"`
	Description  string    `json:"description"   binding:"required"`
	InitialPrice float64   `json:"initial_price" binding:"required,gt=0" example:"100"`
	StartsAt     time.Time `json:"starts_at"     binding:"required"      example:"2025-07-27T16:05:05Z"`
	EndsAt       time.Time `json:"ends_at"       binding:"required"      example:"2025-07-27T18:05:05Z"`
	SellerID     string    `json:"seller_id"     binding:"required"      example:"seller123"`
	Category     string    `json:"category"`
	Images       []string  `json:"images"`
} // @name CreateAuctionRequest

type SubmitBidBody struct {
	AuctionID  string  `json:"auction_id"  binding:"required"      example:"auc123"`
	BidderID   string  `json:"bidder_id"   binding:"required"      example:"user123"`
	BidderName string  `json:"bidder_name"`
	Amount     float64 `json:"amount"      binding:"required,gt=0" example:"150"`
} // @name SubmitBidRequest

type BidAcceptedBody struct {
	Message string `json:"message"`
	BidID   string `json:"bid_id"`
	Status  string `json:"status" example:"PENDING"`
} // @name BidAcceptedResponse

type ListAuctionsQuery struct {
	Status string `form:"status"  binding:"omitempty,oneof=ACTIVE FINALIZED CANCELLED"`
	Limit  int    `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
} // @name ListAuctionsQuery

// Envelope is the uniform response body: success + data, or an error object.
type Envelope struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
} // @name Envelope

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
} // @name ErrorBody
