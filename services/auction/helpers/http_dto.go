package helpers

import (
	"time"

	model "timed-auction/internal/models"
)

// Request/Response DTOs
type CreateListingRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
	Name    string `json:"name" binding:"required,max=200"`
	Price   int64  `json:"price" binding:"required,gt=0"`
}

type PlaceBidRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Amount  int64  `json:"amount" binding:"required,gt=0"`
	Message string `json:"message" binding:"max=500"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	GoodID    string `json:"good_id"`
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

type GoodResponse struct {
	GoodID        string  `json:"good_id"`
	OwnerID       string  `json:"owner_id"`
	Name          string  `json:"name"`
	StartingPrice int64   `json:"starting_price"`
	Price         int64   `json:"price"`
	MarkedDown    bool    `json:"marked_down"`
	Sold          bool    `json:"sold"`
	WinnerID      *string `json:"winner_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ClosesAt      string  `json:"closes_at"`
}

type ListingResponse struct {
	GoodResponse
	Bids []BidResponse `json:"bids"`
}

type UserResponse struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Balance  int64  `json:"balance"`
}

// ToBidResponse converts a bid for the wire
func ToBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		GoodID:    b.GoodID,
		UserID:    b.UserID,
		Amount:    b.Amount,
		Message:   b.Message,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToGoodResponse converts a good for the wire; window is the bidding window
func ToGoodResponse(g model.Good, window time.Duration) GoodResponse {
	return GoodResponse{
		GoodID:        g.GoodID,
		OwnerID:       g.OwnerID,
		Name:          g.Name,
		StartingPrice: g.StartingPrice,
		Price:         g.Price,
		MarkedDown:    g.MarkedDown,
		Sold:          g.IsSold(),
		WinnerID:      g.SoldID,
		CreatedAt:     g.CreatedAt.UTC().Format(time.RFC3339),
		ClosesAt:      g.Deadline(window).UTC().Format(time.RFC3339),
	}
}

// ToListingResponse converts a good with its bids
func ToListingResponse(l model.Listing, window time.Duration) ListingResponse {
	bids := make([]BidResponse, 0, len(l.Bids))
	for _, b := range l.Bids {
		bids = append(bids, ToBidResponse(b))
	}
	return ListingResponse{GoodResponse: ToGoodResponse(l.Good, window), Bids: bids}
}

// ToListingResponses converts a list of listings
func ToListingResponses(ls []model.Listing, window time.Duration) []ListingResponse {
	out := make([]ListingResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, ToListingResponse(l, window))
	}
	return out
}
