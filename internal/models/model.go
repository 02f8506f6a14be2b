package models

import "time"

// User represents a participant in the marketplace. Balance is held in whole
// currency units and never goes below zero.
type User struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Balance  int64  `json:"balance"`
}

// Good represents a listed item with a fixed bidding window
type Good struct {
	GoodID        string    `json:"good_id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	StartingPrice int64     `json:"starting_price"`
	Price         int64     `json:"price"`
	MarkedDown    bool      `json:"marked_down"`
	SoldID        *string   `json:"sold_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsSold reports whether the good has been settled
func (g Good) IsSold() bool {
	return g.SoldID != nil
}

// Deadline returns the instant bidding closes for a window of the given length
func (g Good) Deadline(window time.Duration) time.Time {
	return g.CreatedAt.Add(window)
}

// MarkdownAt returns the instant an unbid good is discounted
func (g Good) MarkdownAt(after time.Duration) time.Time {
	return g.CreatedAt.Add(after)
}

// Bid represents an accepted bid on a good
type Bid struct {
	BidID     string    `json:"bid_id"`
	GoodID    string    `json:"good_id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Listing is a good together with its bid history ordered by amount
type Listing struct {
	Good Good  `json:"good"`
	Bids []Bid `json:"bids"`
}

// BidEvent is pushed to a good's room whenever a bid is accepted
type BidEvent struct {
	Amount   int64  `json:"amount"`
	Message  string `json:"message"`
	Nickname string `json:"nickname"`
}

// SettlementOutcome names how an auction closed
type SettlementOutcome string

const (
	// OutcomeWon: the leading bidder takes the good and the owner is credited.
	OutcomeWon SettlementOutcome = "won"
	// OutcomeOwnerBuyBack: nobody bid, the owner "wins" their own good and is
	// charged its current price.
	OutcomeOwnerBuyBack SettlementOutcome = "owner_buyback"
	// OutcomeNoop: the good was already settled.
	OutcomeNoop SettlementOutcome = "noop"
)

// Settlement describes the terminal transfer for a good
type Settlement struct {
	GoodID    string            `json:"good_id"`
	OwnerID   string            `json:"owner_id"`
	WinnerID  string            `json:"winner_id"`
	Amount    int64             `json:"amount"`
	Outcome   SettlementOutcome `json:"outcome"`
	SettledAt time.Time         `json:"settled_at"`
}
