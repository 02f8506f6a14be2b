package biddingerrors

import "errors"

// Repository-level errors
var (
	ErrGoodNotFound = errors.New("good not found")
	ErrUserNotFound = errors.New("user not found")
	ErrNoBids       = errors.New("no bids found for good")
	ErrDuplicateID  = errors.New("duplicate identifier")
)

// bid rejections, reported to the caller and never mutating state
var (
	ErrInvalidBid         = errors.New("invalid request")
	ErrAlreadySold        = errors.New("good already sold")
	ErrAuctionClosed      = errors.New("auction closed")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrBelowStartingPrice = errors.New("bid must exceed the current price")
	ErrBidTooLow          = errors.New("bid must exceed the leading bid")
	ErrConsecutiveBid     = errors.New("consecutive bids by the same bidder are not allowed")
)

// internal failures
var (
	ErrAuctionStillOpen     = errors.New("auction still open")
	ErrSchedulingFailure    = errors.New("scheduling failure")
	ErrConsistencyViolation = errors.New("consistency violation")
)

// Stable rejection codes exposed to callers
const (
	CodeNotFound           = "NotFound"
	CodeAlreadySold        = "AlreadySold"
	CodeAuctionClosed      = "AuctionClosed"
	CodeInsufficientFunds  = "InsufficientFunds"
	CodeBelowStartingPrice = "BelowStartingPrice"
	CodeBidTooLow          = "BidTooLow"
	CodeConsecutiveBid     = "ConsecutiveBidNotAllowed"
	CodeInvalidRequest     = "InvalidRequest"
	CodeAuctionStillOpen   = "AuctionStillOpen"
	CodeInternal           = "Internal"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrGoodNotFound, CodeNotFound},
	{ErrUserNotFound, CodeNotFound},
	{ErrAlreadySold, CodeAlreadySold},
	{ErrAuctionClosed, CodeAuctionClosed},
	{ErrInsufficientFunds, CodeInsufficientFunds},
	{ErrBelowStartingPrice, CodeBelowStartingPrice},
	{ErrBidTooLow, CodeBidTooLow},
	{ErrConsecutiveBid, CodeConsecutiveBid},
	{ErrInvalidBid, CodeInvalidRequest},
	{ErrAuctionStillOpen, CodeAuctionStillOpen},
}

// Code returns the stable code for err, or CodeInternal when err is not a
// known rejection. A nil error has no code.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// IsRejection reports whether err is a recoverable rejection rather than an
// infrastructure or invariant failure
func IsRejection(err error) bool {
	c := Code(err)
	return c != "" && c != CodeInternal
}
