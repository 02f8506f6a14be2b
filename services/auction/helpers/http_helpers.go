package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"timed-auction/internal/biddingerrors"
	"timed-auction/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w: %s", biddingerrors.ErrInvalidBid, err.Error())
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrGoodNotFound):
		return http.StatusNotFound, "good not found"
	case errors.Is(err, biddingerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid request details"
	case errors.Is(err, biddingerrors.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient funds"
	case errors.Is(err, biddingerrors.ErrBelowStartingPrice):
		return http.StatusConflict, "bid must exceed the current price"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, biddingerrors.ErrConsecutiveBid):
		return http.StatusConflict, "you already hold the leading bid"
	case errors.Is(err, biddingerrors.ErrAlreadySold):
		return http.StatusGone, "good already sold"
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return http.StatusGone, "auction closed"
	case errors.Is(err, biddingerrors.ErrAuctionStillOpen):
		return http.StatusConflict, "auction still open"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
