package biddingerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantCode      string
		wantRejection bool
	}{
		{name: "nil", err: nil, wantCode: "", wantRejection: false},
		{name: "good_not_found", err: ErrGoodNotFound, wantCode: CodeNotFound, wantRejection: true},
		{name: "user_not_found_wrapped", err: fmt.Errorf("service: %w", ErrUserNotFound), wantCode: CodeNotFound, wantRejection: true},
		{name: "insufficient_funds", err: fmt.Errorf("ledger: debit: %w", ErrInsufficientFunds), wantCode: CodeInsufficientFunds, wantRejection: true},
		{name: "below_starting_price", err: ErrBelowStartingPrice, wantCode: CodeBelowStartingPrice, wantRejection: true},
		{name: "bid_too_low", err: ErrBidTooLow, wantCode: CodeBidTooLow, wantRejection: true},
		{name: "consecutive", err: ErrConsecutiveBid, wantCode: "ConsecutiveBidNotAllowed", wantRejection: true},
		{name: "closed", err: ErrAuctionClosed, wantCode: CodeAuctionClosed, wantRejection: true},
		{name: "sold", err: ErrAlreadySold, wantCode: CodeAlreadySold, wantRejection: true},
		{name: "invalid", err: ErrInvalidBid, wantCode: CodeInvalidRequest, wantRejection: true},
		{name: "consistency", err: ErrConsistencyViolation, wantCode: CodeInternal, wantRejection: false},
		{name: "unknown", err: errors.New("boom"), wantCode: CodeInternal, wantRejection: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.wantCode, Code(tc.err))
			require.Equal(t, tc.wantRejection, IsRejection(tc.err))
		})
	}
}
