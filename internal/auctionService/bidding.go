package auction

import (
	"context"
	"errors"
	"fmt"

	"timed-auction/internal/biddingerrors"
	model "timed-auction/internal/models"
	"timed-auction/utils"

	"github.com/google/uuid"
)

const resultAccepted = "accepted"

// PlaceBid validates and records a user's bid for a good. Checks run in a
// fixed order and the first failure is returned: not found or sold, closed,
// insufficient funds, not above the price, not above the leading bid, same
// bidder as the leader. A rejected bid changes nothing.
func (s *AuctionService) PlaceBid(ctx context.Context, goodID, bidderID string, amount int64, message string) (model.Bid, error) {
	if goodID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing goodID or bidderID", biddingerrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", biddingerrors.ErrInvalidBid)
	}

	unlock, err := s.goods.Lock(ctx, goodID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: waiting for good %s: %w", goodID, err)
	}
	bid, nickname, err := s.placeBidLocked(ctx, goodID, bidderID, amount, message)
	unlock()

	if err != nil {
		s.metrics.BidResult(biddingerrors.Code(err))
		return model.Bid{}, err
	}
	s.metrics.BidResult(resultAccepted)

	s.notifier.NotifyBid(ctx, goodID, model.BidEvent{
		Amount:   bid.Amount,
		Message:  bid.Message,
		Nickname: nickname,
	})
	return bid, nil
}

// placeBidLocked must run under the good's lock
func (s *AuctionService) placeBidLocked(ctx context.Context, goodID, bidderID string, amount int64, message string) (model.Bid, string, error) {
	good, err := s.repo.GetGood(ctx, goodID)
	if err != nil {
		return model.Bid{}, "", fmt.Errorf("service: failed to get good %s: %w", goodID, err)
	}
	if good.IsSold() {
		return model.Bid{}, "", fmt.Errorf("service: %w - good %s", biddingerrors.ErrAlreadySold, goodID)
	}

	now := s.clock.Now()
	if !now.Before(good.Deadline(s.policy.Window)) {
		return model.Bid{}, "", fmt.Errorf("service: %w - good %s closed at %s", biddingerrors.ErrAuctionClosed, goodID, good.Deadline(s.policy.Window))
	}

	bidder, err := s.repo.GetUser(ctx, bidderID)
	if err != nil {
		return model.Bid{}, "", fmt.Errorf("service: failed to get bidder %s: %w", bidderID, err)
	}

	lead, hasLead, err := s.leadingBid(ctx, goodID)
	if err != nil {
		return model.Bid{}, "", err
	}

	// the leader's own escrow on this good counts towards what they could
	// afford, so a leader re-bidding is reported as a consecutive bid
	available := bidder.Balance
	if hasLead && lead.UserID == bidderID {
		available += lead.Amount
	}
	if available < amount {
		return model.Bid{}, "", fmt.Errorf("service: %w - balance %d, bid %d", biddingerrors.ErrInsufficientFunds, bidder.Balance, amount)
	}
	if amount <= good.Price {
		return model.Bid{}, "", fmt.Errorf("service: %w - current price is %d", biddingerrors.ErrBelowStartingPrice, good.Price)
	}
	if hasLead && amount <= lead.Amount {
		return model.Bid{}, "", fmt.Errorf("service: %w - current leading bid is %d", biddingerrors.ErrBidTooLow, lead.Amount)
	}
	if hasLead && lead.UserID == bidderID {
		return model.Bid{}, "", fmt.Errorf("service: %w - user %s already leads good %s", biddingerrors.ErrConsecutiveBid, bidderID, goodID)
	}

	if _, err := s.ledger.Debit(ctx, bidderID, amount); err != nil {
		return model.Bid{}, "", fmt.Errorf("service: failed to debit bidder %s: %w", bidderID, err)
	}
	// the debit is committed: recording the bid or undoing the debit must not
	// stop because the caller went away
	ctx = context.WithoutCancel(ctx)

	bid := model.Bid{
		BidID:     uuid.NewString(),
		GoodID:    goodID,
		UserID:    bidderID,
		Amount:    amount,
		Message:   message,
		CreatedAt: now,
	}
	if err := s.repo.RecordBid(ctx, bid); err != nil {
		s.compensateCredit(ctx, bidderID, amount, goodID, "bid not recorded")
		return model.Bid{}, "", fmt.Errorf("service: failed to record bid for good %s by user %s: %w", goodID, bidderID, err)
	}

	if hasLead && s.policy.RefundOutbid {
		if _, err := s.ledger.Credit(ctx, lead.UserID, lead.Amount); err != nil {
			s.metrics.ConsistencyViolation()
			utils.ConsistencyViolation("service: outbid refund failed", map[string]any{
				"good_id": goodID,
				"user_id": lead.UserID,
				"amount":  lead.Amount,
				"error":   err.Error(),
			})
		}
	}
	if !hasLead {
		s.cancelTimer(goodID, timerMarkdown)
	}

	return bid, bidder.Nickname, nil
}

// leadingBid returns the most recent bid on a good, if any
func (s *AuctionService) leadingBid(ctx context.Context, goodID string) (model.Bid, bool, error) {
	lead, err := s.repo.GetLeadingBid(ctx, goodID)
	if errors.Is(err, biddingerrors.ErrNoBids) {
		return model.Bid{}, false, nil
	}
	if err != nil {
		return model.Bid{}, false, fmt.Errorf("service: failed to check leading bid for good %s: %w", goodID, err)
	}
	return lead, true, nil
}

// compensateCredit gives back money taken earlier in a step that then failed
func (s *AuctionService) compensateCredit(ctx context.Context, userID string, amount int64, goodID, reason string) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.ledger.Credit(ctx, userID, amount); err != nil {
		s.metrics.ConsistencyViolation()
		utils.ConsistencyViolation("service: compensating credit failed", map[string]any{
			"good_id": goodID,
			"user_id": userID,
			"amount":  amount,
			"reason":  reason,
			"error":   err.Error(),
		})
	}
}

// compensateDebit takes back money given earlier in a step that then failed
func (s *AuctionService) compensateDebit(ctx context.Context, userID string, amount int64, goodID, reason string) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.ledger.Debit(ctx, userID, amount); err != nil {
		s.metrics.ConsistencyViolation()
		utils.ConsistencyViolation("service: compensating debit failed", map[string]any{
			"good_id": goodID,
			"user_id": userID,
			"amount":  amount,
			"reason":  reason,
			"error":   err.Error(),
		})
	}
}
