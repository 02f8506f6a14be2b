package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timed-auction/internal/biddingerrors"
	model "timed-auction/internal/models"
	"timed-auction/internal/scheduler"
	"timed-auction/utils"

	"github.com/shopspring/decimal"
)

// Markdown discounts a good that has not received a bid. It reports whether
// the price changed; a sold, already discounted or bid-on good is left alone.
func (s *AuctionService) Markdown(ctx context.Context, goodID string) (bool, error) {
	unlock, err := s.goods.Lock(ctx, goodID)
	if err != nil {
		return false, fmt.Errorf("service: waiting for good %s: %w", goodID, err)
	}
	defer unlock()

	good, err := s.repo.GetGood(ctx, goodID)
	if err != nil {
		return false, fmt.Errorf("service: failed to get good %s: %w", goodID, err)
	}
	if good.IsSold() || good.MarkedDown {
		return false, nil
	}
	_, hasLead, err := s.leadingBid(ctx, goodID)
	if err != nil {
		return false, err
	}
	if hasLead {
		return false, nil
	}

	newPrice := markdownPrice(good.Price, s.policy.MarkdownFactor)
	applied, err := s.repo.MarkDown(ctx, goodID, newPrice)
	if err != nil {
		return false, fmt.Errorf("service: failed to mark down good %s: %w", goodID, err)
	}
	if applied {
		s.metrics.MarkedDown()
		utils.Info("service: good marked down", map[string]any{
			"good_id":   goodID,
			"old_price": good.Price,
			"new_price": newPrice,
		})
	}
	return applied, nil
}

func markdownPrice(price int64, factor decimal.Decimal) int64 {
	return decimal.NewFromInt(price).Mul(factor).Floor().IntPart()
}

// Settle closes the auction of a good exactly once. Without bids the owner
// wins their own good and, under the default policy, pays its current price.
// With bids the leader wins and the owner is credited the leading amount; the
// winner already paid when bidding. Settling a sold good is a no-op.
func (s *AuctionService) Settle(ctx context.Context, goodID string) (model.Settlement, error) {
	unlock, err := s.goods.Lock(ctx, goodID)
	if err != nil {
		return model.Settlement{}, fmt.Errorf("service: waiting for good %s: %w", goodID, err)
	}
	settlement, err := s.settleLocked(ctx, goodID)
	unlock()
	if err != nil {
		return model.Settlement{}, err
	}

	s.metrics.Settled(string(settlement.Outcome))
	if settlement.Outcome == model.OutcomeNoop {
		return settlement, nil
	}

	s.forgetTimers(goodID)
	utils.Info("service: auction settled", map[string]any{
		"good_id":   goodID,
		"owner_id":  settlement.OwnerID,
		"winner_id": settlement.WinnerID,
		"amount":    settlement.Amount,
		"outcome":   string(settlement.Outcome),
	})
	if err := s.events.PublishSettlement(ctx, settlement); err != nil {
		utils.Warn("service: settlement event not published", map[string]any{"good_id": goodID, "error": err.Error()})
	}
	return settlement, nil
}

func (s *AuctionService) settleLocked(ctx context.Context, goodID string) (model.Settlement, error) {
	good, err := s.repo.GetGood(ctx, goodID)
	if err != nil {
		return model.Settlement{}, fmt.Errorf("service: failed to get good %s: %w", goodID, err)
	}
	if good.IsSold() {
		return model.Settlement{
			GoodID:   goodID,
			OwnerID:  good.OwnerID,
			WinnerID: *good.SoldID,
			Outcome:  model.OutcomeNoop,
		}, nil
	}

	now := s.clock.Now()
	if now.Before(good.Deadline(s.policy.Window)) {
		return model.Settlement{}, fmt.Errorf("service: %w - good %s closes at %s", biddingerrors.ErrAuctionStillOpen, goodID, good.Deadline(s.policy.Window))
	}

	lead, hasLead, err := s.leadingBid(ctx, goodID)
	if err != nil {
		return model.Settlement{}, err
	}

	// from the first ledger write on, the settlement runs to completion or is
	// undone regardless of the caller's context
	ctx = context.WithoutCancel(ctx)

	settlement := model.Settlement{GoodID: goodID, OwnerID: good.OwnerID, SettledAt: now}
	if hasLead {
		settlement.WinnerID = lead.UserID
		settlement.Amount = lead.Amount
		settlement.Outcome = model.OutcomeWon

		if _, err := s.ledger.Credit(ctx, good.OwnerID, lead.Amount); err != nil {
			return model.Settlement{}, fmt.Errorf("service: failed to credit owner %s for good %s: %w", good.OwnerID, goodID, err)
		}
		if err := s.markSold(ctx, good, lead.UserID); err != nil {
			s.compensateDebit(ctx, good.OwnerID, lead.Amount, goodID, "good not marked sold")
			return model.Settlement{}, err
		}
		return settlement, nil
	}

	settlement.WinnerID = good.OwnerID
	settlement.Outcome = model.OutcomeOwnerBuyBack

	charged := false
	if s.policy.OwnerBuyBackCharge && good.Price > 0 {
		_, err := s.ledger.Debit(ctx, good.OwnerID, good.Price)
		switch {
		case err == nil:
			charged = true
			settlement.Amount = good.Price
		case errors.Is(err, biddingerrors.ErrInsufficientFunds):
			utils.Warn("service: owner cannot pay buy-back, charge waived", map[string]any{
				"good_id":  goodID,
				"owner_id": good.OwnerID,
				"price":    good.Price,
			})
		default:
			return model.Settlement{}, fmt.Errorf("service: failed to charge owner %s for good %s: %w", good.OwnerID, goodID, err)
		}
	}
	if err := s.markSold(ctx, good, good.OwnerID); err != nil {
		if charged {
			s.compensateCredit(ctx, good.OwnerID, good.Price, goodID, "good not marked sold")
		}
		return model.Settlement{}, err
	}
	return settlement, nil
}

// markSold flips the sold flag. Losing the compare-and-set while holding the
// good's lock means something wrote the good behind the engine's back.
func (s *AuctionService) markSold(ctx context.Context, good model.Good, winnerID string) error {
	sold, err := s.repo.MarkSold(ctx, good.GoodID, winnerID)
	if err != nil {
		return fmt.Errorf("service: failed to mark good %s sold: %w", good.GoodID, err)
	}
	if !sold {
		s.metrics.ConsistencyViolation()
		utils.ConsistencyViolation("service: good sold concurrently during settlement", map[string]any{
			"good_id":   good.GoodID,
			"winner_id": winnerID,
		})
		return fmt.Errorf("service: %w - good %s already sold", biddingerrors.ErrConsistencyViolation, good.GoodID)
	}
	return nil
}

// RecoveryReport summarizes one recovery sweep
type RecoveryReport struct {
	Scanned            int `json:"scanned"`
	MarkdownsScheduled int `json:"markdowns_scheduled"`
	MarkdownsApplied   int `json:"markdowns_applied"`
	ClosesScheduled    int `json:"closes_scheduled"`
	Failures           int `json:"failures"`
}

// Recover rebuilds the timers of every unsold good from its creation time.
// Goods past their markdown time but still open and without bids are marked
// down on the spot; closes already due fire on the next scheduler poll.
// Running it again replaces timers instead of adding more.
func (s *AuctionService) Recover(ctx context.Context) (RecoveryReport, error) {
	now := s.clock.Now()
	goods, err := s.repo.ListUnsoldCreatedBefore(ctx, now)
	if err != nil {
		return RecoveryReport{}, fmt.Errorf("service: recovery sweep: %w", err)
	}

	var report RecoveryReport
	for _, good := range goods {
		report.Scanned++

		markdownAt := good.MarkdownAt(s.policy.MarkdownAfter)
		deadline := good.Deadline(s.policy.Window)
		switch {
		case good.MarkedDown:
		case now.Before(markdownAt):
			if s.scheduleTimer(good.GoodID, timerMarkdown, markdownAt) {
				report.MarkdownsScheduled++
			} else {
				report.Failures++
			}
		case now.Before(deadline):
			applied, err := s.Markdown(ctx, good.GoodID)
			if err != nil {
				report.Failures++
				utils.Error("service: recovery markdown failed", map[string]any{"good_id": good.GoodID, "error": err.Error()})
			}
			if applied {
				report.MarkdownsApplied++
			}
		}

		if s.scheduleTimer(good.GoodID, timerClose, deadline) {
			report.ClosesScheduled++
		} else {
			report.Failures++
		}
	}

	utils.Info("service: recovery sweep finished", map[string]any{
		"scanned":             report.Scanned,
		"markdowns_scheduled": report.MarkdownsScheduled,
		"markdowns_applied":   report.MarkdownsApplied,
		"closes_scheduled":    report.ClosesScheduled,
		"failures":            report.Failures,
	})
	return report, nil
}

// scheduleTimer registers the good's timer of the given kind, replacing one
// registered earlier. Callbacks carry only the good id and reload the good
// under its lock.
func (s *AuctionService) scheduleTimer(goodID string, kind timerKind, at time.Time) bool {
	var cb scheduler.Callback
	switch kind {
	case timerMarkdown:
		cb = func(ctx context.Context) error {
			_, err := s.Markdown(ctx, goodID)
			return err
		}
	case timerClose:
		cb = func(ctx context.Context) error {
			_, err := s.Settle(ctx, goodID)
			return err
		}
	}

	key := timerKey{goodID: goodID, kind: kind}
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if old, ok := s.timers[key]; ok {
		s.sched.Cancel(old)
		delete(s.timers, key)
	}
	h, err := s.sched.ScheduleAt(at, string(kind)+":"+goodID, cb)
	if err != nil {
		utils.Error("service: timer not scheduled", map[string]any{
			"good_id": goodID,
			"timer":   string(kind),
			"at":      at.Format(time.RFC3339),
			"error":   err.Error(),
		})
		return false
	}
	s.timers[key] = h
	return true
}

func (s *AuctionService) cancelTimer(goodID string, kind timerKind) {
	key := timerKey{goodID: goodID, kind: kind}
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if h, ok := s.timers[key]; ok {
		s.sched.Cancel(h)
		delete(s.timers, key)
	}
}

// forgetTimers drops the bookkeeping of a settled good. Cancelling a timer
// that already fired is harmless.
func (s *AuctionService) forgetTimers(goodID string) {
	s.cancelTimer(goodID, timerMarkdown)
	s.cancelTimer(goodID, timerClose)
}

// PendingTimers returns how many timers the engine is tracking
func (s *AuctionService) PendingTimers() int {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	return len(s.timers)
}
