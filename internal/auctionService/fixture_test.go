package auction

import (
	"context"
	"sync"
	"testing"
	"time"

	"timed-auction/internal/clock"
	"timed-auction/internal/ledger"
	model "timed-auction/internal/models"
	"timed-auction/internal/repository"
	"timed-auction/internal/scheduler"

	"github.com/stretchr/testify/require"
)

var listedAt = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events map[string][]model.BidEvent
}

func (n *recordingNotifier) NotifyBid(_ context.Context, goodID string, event model.BidEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.events == nil {
		n.events = make(map[string][]model.BidEvent)
	}
	n.events[goodID] = append(n.events[goodID], event)
}

func (n *recordingNotifier) For(goodID string) []model.BidEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.BidEvent(nil), n.events[goodID]...)
}

type recordingPublisher struct {
	mu          sync.Mutex
	settlements []model.Settlement
}

func (p *recordingPublisher) PublishSettlement(_ context.Context, s model.Settlement) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settlements = append(p.settlements, s)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) All() []model.Settlement {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Settlement(nil), p.settlements...)
}

type fixture struct {
	ctx   context.Context
	clk   *clock.Manual
	repo  *repository.MemoryRepo
	sched *scheduler.Scheduler
	svc   *AuctionService
	notes *recordingNotifier
	pub   *recordingPublisher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return newFixtureOn(t, repository.NewMemoryRepo(), listedAt, opts...)
}

// newFixtureOn builds a fresh engine over an existing store, as a restarted
// process would
func newFixtureOn(t *testing.T, repo *repository.MemoryRepo, now time.Time, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		clk:   clock.NewManual(now),
		repo:  repo,
		notes: &recordingNotifier{},
		pub:   &recordingPublisher{},
	}
	f.sched = scheduler.New(f.clk)
	all := append([]Option{
		WithClock(f.clk),
		WithNotifier(f.notes),
		WithEventPublisher(f.pub),
	}, opts...)
	f.svc = NewAuctionService(repo, ledger.New(repo), f.sched, all...)
	return f
}

func (f *fixture) addUser(t *testing.T, userID string, balance int64) {
	t.Helper()
	require.NoError(t, f.repo.CreateUser(f.ctx, model.User{UserID: userID, Nickname: "nick-" + userID, Balance: balance}))
}

func (f *fixture) balance(t *testing.T, userID string) int64 {
	t.Helper()
	u, err := f.repo.GetUser(f.ctx, userID)
	require.NoError(t, err)
	return u.Balance
}

func (f *fixture) good(t *testing.T, goodID string) model.Good {
	t.Helper()
	g, err := f.repo.GetGood(f.ctx, goodID)
	require.NoError(t, err)
	return g
}

func (f *fixture) bids(t *testing.T, goodID string) []model.Bid {
	t.Helper()
	bids, err := f.repo.GetBidsByGood(f.ctx, goodID)
	require.NoError(t, err)
	return bids
}

func (f *fixture) list(t *testing.T, ownerID string, price int64) model.Good {
	t.Helper()
	g, err := f.svc.CreateListing(f.ctx, ownerID, "lamp", price)
	require.NoError(t, err)
	return g
}

// advance moves the clock and runs whatever timers became due
func (f *fixture) advance(d time.Duration) int {
	f.clk.Advance(d)
	n := f.sched.Poll(f.ctx)
	f.sched.Wait()
	return n
}
