package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"timed-auction/internal/biddingerrors"
	model "timed-auction/internal/models"
)

//go:generate mockgen -destination=mock_repository.go -package=repository timed-auction/internal/repository AuctionDB

// GoodStore holds goods with their current price, owner and sold status
type GoodStore interface {
	CreateGood(ctx context.Context, good model.Good) error
	GetGood(ctx context.Context, goodID string) (model.Good, error)
	MarkDown(ctx context.Context, goodID string, newPrice int64) (bool, error)
	MarkSold(ctx context.Context, goodID, winnerID string) (bool, error)
	ListUnsoldCreatedBefore(ctx context.Context, t time.Time) ([]model.Good, error)
	ListUnsoldCreatedAfter(ctx context.Context, t time.Time) ([]model.Good, error)
	ListSoldTo(ctx context.Context, userID string) ([]model.Good, error)
}

// BidStore holds the append-only bid history of every good
type BidStore interface {
	RecordBid(ctx context.Context, bid model.Bid) error
	GetBidsByGood(ctx context.Context, goodID string) ([]model.Bid, error)
	GetLeadingBid(ctx context.Context, goodID string) (model.Bid, error)
}

// UserStore holds users and their balances
type UserStore interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, userID string) (model.User, error)
	AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error)
}

// AuctionDB defines the storage interface for the auction system
type AuctionDB interface {
	GoodStore
	BidStore
	UserStore
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB.
// It is not durable; use PostgresRepo when listings must survive a restart.
type MemoryRepo struct {
	mu    sync.RWMutex
	goods map[string]model.Good  // key: goodID
	bids  map[string][]model.Bid // key: goodID -> bids in insertion order
	users map[string]model.User  // key: userID
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		goods: make(map[string]model.Good),
		bids:  make(map[string][]model.Bid),
		users: make(map[string]model.User),
	}
}

// CreateGood stores a new good
func (r *MemoryRepo) CreateGood(_ context.Context, good model.Good) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.goods[good.GoodID]; ok {
		return fmt.Errorf("repo: create good %s: %w", good.GoodID, biddingerrors.ErrDuplicateID)
	}
	r.goods[good.GoodID] = cloneGood(good)
	return nil
}

// GetGood returns a good by id
func (r *MemoryRepo) GetGood(_ context.Context, goodID string) (model.Good, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	good, ok := r.goods[goodID]
	if !ok {
		return model.Good{}, fmt.Errorf("repo: get good %s: %w", goodID, biddingerrors.ErrGoodNotFound)
	}
	return cloneGood(good), nil
}

// MarkDown sets a new price once. It reports false when the good was already
// marked down or sold.
func (r *MemoryRepo) MarkDown(_ context.Context, goodID string, newPrice int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	good, ok := r.goods[goodID]
	if !ok {
		return false, fmt.Errorf("repo: mark down good %s: %w", goodID, biddingerrors.ErrGoodNotFound)
	}
	if good.MarkedDown || good.SoldID != nil {
		return false, nil
	}
	good.Price = newPrice
	good.MarkedDown = true
	r.goods[goodID] = good
	return true, nil
}

// MarkSold sets the winner if the good is still unsold. It reports false when
// another settlement got there first.
func (r *MemoryRepo) MarkSold(_ context.Context, goodID, winnerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	good, ok := r.goods[goodID]
	if !ok {
		return false, fmt.Errorf("repo: mark sold good %s: %w", goodID, biddingerrors.ErrGoodNotFound)
	}
	if good.SoldID != nil {
		return false, nil
	}
	winner := winnerID
	good.SoldID = &winner
	r.goods[goodID] = good
	return true, nil
}

// ListUnsoldCreatedBefore returns unsold goods created at or before t
func (r *MemoryRepo) ListUnsoldCreatedBefore(_ context.Context, t time.Time) ([]model.Good, error) {
	return r.filterGoods(func(g model.Good) bool {
		return g.SoldID == nil && !g.CreatedAt.After(t)
	}), nil
}

// ListUnsoldCreatedAfter returns unsold goods created at or after t
func (r *MemoryRepo) ListUnsoldCreatedAfter(_ context.Context, t time.Time) ([]model.Good, error) {
	return r.filterGoods(func(g model.Good) bool {
		return g.SoldID == nil && !g.CreatedAt.Before(t)
	}), nil
}

// ListSoldTo returns goods won by a user
func (r *MemoryRepo) ListSoldTo(_ context.Context, userID string) ([]model.Good, error) {
	return r.filterGoods(func(g model.Good) bool {
		return g.SoldID != nil && *g.SoldID == userID
	}), nil
}

func (r *MemoryRepo) filterGoods(keep func(model.Good) bool) []model.Good {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goods := make([]model.Good, 0)
	for _, g := range r.goods {
		if keep(g) {
			goods = append(goods, cloneGood(g))
		}
	}
	sort.Slice(goods, func(i, j int) bool {
		if goods[i].CreatedAt.Equal(goods[j].CreatedAt) {
			return goods[i].GoodID < goods[j].GoodID
		}
		return goods[i].CreatedAt.Before(goods[j].CreatedAt)
	})
	return goods
}

// RecordBid appends a bid to a good's history
func (r *MemoryRepo) RecordBid(_ context.Context, bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.goods[bid.GoodID]; !ok {
		return fmt.Errorf("repo: record bid for good %s: %w", bid.GoodID, biddingerrors.ErrGoodNotFound)
	}
	r.bids[bid.GoodID] = append(r.bids[bid.GoodID], bid)
	return nil
}

// GetBidsByGood returns all bids for a good ordered by amount. A good without
// bids yields an empty slice.
func (r *MemoryRepo) GetBidsByGood(_ context.Context, goodID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.goods[goodID]; !ok {
		return nil, fmt.Errorf("repo: get bids for good %s: %w", goodID, biddingerrors.ErrGoodNotFound)
	}
	bids := append([]model.Bid{}, r.bids[goodID]...)
	sort.SliceStable(bids, func(i, j int) bool { return bids[i].Amount < bids[j].Amount })
	return bids, nil
}

// GetLeadingBid returns the most recently recorded bid for a good
func (r *MemoryRepo) GetLeadingBid(_ context.Context, goodID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids := r.bids[goodID]
	if len(bids) == 0 {
		return model.Bid{}, fmt.Errorf("repo: get leading bid for good %s: %w", goodID, biddingerrors.ErrNoBids)
	}
	return bids[len(bids)-1], nil
}

// CreateUser stores a new user
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.Balance < 0 {
		return fmt.Errorf("repo: create user %s: negative balance: %w", user.UserID, biddingerrors.ErrInvalidBid)
	}
	if _, ok := r.users[user.UserID]; ok {
		return fmt.Errorf("repo: create user %s: %w", user.UserID, biddingerrors.ErrDuplicateID)
	}
	r.users[user.UserID] = user
	return nil
}

// GetUser returns a user by id
func (r *MemoryRepo) GetUser(_ context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("repo: get user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	return user, nil
}

// AdjustBalance applies delta to a user's balance and returns the new
// balance. The adjustment is refused if it would take the balance below zero.
func (r *MemoryRepo) AdjustBalance(_ context.Context, userID string, delta int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return 0, fmt.Errorf("repo: adjust balance of %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	if user.Balance+delta < 0 {
		return user.Balance, fmt.Errorf("repo: adjust balance of %s by %d: %w", userID, delta, biddingerrors.ErrInsufficientFunds)
	}
	user.Balance += delta
	r.users[userID] = user
	return user.Balance, nil
}

func cloneGood(g model.Good) model.Good {
	if g.SoldID != nil {
		sold := *g.SoldID
		g.SoldID = &sold
	}
	return g
}
