package auction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"timed-auction/internal/biddingerrors"
	"timed-auction/internal/clock"
	"timed-auction/internal/events"
	"timed-auction/internal/keylock"
	"timed-auction/internal/metrics"
	model "timed-auction/internal/models"
	"timed-auction/internal/notifier"
	"timed-auction/internal/repository"
	"timed-auction/internal/scheduler"
	"timed-auction/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger moves money between users
type Ledger interface {
	Debit(ctx context.Context, userID string, amount int64) (int64, error)
	Credit(ctx context.Context, userID string, amount int64) (int64, error)
}

// Scheduler runs timer callbacks
type Scheduler interface {
	ScheduleAt(at time.Time, name string, cb scheduler.Callback) (scheduler.Handle, error)
	Cancel(h scheduler.Handle) bool
}

// Policy holds the auction rules that are configurable
type Policy struct {
	// Window is how long a good accepts bids
	Window time.Duration
	// MarkdownAfter is when an unbid good is discounted
	MarkdownAfter time.Duration
	// MarkdownFactor multiplies the price at markdown, result floored
	MarkdownFactor decimal.Decimal
	// RefundOutbid credits the previous leader back when outbid
	RefundOutbid bool
	// OwnerBuyBackCharge debits the owner the price of an unbid good at close
	OwnerBuyBackCharge bool
}

// DefaultPolicy is a 24h window with a half-price markdown at 12h, no outbid
// refunds and owner buy-back charged
func DefaultPolicy() Policy {
	return Policy{
		Window:             24 * time.Hour,
		MarkdownAfter:      12 * time.Hour,
		MarkdownFactor:     decimal.NewFromFloat(0.5),
		RefundOutbid:       false,
		OwnerBuyBackCharge: true,
	}
}

type timerKind string

const (
	timerMarkdown timerKind = "markdown"
	timerClose    timerKind = "close"
)

type timerKey struct {
	goodID string
	kind   timerKind
}

// AuctionService runs the lifecycle of every listed good: bids, markdown and
// settlement
type AuctionService struct {
	repo     repository.AuctionDB
	ledger   Ledger
	sched    Scheduler
	clock    clock.Clock
	notifier notifier.Notifier
	events   events.Publisher
	metrics  *metrics.Metrics
	policy   Policy
	validate *validator.Validate

	goods *keylock.KeyedMutex

	timersMu sync.Mutex
	timers   map[timerKey]scheduler.Handle
}

// Option configures an AuctionService
type Option func(*AuctionService)

// WithNotifier sets where accepted bids are announced. n should not block.
func WithNotifier(n notifier.Notifier) Option {
	return func(s *AuctionService) { s.notifier = n }
}

// WithEventPublisher sets where settlements are published
func WithEventPublisher(p events.Publisher) Option {
	return func(s *AuctionService) { s.events = p }
}

// WithMetrics records bid results, markdowns and settlements
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AuctionService) { s.metrics = m }
}

// WithClock replaces the wall clock
func WithClock(c clock.Clock) Option {
	return func(s *AuctionService) { s.clock = c }
}

// WithPolicy replaces DefaultPolicy
func WithPolicy(p Policy) Option {
	return func(s *AuctionService) { s.policy = p }
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB, ledger Ledger, sched Scheduler, opts ...Option) *AuctionService {
	s := &AuctionService{
		repo:     repo,
		ledger:   ledger,
		sched:    sched,
		clock:    clock.Real{},
		notifier: notifier.Nop{},
		events:   events.NopPublisher{},
		policy:   DefaultPolicy(),
		validate: validator.New(),
		goods:    keylock.New(),
		timers:   make(map[timerKey]scheduler.Handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the rules in force
func (s *AuctionService) Policy() Policy {
	return s.policy
}

type listingInput struct {
	OwnerID string `validate:"required,max=64"`
	Name    string `validate:"required,max=200"`
	Price   int64  `validate:"gt=0"`
}

// CreateListing stores a new good owned by ownerID and schedules its markdown
// and close
func (s *AuctionService) CreateListing(ctx context.Context, ownerID, name string, price int64) (model.Good, error) {
	in := listingInput{OwnerID: ownerID, Name: name, Price: price}
	if err := s.validate.Struct(in); err != nil {
		return model.Good{}, fmt.Errorf("service: %w - %s", biddingerrors.ErrInvalidBid, err.Error())
	}

	if _, err := s.repo.GetUser(ctx, ownerID); err != nil {
		return model.Good{}, fmt.Errorf("service: failed to get owner %s: %w", ownerID, err)
	}

	good := model.Good{
		GoodID:        uuid.NewString(),
		OwnerID:       ownerID,
		Name:          name,
		StartingPrice: price,
		Price:         price,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.repo.CreateGood(ctx, good); err != nil {
		return model.Good{}, fmt.Errorf("service: failed to create good for owner %s: %w", ownerID, err)
	}

	// a scheduling failure does not undo the listing: the next recovery
	// sweep derives the same timers from CreatedAt
	s.scheduleTimer(good.GoodID, timerMarkdown, good.MarkdownAt(s.policy.MarkdownAfter))
	s.scheduleTimer(good.GoodID, timerClose, good.Deadline(s.policy.Window))

	utils.Info("service: listing created", map[string]any{
		"good_id":  good.GoodID,
		"owner_id": ownerID,
		"price":    price,
		"deadline": good.Deadline(s.policy.Window).Format(time.RFC3339),
	})
	return good, nil
}

// GetUser returns a user with their balance
func (s *AuctionService) GetUser(ctx context.Context, userID string) (model.User, error) {
	if userID == "" {
		return model.User{}, fmt.Errorf("service: %w - empty user ID", biddingerrors.ErrInvalidBid)
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, fmt.Errorf("service: failed to get user %s: %w", userID, err)
	}
	return user, nil
}

// GetBidsForGood returns all bids for a good ordered by amount
func (s *AuctionService) GetBidsForGood(ctx context.Context, goodID string) ([]model.Bid, error) {
	if goodID == "" {
		return nil, fmt.Errorf("service: %w - empty good ID", biddingerrors.ErrInvalidBid)
	}
	bids, err := s.repo.GetBidsByGood(ctx, goodID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for good %s: %w", goodID, err)
	}
	return bids, nil
}

// GetListing returns a good with its bid history
func (s *AuctionService) GetListing(ctx context.Context, goodID string) (model.Listing, error) {
	if goodID == "" {
		return model.Listing{}, fmt.Errorf("service: %w - empty good ID", biddingerrors.ErrInvalidBid)
	}
	good, err := s.repo.GetGood(ctx, goodID)
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to get good %s: %w", goodID, err)
	}
	return s.withBids(ctx, good)
}

// ListActiveListings returns unsold goods still inside their bidding window,
// oldest first
func (s *AuctionService) ListActiveListings(ctx context.Context) ([]model.Listing, error) {
	now := s.clock.Now()
	goods, err := s.repo.ListUnsoldCreatedAfter(ctx, now.Add(-s.policy.Window))
	if err != nil {
		return nil, fmt.Errorf("service: failed to list active goods: %w", err)
	}

	listings := make([]model.Listing, 0, len(goods))
	for _, g := range goods {
		if !now.Before(g.Deadline(s.policy.Window)) || g.CreatedAt.After(now) {
			continue
		}
		l, err := s.withBids(ctx, g)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// ListWonListings returns the goods settled in favour of userID
func (s *AuctionService) ListWonListings(ctx context.Context, userID string) ([]model.Listing, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	goods, err := s.repo.ListSoldTo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list goods won by %s: %w", userID, err)
	}

	listings := make([]model.Listing, 0, len(goods))
	for _, g := range goods {
		l, err := s.withBids(ctx, g)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func (s *AuctionService) withBids(ctx context.Context, good model.Good) (model.Listing, error) {
	bids, err := s.repo.GetBidsByGood(ctx, good.GoodID)
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to get bids for good %s: %w", good.GoodID, err)
	}
	return model.Listing{Good: good, Bids: bids}, nil
}
