package auction

import (
	"errors"
	"testing"
	"time"

	"timed-auction/internal/biddingerrors"

	"github.com/stretchr/testify/require"
)

func TestCreateListing(t *testing.T) {
	tests := []struct {
		name    string
		ownerID string
		title   string
		price   int64
		wantErr error
	}{
		{name: "valid", ownerID: "owner", title: "lamp", price: 1000},
		{name: "missing_name", ownerID: "owner", title: "", price: 1000, wantErr: biddingerrors.ErrInvalidBid},
		{name: "zero_price", ownerID: "owner", title: "lamp", price: 0, wantErr: biddingerrors.ErrInvalidBid},
		{name: "negative_price", ownerID: "owner", title: "lamp", price: -5, wantErr: biddingerrors.ErrInvalidBid},
		{name: "missing_owner", ownerID: "", title: "lamp", price: 10, wantErr: biddingerrors.ErrInvalidBid},
		{name: "unknown_owner", ownerID: "ghost", title: "lamp", price: 10, wantErr: biddingerrors.ErrUserNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.addUser(t, "owner", 0)

			good, err := f.svc.CreateListing(f.ctx, tc.ownerID, tc.title, tc.price)
			if tc.wantErr != nil {
				require.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
				require.Equal(t, 0, f.sched.Pending())
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, good.GoodID)
			require.Equal(t, tc.price, good.Price)
			require.Equal(t, tc.price, good.StartingPrice)
			require.Equal(t, listedAt, good.CreatedAt)
			require.False(t, good.IsSold())
			require.Equal(t, 2, f.sched.Pending(), "markdown and close are scheduled")

			stored := f.good(t, good.GoodID)
			require.Equal(t, good, stored)
		})
	}
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "owner", 0)
	f.addUser(t, "A", 5000)
	f.addUser(t, "B", 5000)

	old := f.list(t, "owner", 100)
	f.clk.Advance(20 * time.Hour)
	recent := f.list(t, "owner", 200)
	_, err := f.svc.PlaceBid(f.ctx, recent.GoodID, "A", 300, "a")
	require.NoError(t, err)
	_, err = f.svc.PlaceBid(f.ctx, recent.GoodID, "B", 250+200, "b")
	require.NoError(t, err)

	active, err := f.svc.ListActiveListings(f.ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, old.GoodID, active[0].Good.GoodID)
	require.Equal(t, recent.GoodID, active[1].Good.GoodID)
	require.Empty(t, active[0].Bids)
	require.Len(t, active[1].Bids, 2)
	require.Less(t, active[1].Bids[0].Amount, active[1].Bids[1].Amount)

	// the old good closes at +24h and drops out of the landing view
	f.advance(4 * time.Hour)
	active, err = f.svc.ListActiveListings(f.ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, recent.GoodID, active[0].Good.GoodID)

	listing, err := f.svc.GetListing(f.ctx, recent.GoodID)
	require.NoError(t, err)
	require.Equal(t, recent.GoodID, listing.Good.GoodID)
	require.Len(t, listing.Bids, 2)

	bids, err := f.svc.GetBidsForGood(f.ctx, recent.GoodID)
	require.NoError(t, err)
	require.Equal(t, listing.Bids, bids)

	won, err := f.svc.ListWonListings(f.ctx, "owner")
	require.NoError(t, err)
	require.Len(t, won, 1)
	require.Equal(t, old.GoodID, won[0].Good.GoodID)

	user, err := f.svc.GetUser(f.ctx, "A")
	require.NoError(t, err)
	require.Equal(t, int64(4700), user.Balance)

	_, err = f.svc.GetListing(f.ctx, "missing")
	require.True(t, errors.Is(err, biddingerrors.ErrGoodNotFound))
	_, err = f.svc.GetBidsForGood(f.ctx, "")
	require.True(t, errors.Is(err, biddingerrors.ErrInvalidBid))
	_, err = f.svc.ListWonListings(f.ctx, "ghost")
	require.True(t, errors.Is(err, biddingerrors.ErrUserNotFound))
	_, err = f.svc.GetUser(f.ctx, "")
	require.True(t, errors.Is(err, biddingerrors.ErrInvalidBid))
}
