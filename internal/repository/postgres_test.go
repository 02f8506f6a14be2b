package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"timed-auction/internal/biddingerrors"
	model "timed-auction/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var goodRowColumns = []string{"id", "owner_id", "name", "starting_price", "price", "marked_down", "sold_id", "created_at"}

const selectGoodQuery = `SELECT id, owner_id, name, starting_price, price, marked_down, sold_id, created_at FROM goods WHERE id = $1`

func newMockRepo(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepo(db), mock
}

func TestPostgresRepo_GetGood(t *testing.T) {
	ctx := context.Background()

	t.Run("found_unsold", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectGoodQuery)).
			WithArgs("good1").
			WillReturnRows(sqlmock.NewRows(goodRowColumns).
				AddRow("good1", "owner1", "lamp", 1000, 500, true, nil, baseTime))

		good, err := repo.GetGood(ctx, "good1")
		require.NoError(t, err)
		require.Equal(t, model.Good{
			GoodID: "good1", OwnerID: "owner1", Name: "lamp",
			StartingPrice: 1000, Price: 500, MarkedDown: true, CreatedAt: baseTime,
		}, good)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("found_sold", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectGoodQuery)).
			WithArgs("good1").
			WillReturnRows(sqlmock.NewRows(goodRowColumns).
				AddRow("good1", "owner1", "lamp", 1000, 1000, false, "winner1", baseTime))

		good, err := repo.GetGood(ctx, "good1")
		require.NoError(t, err)
		require.True(t, good.IsSold())
		require.Equal(t, "winner1", *good.SoldID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not_found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectGoodQuery)).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetGood(ctx, "missing")
		require.True(t, errors.Is(err, biddingerrors.ErrGoodNotFound))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRepo_CreateGood(t *testing.T) {
	ctx := context.Background()
	good := newGood("good1", "owner1", 1000, baseTime)
	insert := regexp.QuoteMeta(`INSERT INTO goods (id, owner_id, name, starting_price, price, marked_down, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`)

	t.Run("inserted", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(insert).
			WithArgs("good1", "owner1", good.Name, int64(1000), int64(1000), false, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.CreateGood(ctx, good))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(insert).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "goods_pkey"})

		err := repo.CreateGood(ctx, good)
		require.True(t, errors.Is(err, biddingerrors.ErrDuplicateID))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRepo_MarkSold(t *testing.T) {
	ctx := context.Background()
	update := regexp.QuoteMeta(`UPDATE goods SET sold_id = $1 WHERE id = $2 AND sold_id IS NULL`)

	tests := []struct {
		name      string
		setup     func(mock sqlmock.Sqlmock)
		wantOK    bool
		wantError error
	}{
		{
			name: "first_settlement_wins",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(update).WithArgs("winner1", "good1").WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantOK: true,
		},
		{
			name: "already_sold",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(update).WithArgs("winner1", "good1").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(regexp.QuoteMeta(selectGoodQuery)).WithArgs("good1").
					WillReturnRows(sqlmock.NewRows(goodRowColumns).
						AddRow("good1", "owner1", "lamp", 1000, 1000, false, "other", baseTime))
			},
			wantOK: false,
		},
		{
			name: "missing_good",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(update).WithArgs("winner1", "good1").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(regexp.QuoteMeta(selectGoodQuery)).WithArgs("good1").WillReturnError(sql.ErrNoRows)
			},
			wantError: biddingerrors.ErrGoodNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tc.setup(mock)

			ok, err := repo.MarkSold(ctx, "good1", "winner1")
			if tc.wantError != nil {
				require.True(t, errors.Is(err, tc.wantError), "expected %v, got %v", tc.wantError, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.wantOK, ok)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresRepo_MarkDown(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE goods SET price = $1, marked_down = TRUE WHERE id = $2 AND marked_down = FALSE AND sold_id IS NULL`)).
		WithArgs(int64(500), "good1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.MarkDown(ctx, "good1", 500)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_AdjustBalance(t *testing.T) {
	ctx := context.Background()
	update := regexp.QuoteMeta(`UPDATE users SET balance = balance + $1 WHERE id = $2 AND balance + $1 >= 0 RETURNING balance`)
	selectUser := regexp.QuoteMeta(`SELECT id, nickname, balance FROM users WHERE id = $1`)

	tests := []struct {
		name        string
		delta       int64
		setup       func(mock sqlmock.Sqlmock)
		wantBalance int64
		wantError   error
	}{
		{
			name:  "debit_applied",
			delta: -1200,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(update).WithArgs(int64(-1200), "user1").
					WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(800))
			},
			wantBalance: 800,
		},
		{
			name:  "overdraft_refused",
			delta: -1300,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(update).WithArgs(int64(-1300), "user1").WillReturnError(sql.ErrNoRows)
				mock.ExpectQuery(selectUser).WithArgs("user1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "nickname", "balance"}).AddRow("user1", "b", 500))
			},
			wantBalance: 500,
			wantError:   biddingerrors.ErrInsufficientFunds,
		},
		{
			name:  "missing_user",
			delta: 10,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(update).WithArgs(int64(10), "user1").WillReturnError(sql.ErrNoRows)
				mock.ExpectQuery(selectUser).WithArgs("user1").WillReturnError(sql.ErrNoRows)
			},
			wantError: biddingerrors.ErrUserNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tc.setup(mock)

			balance, err := repo.AdjustBalance(ctx, "user1", tc.delta)
			if tc.wantError != nil {
				require.True(t, errors.Is(err, tc.wantError), "expected %v, got %v", tc.wantError, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.wantBalance, balance)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresRepo_Bids(t *testing.T) {
	ctx := context.Background()
	bidColumns := []string{"id", "good_id", "user_id", "amount", "message", "created_at"}

	t.Run("leading_bid", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, good_id, user_id, amount, message, created_at FROM bids WHERE good_id = $1 ORDER BY seq DESC LIMIT 1`)).
			WithArgs("good1").
			WillReturnRows(sqlmock.NewRows(bidColumns).AddRow("bid2", "good1", "user2", 1300, "mine", baseTime))

		bid, err := repo.GetLeadingBid(ctx, "good1")
		require.NoError(t, err)
		require.Equal(t, newBidWithMessage("bid2", "good1", "user2", 1300, "mine"), bid)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no_leading_bid", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM bids WHERE good_id = $1 ORDER BY seq DESC LIMIT 1`)).
			WithArgs("good1").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetLeadingBid(ctx, "good1")
		require.True(t, errors.Is(err, biddingerrors.ErrNoBids))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("history_ordered_by_amount", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectGoodQuery)).WithArgs("good1").
			WillReturnRows(sqlmock.NewRows(goodRowColumns).
				AddRow("good1", "owner1", "lamp", 1000, 1000, false, nil, baseTime))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM bids WHERE good_id = $1 ORDER BY amount ASC, seq ASC`)).
			WithArgs("good1").
			WillReturnRows(sqlmock.NewRows(bidColumns).
				AddRow("bid1", "good1", "user1", 1200, "a", baseTime).
				AddRow("bid2", "good1", "user2", 1300, "b", baseTime))

		bids, err := repo.GetBidsByGood(ctx, "good1")
		require.NoError(t, err)
		require.Len(t, bids, 2)
		require.Equal(t, int64(1200), bids[0].Amount)
		require.Equal(t, int64(1300), bids[1].Amount)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("record_bid", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bids (id, good_id, user_id, amount, message, created_at) VALUES ($1, $2, $3, $4, $5, $6)`)).
			WithArgs("bid1", "good1", "user1", int64(1200), "hi", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.RecordBid(ctx, newBidWithMessage("bid1", "good1", "user1", 1200, "hi")))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	t.Run("applies_pending_migration", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS schema_migrations`)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`)).
			WithArgs("001_init.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO schema_migrations (filename) VALUES ($1)`)).
			WithArgs("001_init.sql").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, Migrate(ctx, db))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips_applied_migration", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS schema_migrations`)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
			WithArgs("001_init.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		require.NoError(t, Migrate(ctx, db))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls_back_failed_migration", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS schema_migrations`)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).WillReturnError(errors.New("syntax error"))
		mock.ExpectRollback()

		err = Migrate(ctx, db)
		require.Error(t, err)
		require.Contains(t, err.Error(), "001_init.sql")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func newBidWithMessage(bidID, goodID, userID string, amount int64, msg string) model.Bid {
	b := newBid(bidID, goodID, userID, amount, baseTime)
	b.Message = msg
	b.CreatedAt = baseTime.In(time.UTC)
	return b
}
