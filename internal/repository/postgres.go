package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"timed-auction/internal/biddingerrors"
	model "timed-auction/internal/models"
	"timed-auction/utils"

	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const pqUniqueViolation = "23505"

// PostgresRepo is the durable AuctionDB. Guards that protect money and sold
// state are expressed as conditional UPDATEs so they hold across processes.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo wraps an open database handle
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// PoolConfig tunes the connection pool
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnectPostgres opens and pings a postgres connection pool
func ConnectPostgres(ctx context.Context, dsn string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded SQL migrations that have not run yet, each in
// its own transaction, recording them in schema_migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (filename TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, f := range files {
		name := strings.TrimPrefix(f, "migrations/")

		var exists bool
		if err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, name).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if exists {
			continue
		}

		body, err := migrationFS.ReadFile(f)
		if err != nil {
			return err
		}
		stmt := strings.TrimSpace(string(body))
		if stmt == "" {
			return errors.New("empty migration: " + name)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		utils.Info("migration applied", map[string]any{"migration": name})
	}
	return nil
}

const goodColumns = `id, owner_id, name, starting_price, price, marked_down, sold_id, created_at`

// CreateGood stores a new good
func (p *PostgresRepo) CreateGood(ctx context.Context, good model.Good) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO goods (id, owner_id, name, starting_price, price, marked_down, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		good.GoodID, good.OwnerID, good.Name, good.StartingPrice, good.Price, good.MarkedDown, good.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("repo: create good %s: %w", good.GoodID, mapPQError(err))
	}
	return nil
}

// GetGood returns a good by id
func (p *PostgresRepo) GetGood(ctx context.Context, goodID string) (model.Good, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+goodColumns+` FROM goods WHERE id = $1`, goodID)
	good, err := scanGood(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Good{}, fmt.Errorf("repo: get good %s: %w", goodID, biddingerrors.ErrGoodNotFound)
	}
	if err != nil {
		return model.Good{}, fmt.Errorf("repo: get good %s: %w", goodID, err)
	}
	return good, nil
}

// MarkDown sets a new price once, only while the good is unsold
func (p *PostgresRepo) MarkDown(ctx context.Context, goodID string, newPrice int64) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE goods SET price = $1, marked_down = TRUE WHERE id = $2 AND marked_down = FALSE AND sold_id IS NULL`,
		newPrice, goodID)
	if err != nil {
		return false, fmt.Errorf("repo: mark down good %s: %w", goodID, err)
	}
	return p.affectedOrMissing(ctx, res, goodID)
}

// MarkSold records the winner if the good is still unsold
func (p *PostgresRepo) MarkSold(ctx context.Context, goodID, winnerID string) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE goods SET sold_id = $1 WHERE id = $2 AND sold_id IS NULL`,
		winnerID, goodID)
	if err != nil {
		return false, fmt.Errorf("repo: mark sold good %s: %w", goodID, err)
	}
	return p.affectedOrMissing(ctx, res, goodID)
}

// affectedOrMissing turns a zero-row conditional update into false, or into
// ErrGoodNotFound when the row does not exist at all
func (p *PostgresRepo) affectedOrMissing(ctx context.Context, res sql.Result, goodID string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if _, err := p.GetGood(ctx, goodID); err != nil {
		return false, err
	}
	return false, nil
}

// ListUnsoldCreatedBefore returns unsold goods created at or before t
func (p *PostgresRepo) ListUnsoldCreatedBefore(ctx context.Context, t time.Time) ([]model.Good, error) {
	return p.queryGoods(ctx,
		`SELECT `+goodColumns+` FROM goods WHERE sold_id IS NULL AND created_at <= $1 ORDER BY created_at, id`, t.UTC())
}

// ListUnsoldCreatedAfter returns unsold goods created at or after t
func (p *PostgresRepo) ListUnsoldCreatedAfter(ctx context.Context, t time.Time) ([]model.Good, error) {
	return p.queryGoods(ctx,
		`SELECT `+goodColumns+` FROM goods WHERE sold_id IS NULL AND created_at >= $1 ORDER BY created_at, id`, t.UTC())
}

// ListSoldTo returns goods won by a user
func (p *PostgresRepo) ListSoldTo(ctx context.Context, userID string) ([]model.Good, error) {
	return p.queryGoods(ctx,
		`SELECT `+goodColumns+` FROM goods WHERE sold_id = $1 ORDER BY created_at, id`, userID)
}

func (p *PostgresRepo) queryGoods(ctx context.Context, query string, args ...any) ([]model.Good, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repo: list goods: %w", err)
	}
	defer rows.Close()

	goods := make([]model.Good, 0)
	for rows.Next() {
		good, err := scanGood(rows)
		if err != nil {
			return nil, fmt.Errorf("repo: scan good: %w", err)
		}
		goods = append(goods, good)
	}
	return goods, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGood(row rowScanner) (model.Good, error) {
	var (
		good   model.Good
		soldID sql.NullString
	)
	if err := row.Scan(&good.GoodID, &good.OwnerID, &good.Name, &good.StartingPrice, &good.Price,
		&good.MarkedDown, &soldID, &good.CreatedAt); err != nil {
		return model.Good{}, err
	}
	if soldID.Valid {
		s := soldID.String
		good.SoldID = &s
	}
	good.CreatedAt = good.CreatedAt.UTC()
	return good, nil
}

// RecordBid appends a bid to a good's history
func (p *PostgresRepo) RecordBid(ctx context.Context, bid model.Bid) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO bids (id, good_id, user_id, amount, message, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		bid.BidID, bid.GoodID, bid.UserID, bid.Amount, bid.Message, bid.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("repo: record bid for good %s: %w", bid.GoodID, mapPQError(err))
	}
	return nil
}

// GetBidsByGood returns all bids for a good ordered by amount
func (p *PostgresRepo) GetBidsByGood(ctx context.Context, goodID string) ([]model.Bid, error) {
	if _, err := p.GetGood(ctx, goodID); err != nil {
		return nil, fmt.Errorf("repo: get bids for good %s: %w", goodID, err)
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT id, good_id, user_id, amount, message, created_at FROM bids WHERE good_id = $1 ORDER BY amount ASC, seq ASC`, goodID)
	if err != nil {
		return nil, fmt.Errorf("repo: get bids for good %s: %w", goodID, err)
	}
	defer rows.Close()

	bids := make([]model.Bid, 0)
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.BidID, &b.GoodID, &b.UserID, &b.Amount, &b.Message, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("repo: scan bid: %w", err)
		}
		b.CreatedAt = b.CreatedAt.UTC()
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// GetLeadingBid returns the most recently recorded bid for a good
func (p *PostgresRepo) GetLeadingBid(ctx context.Context, goodID string) (model.Bid, error) {
	var b model.Bid
	err := p.db.QueryRowContext(ctx,
		`SELECT id, good_id, user_id, amount, message, created_at FROM bids WHERE good_id = $1 ORDER BY seq DESC LIMIT 1`, goodID).
		Scan(&b.BidID, &b.GoodID, &b.UserID, &b.Amount, &b.Message, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("repo: get leading bid for good %s: %w", goodID, biddingerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("repo: get leading bid for good %s: %w", goodID, err)
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}

// CreateUser stores a new user
func (p *PostgresRepo) CreateUser(ctx context.Context, user model.User) error {
	if user.Balance < 0 {
		return fmt.Errorf("repo: create user %s: negative balance: %w", user.UserID, biddingerrors.ErrInvalidBid)
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users (id, nickname, balance) VALUES ($1, $2, $3)`,
		user.UserID, user.Nickname, user.Balance)
	if err != nil {
		return fmt.Errorf("repo: create user %s: %w", user.UserID, mapPQError(err))
	}
	return nil
}

// GetUser returns a user by id
func (p *PostgresRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	var u model.User
	err := p.db.QueryRowContext(ctx, `SELECT id, nickname, balance FROM users WHERE id = $1`, userID).
		Scan(&u.UserID, &u.Nickname, &u.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("repo: get user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("repo: get user %s: %w", userID, err)
	}
	return u, nil
}

// AdjustBalance applies delta in a single guarded statement; a change that
// would take the balance below zero updates nothing.
func (p *PostgresRepo) AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	var balance int64
	err := p.db.QueryRowContext(ctx,
		`UPDATE users SET balance = balance + $1 WHERE id = $2 AND balance + $1 >= 0 RETURNING balance`,
		delta, userID).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("repo: adjust balance of %s: %w", userID, err)
	}

	user, gerr := p.GetUser(ctx, userID)
	if gerr != nil {
		return 0, fmt.Errorf("repo: adjust balance of %s: %w", userID, gerr)
	}
	return user.Balance, fmt.Errorf("repo: adjust balance of %s by %d: %w", userID, delta, biddingerrors.ErrInsufficientFunds)
}

func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%s: %w", pqErr.Constraint, biddingerrors.ErrDuplicateID)
	}
	return err
}
