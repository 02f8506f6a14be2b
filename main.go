package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	auction "timed-auction/internal/auctionService"
	"timed-auction/internal/biddingerrors"
	"timed-auction/internal/clock"
	"timed-auction/internal/config"
	"timed-auction/internal/events"
	"timed-auction/internal/ledger"
	"timed-auction/internal/metrics"
	model "timed-auction/internal/models"
	"timed-auction/internal/notifier"
	"timed-auction/internal/repository"
	"timed-auction/internal/scheduler"
	"timed-auction/internal/server"
	"timed-auction/utils"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("invalid configuration", map[string]any{"error": err.Error()})
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		utils.Warn("unknown log level, keeping info", map[string]any{"level": cfg.LogLevel})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo := openRepository(ctx, cfg)
	defer closeRepo()

	if cfg.SeedDemoUsers {
		prepopulateUsers(ctx, repo)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	sched := scheduler.New(clock.Real{},
		scheduler.WithPollInterval(cfg.SchedulerPollInterval),
		scheduler.WithMetrics(m),
	)

	hub := notifier.NewHub(nil)
	var fanout notifier.Notifier = hub
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			utils.Fatal("cannot reach redis", map[string]any{"addr": cfg.RedisAddr, "error": err.Error()})
		}
		notifier.StartRedisSubscriber(ctx, rdb, hub)
		fanout = notifier.NewRedisNotifier(rdb)
		utils.Info("bid events fan out through redis", map[string]any{"addr": cfg.RedisAddr})
	}
	async := notifier.NewAsync(fanout, cfg.NotifyQueueSize, m)
	async.Start(ctx)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(events.NewWriter(cfg.KafkaBrokers, cfg.SettlementTopic))
		utils.Info("settlement events go to kafka", map[string]any{"brokers": cfg.KafkaBrokers, "topic": cfg.SettlementTopic})
	}
	defer publisher.Close()

	svc := auction.NewAuctionService(repo, ledger.New(repo), sched,
		auction.WithNotifier(async),
		auction.WithEventPublisher(publisher),
		auction.WithMetrics(m),
		auction.WithPolicy(auction.Policy{
			Window:             cfg.AuctionWindow,
			MarkdownAfter:      cfg.MarkdownAfter,
			MarkdownFactor:     decimal.NewFromFloat(cfg.MarkdownFactor),
			RefundOutbid:       cfg.RefundOutbid,
			OwnerBuyBackCharge: cfg.OwnerBuyBackCharge,
		}),
	)

	if _, err := svc.Recover(ctx); err != nil {
		utils.Fatal("recovery sweep failed", map[string]any{"error": err.Error()})
	}
	go sched.Run(ctx)

	router := server.SetupRouter(server.Deps{
		Service:  svc,
		Rooms:    hub,
		Window:   cfg.AuctionWindow,
		Metrics:  m,
		Gatherer: reg,
	})
	srv := &http.Server{Addr: cfg.Addr(), Handler: router}

	go func() {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr, "store": cfg.Store})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	utils.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("http shutdown failed", map[string]any{"error": err.Error()})
	}
	<-sched.Done()
	<-async.Done()
}

// openRepository returns the configured store and a function releasing it
func openRepository(ctx context.Context, cfg *config.Config) (repository.AuctionDB, func()) {
	if cfg.Store != config.StorePostgres {
		utils.Warn("using the in-memory store, state is lost on restart", nil)
		return repository.NewMemoryRepo(), func() {}
	}

	db, err := repository.ConnectPostgres(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpen,
		MaxIdleConns:    cfg.DBMaxIdle,
		ConnMaxLifetime: cfg.DBMaxLife,
	})
	if err != nil {
		utils.Fatal("cannot connect to postgres", map[string]any{"error": err.Error()})
	}
	if err := repository.Migrate(ctx, db); err != nil {
		utils.Fatal("migrations failed", map[string]any{"error": err.Error()})
	}
	return repository.NewPostgresRepo(db), func() { _ = db.Close() }
}

// prepopulateUsers adds demo users so the API can be tried right away
func prepopulateUsers(ctx context.Context, repo repository.UserStore) {
	users := []model.User{
		{UserID: "user1", Nickname: "alice", Balance: 5000},
		{UserID: "user2", Nickname: "bob", Balance: 5000},
		{UserID: "user3", Nickname: "carol", Balance: 5000},
	}

	for _, user := range users {
		err := repo.CreateUser(ctx, user)
		if err != nil && !errors.Is(err, biddingerrors.ErrDuplicateID) {
			utils.Error("failed to seed user", map[string]any{"user_id": user.UserID, "error": err.Error()})
		}
	}
}
