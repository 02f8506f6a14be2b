package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "timed-auction/internal/auctionService"
	"timed-auction/internal/clock"
	"timed-auction/internal/ledger"
	model "timed-auction/internal/models"
	"timed-auction/internal/repository"
	"timed-auction/internal/scheduler"
	"timed-auction/internal/server"

	"github.com/gin-gonic/gin"
)

var startTime = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

// TestEnv is a running service over an in-memory store with a clock the test
// moves by hand
type TestEnv struct {
	Router *gin.Engine
	Repo   *repository.MemoryRepo
	Clock  *clock.Manual
	Sched  *scheduler.Scheduler
	Svc    *auction.AuctionService
}

// SetupTestRouter initializes the router with in-memory repository for integration testing.
func SetupTestRouter(t *testing.T, users ...model.User) *TestEnv {
	t.Helper()
	repo := repository.NewMemoryRepo()
	for _, u := range users {
		if err := repo.CreateUser(context.Background(), u); err != nil {
			t.Fatalf("failed to seed user %s: %v", u.UserID, err)
		}
	}
	return SetupTestRouterOn(t, repo, startTime)
}

// SetupTestRouterOn starts a fresh service over an existing store at now, the
// way a restarted process would
func SetupTestRouterOn(t *testing.T, repo *repository.MemoryRepo, now time.Time) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewManual(now)
	sched := scheduler.New(clk)
	svc := auction.NewAuctionService(repo, ledger.New(repo), sched, auction.WithClock(clk))
	router := server.SetupRouter(server.Deps{
		Service: svc,
		Window:  svc.Policy().Window,
	})

	return &TestEnv{Router: router, Repo: repo, Clock: clk, Sched: sched, Svc: svc}
}

// Advance moves the clock forward and runs the timers that became due
func (e *TestEnv) Advance(d time.Duration) {
	e.Clock.Advance(d)
	e.Sched.Poll(context.Background())
	e.Sched.Wait()
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := ExecuteRequest(t, router, method, url, reqBody)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		if err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}

		if w.Code == 201 {
			resp = resp["data"].(map[string]any)
		}
	}

	return resp, w
}
