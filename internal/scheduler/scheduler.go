// Package scheduler fires callbacks at wall-clock instants taken from an
// injected clock. Pending timers live in memory only; callers re-derive them
// from durable state after a restart.
package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"timed-auction/internal/biddingerrors"
	"timed-auction/internal/clock"
	"timed-auction/internal/metrics"
	"timed-auction/utils"
)

const defaultPollInterval = time.Second

// Handle identifies a registered timer
type Handle uint64

// Callback is run once when its timer fires
type Callback func(ctx context.Context) error

// Scheduler keeps pending timers ordered by fire time
type Scheduler struct {
	clock    clock.Clock
	interval time.Duration
	metrics  *metrics.Metrics

	mu      sync.Mutex
	queue   timerQueue
	timers  map[Handle]*timer
	nextID  Handle
	stopped bool

	wake     chan struct{}
	done     chan struct{}
	inflight sync.WaitGroup
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithPollInterval sets how often Run checks for due timers
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithMetrics records callback results and the pending gauge
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// New creates a Scheduler reading time from c
func New(c clock.Clock, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:    c,
		interval: defaultPollInterval,
		timers:   make(map[Handle]*timer),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleAt registers cb to run at at. A time already in the past fires on
// the next poll. name only labels log lines.
func (s *Scheduler) ScheduleAt(at time.Time, name string, cb Callback) (Handle, error) {
	if cb == nil {
		return 0, fmt.Errorf("scheduler: schedule %s: nil callback: %w", name, biddingerrors.ErrSchedulingFailure)
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0, fmt.Errorf("scheduler: schedule %s: scheduler stopped: %w", name, biddingerrors.ErrSchedulingFailure)
	}
	s.nextID++
	t := &timer{handle: s.nextID, at: at, name: name, cb: cb}
	heap.Push(&s.queue, t)
	s.timers[t.handle] = t
	earliest := s.queue[0] == t
	pending := len(s.timers)
	s.mu.Unlock()

	s.metrics.SetPending(pending)
	if earliest {
		s.signal()
	}

	utils.Debug("scheduler: timer registered", map[string]any{
		"timer":  name,
		"handle": uint64(t.handle),
		"at":     at.Format(time.RFC3339),
	})
	return t.handle, nil
}

// Cancel stops a timer that has not fired yet. It reports whether the
// cancellation took effect; false means the timer already fired, was already
// cancelled or never existed.
func (s *Scheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[h]
	if !ok {
		return false
	}
	if !t.state.CompareAndSwap(statePending, stateCancelled) {
		return false
	}
	heap.Remove(&s.queue, t.index)
	delete(s.timers, h)
	s.metrics.SetPending(len(s.timers))
	return true
}

// Pending returns the number of timers waiting to fire
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Poll starts every due timer on its own goroutine and returns how many were
// started. Callbacks outlive ctx cancellation so a shutdown never interrupts
// a settlement half way.
func (s *Scheduler) Poll(ctx context.Context) int {
	due := s.popDue(s.clock.Now())

	cbCtx := context.WithoutCancel(ctx)
	started := 0
	for _, t := range due {
		if !t.state.CompareAndSwap(statePending, stateFired) {
			continue
		}
		started++
		s.inflight.Add(1)
		go s.fire(cbCtx, t)
	}
	return started
}

func (s *Scheduler) popDue(now time.Time) []*timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*timer
	for len(s.queue) > 0 && !s.queue[0].at.After(now) {
		t := heap.Pop(&s.queue).(*timer)
		delete(s.timers, t.handle)
		due = append(due, t)
	}
	if len(due) > 0 {
		s.metrics.SetPending(len(s.timers))
	}
	return due
}

func (s *Scheduler) fire(ctx context.Context, t *timer) {
	defer s.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			s.metrics.CallbackResult("panic")
			utils.Error("scheduler: callback panicked", map[string]any{
				"timer": t.name,
				"panic": fmt.Sprint(r),
			})
		}
	}()

	if err := t.cb(ctx); err != nil {
		s.metrics.CallbackResult("error")
		utils.Error("scheduler: callback failed", map[string]any{
			"timer": t.name,
			"at":    t.at.Format(time.RFC3339),
			"error": err.Error(),
		})
		return
	}
	s.metrics.CallbackResult("ok")
}

// Run polls until ctx is cancelled, then refuses new timers and waits for
// running callbacks to return. Run must be called at most once; Done is
// closed when it returns.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	utils.Info("scheduler: started", map[string]any{"poll_interval": s.interval.String()})
	for {
		s.Poll(ctx)

		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.stopped = true
			s.mu.Unlock()
			s.Wait()
			utils.Info("scheduler: stopped", map[string]any{"pending": s.Pending()})
			return
		case <-ticker.C:
		case <-s.wake:
		}
	}
}

// Done is closed once Run has returned, which happens only after every
// callback it started has finished
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until every started callback has returned
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
