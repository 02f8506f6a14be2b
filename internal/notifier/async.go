package notifier

import (
	"context"

	"timed-auction/internal/metrics"
	model "timed-auction/internal/models"
	"timed-auction/utils"
)

const defaultQueueSize = 256

type job struct {
	goodID string
	event  model.BidEvent
}

// Async hands events to a background worker so the bidding path never waits
// on delivery. When the queue is full the event is dropped.
type Async struct {
	next    Notifier
	queue   chan job
	metrics *metrics.Metrics

	done chan struct{}
}

// NewAsync wraps next with a queue of size entries
func NewAsync(next Notifier, size int, m *metrics.Metrics) *Async {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Async{
		next:    next,
		queue:   make(chan job, size),
		metrics: m,
		done:    make(chan struct{}),
	}
}

// Start runs the delivery worker until ctx is done. Queued events are
// delivered before it returns.
func (a *Async) Start(ctx context.Context) {
	go func() {
		defer close(a.done)
		for {
			select {
			case j := <-a.queue:
				a.next.NotifyBid(ctx, j.goodID, j.event)
			case <-ctx.Done():
				a.drain()
				return
			}
		}
	}()
}

func (a *Async) drain() {
	ctx := context.Background()
	for {
		select {
		case j := <-a.queue:
			a.next.NotifyBid(ctx, j.goodID, j.event)
		default:
			return
		}
	}
}

// Done is closed once the worker has stopped
func (a *Async) Done() <-chan struct{} {
	return a.done
}

// NotifyBid enqueues the event without blocking
func (a *Async) NotifyBid(_ context.Context, goodID string, event model.BidEvent) {
	select {
	case a.queue <- job{goodID: goodID, event: event}:
	default:
		a.metrics.Dropped()
		utils.Warn("notifier: queue full, event dropped", map[string]any{"good_id": goodID, "queue_size": cap(a.queue)})
	}
}
