// Package notifier delivers accepted-bid events to the subscribers of a good's
// room. Delivery is fire-and-forget: nothing here reports failure back to the
// bidding path.
package notifier

import (
	"context"

	model "timed-auction/internal/models"
)

// Notifier pushes one event to the room of goodID
type Notifier interface {
	NotifyBid(ctx context.Context, goodID string, event model.BidEvent)
}

// RoomMessage is the frame written to websocket clients and carried over
// Redis between instances
type RoomMessage struct {
	Type   string         `json:"type"`
	GoodID string         `json:"good_id"`
	Event  model.BidEvent `json:"event"`
}

const messageTypeBid = "bid"

func newBidMessage(goodID string, event model.BidEvent) RoomMessage {
	return RoomMessage{Type: messageTypeBid, GoodID: goodID, Event: event}
}

// Nop discards every event
type Nop struct{}

// NotifyBid does nothing
func (Nop) NotifyBid(context.Context, string, model.BidEvent) {}
