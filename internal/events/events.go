// Package events describes marketplace state transitions and fans them out to observers.
package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xtrntr/marketplace/internal/models"
)

type Type string

const (
	OrderCreated    Type = "OrderCreated"
	OrderUpdated    Type = "OrderUpdated"
	OrderCancelled  Type = "OrderCancelled"
	OrderSuccessful Type = "OrderSuccessful"
	BidCreated      Type = "BidCreated"
	BidCancelled    Type = "BidCancelled"
	BidAccepted     Type = "BidAccepted"

	FeeCollectorChanged Type = "FeeCollectorChanged"
	FeeChanged          Type = "FeeChanged"
	BaseURIChanged      Type = "BaseURIChanged"
)

// Event is one committed state transition. Fields that do not apply to Type are left empty.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       Type            `json:"type"`
	Collection string          `json:"collection,omitempty"`
	AssetID    string          `json:"asset_id,omitempty"`
	Seller     models.Address  `json:"seller,omitempty"`
	Buyer      models.Address  `json:"buyer,omitempty"`
	Bidder     models.Address  `json:"bidder,omitempty"`
	Price      decimal.Decimal `json:"price"`
	ExpiresAt  int64           `json:"expires_at,omitempty"`
	Value      string          `json:"value,omitempty"`
	At         int64           `json:"at"`
}

// New returns an event of type t for key with a fresh id.
func New(t Type, key models.Key, at int64) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		Collection: key.Collection,
		AssetID:    key.AssetID,
		At:         at,
	}
}

// Key returns the asset key the event refers to.
func (e Event) Key() models.Key {
	return models.Key{Collection: e.Collection, AssetID: e.AssetID}
}

// Emitter receives committed events. Emit must not call back into the marketplace.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

// Multi delivers every event to each emitter in order.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, ev Event) {
	for _, e := range m {
		e.Emit(ctx, ev)
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(context.Context, Event) {}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in emission order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]Type, len(r.events))
	for i, ev := range r.events {
		types[i] = ev.Type
	}
	return types
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// ListEvents returns the recorded events of one asset, oldest first. limit <= 0 returns all of them.
func (r *Recorder) ListEvents(_ context.Context, key models.Key, limit int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Key() != key {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
