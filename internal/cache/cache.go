// Package cache keeps read-through snapshots of listings so GET routes do not contend for the marketplace lock.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xtrntr/marketplace/internal/events"
	"github.com/xtrntr/marketplace/internal/models"
)

// Listing is the order and bid stored for one asset at the time of the snapshot.
type Listing struct {
	Key   models.Key    `json:"key"`
	Order *models.Order `json:"order,omitempty"`
	Bid   *models.Bid   `json:"bid,omitempty"`
}

// Listings stores listing snapshots by asset key. Get returns nil and no error on a miss.
type Listings interface {
	Get(ctx context.Context, key models.Key) (*Listing, error)
	Set(ctx context.Context, listing *Listing) error
	Invalidate(ctx context.Context, key models.Key) error
}

// Fetch returns the cached listing for key, or loads and stores it on a miss.
func Fetch(ctx context.Context, c Listings, key models.Key, load func() *Listing) (*Listing, error) {
	cached, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}
	fresh := load()
	if err := c.Set(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

type entry struct {
	listing Listing
	expires time.Time
}

// Memory is an in-process Listings with a fixed TTL.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[models.Key]entry
}

var _ Listings = (*Memory)(nil)

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[models.Key]entry),
	}
}

func (m *Memory) Get(_ context.Context, key models.Key) (*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, nil
	}
	l := e.listing
	return &l, nil
}

func (m *Memory) Set(_ context.Context, listing *Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[listing.Key] = entry{listing: *listing, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, key models.Key) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Invalidator drops the cached listing of every asset an event touches.
type Invalidator struct {
	Cache  Listings
	Logger zerolog.Logger
}

var _ events.Emitter = Invalidator{}

func (i Invalidator) Emit(ctx context.Context, ev events.Event) {
	if ev.AssetID == "" {
		return
	}
	if err := i.Cache.Invalidate(ctx, ev.Key()); err != nil {
		i.Logger.Error().Err(err).Str("key", ev.Key().String()).Msg("failed to invalidate listing")
	}
}
