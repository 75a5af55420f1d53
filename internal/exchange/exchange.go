// Package exchange holds the order book and the bid book. Every listed asset and every bid's funds are held
// by the exchange's own address until the order or bid is removed.
package exchange

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/xtrntr/marketplace/internal/asset"
	"github.com/xtrntr/marketplace/internal/clock"
	"github.com/xtrntr/marketplace/internal/events"
	"github.com/xtrntr/marketplace/internal/metrics"
	"github.com/xtrntr/marketplace/internal/models"
	"github.com/xtrntr/marketplace/internal/token"
)

// MinLeadTime is how far in the future a new expiration must be.
const MinLeadTime = time.Minute

// Collections resolves collection ids to asset collections.
type Collections interface {
	Collection(id string) (asset.Collection, error)
	IDs() []string
}

// Settings are the administrative parameters of the exchange.
type Settings struct {
	Admin          models.Address `json:"admin"`
	FeeCollector   models.Address `json:"fee_collector"`
	FeeBasisPoints int64          `json:"fee_basis_points"`
	BaseURI        string         `json:"base_uri"`
}

// Exchange manages the order book and the bid book
type Exchange struct {
	self        models.Address
	collections Collections
	token       token.Ledger

	clock   clock.Clock
	emitter events.Emitter
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	orders   map[models.Key]*models.Order
	bids     map[models.Key]*models.Bid
	settings Settings
}

type Option func(*Exchange)

// WithClock overrides the system clock.
func WithClock(c clock.Clock) Option {
	return func(e *Exchange) { e.clock = c }
}

// WithEmitter sets where committed events go.
func WithEmitter(em events.Emitter) Option {
	return func(e *Exchange) { e.emitter = em }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Exchange) { e.logger = l.With().Str("module", "exchange").Logger() }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Exchange) { e.metrics = m }
}

// WithAdmin sets the address allowed to change settings. The admin is also the initial fee collector.
func WithAdmin(admin models.Address) Option {
	return func(e *Exchange) {
		e.settings.Admin = admin
		e.settings.FeeCollector = admin
	}
}

// NewExchange creates an exchange that custodies assets and funds under the address self.
func NewExchange(self models.Address, collections Collections, ledger token.Ledger, opts ...Option) *Exchange {
	e := &Exchange{
		self:        self,
		collections: collections,
		token:       ledger,
		clock:       clock.NewSystem(),
		emitter:     events.Discard{},
		logger:      zerolog.Nop(),
		metrics:     metrics.Nop(),
		orders:      make(map[models.Key]*models.Order),
		bids:        make(map[models.Key]*models.Bid),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Address is the custody address of the exchange.
func (e *Exchange) Address() models.Address {
	return e.self
}

// Order returns the order stored at key, expired or not.
func (e *Exchange) Order(key models.Key) (models.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.orders[key]
	if !ok {
		return models.Order{}, false
	}
	return *o, true
}

// Bid returns the bid stored at key, expired or not.
func (e *Exchange) Bid(key models.Key) (models.Bid, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.bids[key]
	if !ok {
		return models.Bid{}, false
	}
	return *b, true
}

// GetOrderBook returns every stored order and bid sorted by key.
func (e *Exchange) GetOrderBook() ([]models.Order, []models.Bid) {
	e.mu.Lock()
	defer e.mu.Unlock()

	orders := make([]models.Order, 0, len(e.orders))
	for _, o := range e.orders {
		orders = append(orders, *o)
	}
	sort.Slice(orders, func(i, j int) bool { return lessKey(orders[i].Key, orders[j].Key) })

	bids := make([]models.Bid, 0, len(e.bids))
	for _, b := range e.bids {
		bids = append(bids, *b)
	}
	sort.Slice(bids, func(i, j int) bool { return lessKey(bids[i].Key, bids[j].Key) })
	return orders, bids
}

func lessKey(a, b models.Key) bool {
	if a.Collection == b.Collection {
		return a.AssetID < b.AssetID
	}
	return a.Collection < b.Collection
}

// Settings returns the current administrative settings.
func (e *Exchange) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// SetFeeCollector changes who receives trade fees.
func (e *Exchange) SetFeeCollector(ctx context.Context, caller, collector models.Address) error {
	return e.atomically(ctx, "set_fee_collector", func(j *journal) error {
		if err := e.requireAdmin(caller); err != nil {
			return err
		}
		if collector == "" {
			return ErrInvalidAddress
		}
		e.settings.FeeCollector = collector
		ev := events.New(events.FeeCollectorChanged, models.Key{}, e.now())
		ev.Value = string(collector)
		j.emit(ev)
		return nil
	})
}

// SetFeeBasisPoints changes the share of every trade paid to the fee collector. 0 disables fees.
func (e *Exchange) SetFeeBasisPoints(ctx context.Context, caller models.Address, bps int64) error {
	return e.atomically(ctx, "set_fee", func(j *journal) error {
		if err := e.requireAdmin(caller); err != nil {
			return err
		}
		if bps < 0 || bps > basisPointsDenominator {
			return fmt.Errorf("%w: %d", ErrInvalidFee, bps)
		}
		e.settings.FeeBasisPoints = bps
		ev := events.New(events.FeeChanged, models.Key{}, e.now())
		ev.Value = fmt.Sprint(bps)
		j.emit(ev)
		return nil
	})
}

// SetBaseURI changes the metadata base URI and pushes it to every collection that publishes one.
func (e *Exchange) SetBaseURI(ctx context.Context, caller models.Address, uri string) error {
	return e.atomically(ctx, "set_base_uri", func(j *journal) error {
		if err := e.requireAdmin(caller); err != nil {
			return err
		}
		e.settings.BaseURI = uri
		for _, id := range e.collections.IDs() {
			col, err := e.collections.Collection(id)
			if err != nil {
				return err
			}
			if setter, ok := col.(asset.URISetter); ok {
				setter.SetBaseURI(uri)
			}
		}
		ev := events.New(events.BaseURIChanged, models.Key{}, e.now())
		ev.Value = uri
		j.emit(ev)
		return nil
	})
}

func (e *Exchange) requireAdmin(caller models.Address) error {
	if e.settings.Admin == "" || caller != e.settings.Admin {
		return ErrNotAdmin
	}
	return nil
}

func (e *Exchange) now() int64 {
	return e.clock.Now().Unix()
}

// validPrice reports whether price is a positive settlement amount.
func validPrice(price decimal.Decimal) bool {
	return models.IsAmount(price) && price.IsPositive()
}

// validExpiry reports whether expiresAt is strictly more than MinLeadTime after now.
func (e *Exchange) validExpiry(expiresAt int64) bool {
	return expiresAt > e.clock.Now().Add(MinLeadTime).Unix()
}

func (e *Exchange) storeOrder(j *journal, o *models.Order) {
	prev, existed := e.orders[o.Key]
	e.orders[o.Key] = o
	j.onUndo(func(context.Context) error {
		if existed {
			e.orders[o.Key] = prev
		} else {
			delete(e.orders, o.Key)
		}
		return nil
	})
}

func (e *Exchange) removeOrder(j *journal, key models.Key) {
	prev, existed := e.orders[key]
	if !existed {
		return
	}
	delete(e.orders, key)
	j.onUndo(func(context.Context) error {
		e.orders[key] = prev
		return nil
	})
}

func (e *Exchange) storeBid(j *journal, b *models.Bid) {
	prev, existed := e.bids[b.Key]
	e.bids[b.Key] = b
	j.onUndo(func(context.Context) error {
		if existed {
			e.bids[b.Key] = prev
		} else {
			delete(e.bids, b.Key)
		}
		return nil
	})
}

func (e *Exchange) removeBid(j *journal, key models.Key) {
	prev, existed := e.bids[key]
	if !existed {
		return
	}
	delete(e.bids, key)
	j.onUndo(func(context.Context) error {
		e.bids[key] = prev
		return nil
	})
}
