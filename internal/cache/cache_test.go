package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtrntr/marketplace/internal/events"
	"github.com/xtrntr/marketplace/internal/models"
)

var land1 = models.Key{Collection: "land", AssetID: "1"}

func sample() *Listing {
	return &Listing{
		Key: land1,
		Order: &models.Order{
			Key:       land1,
			Seller:    "0xseller",
			Price:     decimal.NewFromInt(10),
			ExpiresAt: 2000,
		},
	}
}

// exerciseListings runs the behavior every Listings implementation shares.
func exerciseListings(t *testing.T, c Listings) {
	ctx := context.Background()

	got, err := c.Get(ctx, land1)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, sample()))
	got, err = c.Get(ctx, land1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Order)
	assert.Equal(t, models.Address("0xseller"), got.Order.Seller)
	assert.True(t, got.Order.Price.Equal(decimal.NewFromInt(10)))
	assert.Nil(t, got.Bid)

	require.NoError(t, c.Invalidate(ctx, land1))
	got, err = c.Get(ctx, land1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory(t *testing.T) {
	exerciseListings(t, NewMemory(time.Minute))
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	c := NewMemory(10 * time.Second)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, sample()))
	now = now.Add(9 * time.Second)
	got, err := c.Get(ctx, land1)
	require.NoError(t, err)
	assert.NotNil(t, got)

	now = now.Add(time.Second)
	got, err = c.Get(ctx, land1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	loads := 0
	load := func() *Listing {
		loads++
		return sample()
	}

	for i := 0; i < 3; i++ {
		l, err := Fetch(ctx, c, land1, load)
		require.NoError(t, err)
		assert.Equal(t, land1, l.Key)
	}
	assert.Equal(t, 1, loads)

	inv := Invalidator{Cache: c, Logger: zerolog.Nop()}
	inv.Emit(ctx, events.New(events.FeeChanged, models.Key{}, 1))
	_, err := Fetch(ctx, c, land1, load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads, "events without an asset keep the cache")

	inv.Emit(ctx, events.New(events.BidCreated, land1, 1))
	_, err = Fetch(ctx, c, land1, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("MARKET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MARKET_TEST_REDIS_ADDR not set")
	}
	c := NewRedis(addr, "", 0, time.Minute)
	defer c.Close()
	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Invalidate(context.Background(), land1))

	exerciseListings(t, c)
}
