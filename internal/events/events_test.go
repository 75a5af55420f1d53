package events

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtrntr/marketplace/internal/models"
)

func TestNew(t *testing.T) {
	key := models.Key{Collection: "land", AssetID: "3"}
	a := New(OrderCreated, key, 42)
	b := New(OrderCreated, key, 42)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, key, a.Key())
	assert.Equal(t, int64(42), a.At)
}

func TestRecorderAndMulti(t *testing.T) {
	ctx := context.Background()
	first, second := &Recorder{}, &Recorder{}
	fan := Multi{first, Discard{}, second}

	fan.Emit(ctx, New(BidCreated, models.Key{}, 1))
	fan.Emit(ctx, New(BidCancelled, models.Key{}, 2))

	assert.Equal(t, []Type{BidCreated, BidCancelled}, first.Types())
	assert.Equal(t, first.Types(), second.Types())

	first.Reset()
	assert.Empty(t, first.Events())
	assert.Len(t, second.Events(), 2)
}

func TestHub(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	ev := New(OrderSuccessful, models.Key{Collection: "land", AssetID: "9"}, 100)
	ev.Buyer = "0xbuyer"
	ev.Price = decimal.NewFromInt(12)
	hub.Emit(context.Background(), ev)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, OrderSuccessful, got.Type)
	assert.Equal(t, models.Address("0xbuyer"), got.Buyer)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(12)))

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_SlowClientDoesNotBlockEmit(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	// The peer never reads; Emit must still return promptly.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10*sendQueue; i++ {
			hub.Emit(context.Background(), New(OrderCreated, models.Key{Collection: "land", AssetID: "1"}, int64(i)))
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit blocked on a client that does not read")
	}
}

func TestRecorderListEvents(t *testing.T) {
	ctx := context.Background()
	land1 := models.Key{Collection: "land", AssetID: "1"}
	land2 := models.Key{Collection: "land", AssetID: "2"}
	r := &Recorder{}
	r.Emit(ctx, New(OrderCreated, land1, 1))
	r.Emit(ctx, New(OrderCreated, land2, 2))
	r.Emit(ctx, New(BidCreated, land1, 3))
	r.Emit(ctx, New(BidCancelled, land1, 4))

	all, err := r.ListEvents(ctx, land1, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, BidCancelled, all[2].Type)

	first, err := r.ListEvents(ctx, land1, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, OrderCreated, first[0].Type)
}
