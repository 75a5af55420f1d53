package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAmount(t *testing.T) {
	tests := []struct {
		name  string
		value decimal.Decimal
		want  bool
	}{
		{"Zero", decimal.Zero, true},
		{"One", decimal.NewFromInt(1), true},
		{"Max", MaxAmount, true},
		{"AboveMax", MaxAmount.Add(decimal.NewFromInt(1)), false},
		{"Negative", decimal.NewFromInt(-1), false},
		{"Fraction", decimal.RequireFromString("2.5"), false},
		{"WholeWithExponent", decimal.RequireFromString("2.000"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAmount(tt.value); got != tt.want {
				t.Errorf("IsAmount(%s) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestMaxAmount(t *testing.T) {
	assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", MaxAmount.String())
}

func TestExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	o := Order{ExpiresAt: now.Unix()}
	assert.True(t, o.Expired(now))
	assert.False(t, o.Expired(now.Add(-time.Second)))

	b := Bid{ExpiresAt: now.Unix() + 1}
	assert.False(t, b.Expired(now))
	assert.True(t, b.Expired(now.Add(time.Second)))
}

func TestParseHash(t *testing.T) {
	full := "0x" + strings.Repeat("ab", 32)

	h, err := ParseHash(full)
	require.NoError(t, err)
	assert.Equal(t, full, h.String())
	assert.False(t, h.IsZero())

	bare, err := ParseHash(strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Equal(t, h, bare)

	zero, err := ParseHash("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseHash("0x1234")
	assert.Error(t, err)
	_, err = ParseHash("0xzz")
	assert.Error(t, err)
}

func TestHashJSON(t *testing.T) {
	var bid Bid
	raw := `{"fingerprint":"0x` + strings.Repeat("01", 32) + `","price":"5"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &bid))
	assert.Equal(t, byte(1), bid.Fingerprint[31])
	assert.Equal(t, "5", bid.Price.String())

	out, err := json.Marshal(Key{Collection: "land", AssetID: "7"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"collection":"land","asset_id":"7"}`, string(out))
	assert.Equal(t, "land/7", Key{Collection: "land", AssetID: "7"}.String())
}
