package models

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Address identifies a participant: a user, the marketplace, or the fee collector.
type Address string

// User represents a registered user
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Address      Address   `json:"address"`
	CreatedAt    time.Time `json:"created_at"`
}

// Key addresses one asset inside one collection. At most one order and one bid exist per key.
type Key struct {
	Collection string `json:"collection"`
	AssetID    string `json:"asset_id"`
}

func (k Key) String() string {
	return k.Collection + "/" + k.AssetID
}

// Order is a fixed-price listing of one escrowed asset.
type Order struct {
	Key
	Seller    Address         `json:"seller"`
	Price     decimal.Decimal `json:"price"`
	ExpiresAt int64           `json:"expires_at"`
	CreatedAt int64           `json:"created_at"`
}

// Expired reports whether the order can no longer be traded at now.
func (o Order) Expired(now time.Time) bool {
	return now.Unix() >= o.ExpiresAt
}

// Bid is a standing offer whose funds are escrowed by the marketplace.
type Bid struct {
	Key
	Bidder      Address         `json:"bidder"`
	Price       decimal.Decimal `json:"price"`
	ExpiresAt   int64           `json:"expires_at"`
	Fingerprint Hash            `json:"fingerprint"`
	CreatedAt   int64           `json:"created_at"`
}

// Expired reports whether the bid can no longer be accepted at now.
func (b Bid) Expired(now time.Time) bool {
	return now.Unix() >= b.ExpiresAt
}

// MaxAmount is the largest settlement amount, 2^256-1.
var MaxAmount = decimal.NewFromBigInt(
	new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)), 0)

// IsAmount reports whether d is a whole number in [0, MaxAmount].
func IsAmount(d decimal.Decimal) bool {
	return d.IsInteger() && !d.IsNegative() && d.LessThanOrEqual(MaxAmount)
}

// Hash is a 32-byte digest. The zero value means "no fingerprint".
type Hash [32]byte

// IsZero reports whether h is the null fingerprint.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// MarshalText encodes the hash as 0x-prefixed hex.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText accepts 0x-prefixed or bare hex. An empty string decodes to the zero hash.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash decodes a hex fingerprint.
func ParseHash(s string) (Hash, error) {
	var h Hash
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return h, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("invalid hash length %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}
