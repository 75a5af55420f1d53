// Package asset is the marketplace's view of the external asset directory: who holds an asset, how custody
// moves, and the optional capabilities some collections expose.
package asset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/xtrntr/marketplace/internal/models"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownAsset      = errors.New("asset does not exist")
	ErrNotHolder         = errors.New("from address does not hold the asset")
	ErrInvalidRecipient  = errors.New("invalid recipient")
	ErrNotCreator        = errors.New("only the creator can update metadata")
)

// Collection is the capability every asset collection offers.
type Collection interface {
	OwnerOf(ctx context.Context, assetID string) (models.Address, error)
	TransferCustody(ctx context.Context, assetID string, from, to models.Address) error
}

// Fingerprinter is implemented by collections that can pin an asset's metadata by hash.
type Fingerprinter interface {
	VerifyFingerprint(ctx context.Context, assetID string, fingerprint models.Hash) (bool, error)
}

// Minter is implemented by collections that create assets on request. Burn only exists to undo a mint inside
// the same marketplace operation.
type Minter interface {
	Mint(ctx context.Context, creator, holder models.Address, metadata []byte) (string, error)
	Burn(ctx context.Context, assetID string) error
}

// URISetter is implemented by collections that publish a metadata URI.
type URISetter interface {
	SetBaseURI(uri string)
}

// Catalog resolves collection ids to collections.
type Catalog struct {
	mu          sync.RWMutex
	collections map[string]Collection
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{collections: make(map[string]Collection)}
}

// Register adds or replaces a collection under id.
func (c *Catalog) Register(id string, col Collection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collections[id] = col
}

// Collection returns the collection registered under id.
func (c *Catalog) Collection(id string) (Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	col, ok := c.collections[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, id)
	}
	return col, nil
}

// IDs returns the registered collection ids in sorted order.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.collections))
	for id := range c.collections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type plain struct {
	inner Collection
}

// Plain hides every optional capability of c. The result only answers ownership and custody calls.
func Plain(c Collection) Collection {
	return plain{inner: c}
}

func (p plain) OwnerOf(ctx context.Context, assetID string) (models.Address, error) {
	return p.inner.OwnerOf(ctx, assetID)
}

func (p plain) TransferCustody(ctx context.Context, assetID string, from, to models.Address) error {
	return p.inner.TransferCustody(ctx, assetID, from, to)
}

type unpinned struct {
	r *Registry
}

// Unpinned exposes r without fingerprint support. Minting and base URIs keep working.
func Unpinned(r *Registry) Collection {
	return unpinned{r: r}
}

func (u unpinned) OwnerOf(ctx context.Context, assetID string) (models.Address, error) {
	return u.r.OwnerOf(ctx, assetID)
}

func (u unpinned) TransferCustody(ctx context.Context, assetID string, from, to models.Address) error {
	return u.r.TransferCustody(ctx, assetID, from, to)
}

func (u unpinned) Mint(ctx context.Context, creator, holder models.Address, metadata []byte) (string, error) {
	return u.r.Mint(ctx, creator, holder, metadata)
}

func (u unpinned) Burn(ctx context.Context, assetID string) error {
	return u.r.Burn(ctx, assetID)
}

func (u unpinned) SetBaseURI(uri string) {
	u.r.SetBaseURI(uri)
}

func (u unpinned) TokenURI(ctx context.Context, assetID string) (string, error) {
	return u.r.TokenURI(ctx, assetID)
}

func (u unpinned) UpdateMetadata(ctx context.Context, caller models.Address, assetID string, metadata []byte) error {
	return u.r.UpdateMetadata(ctx, caller, assetID, metadata)
}
