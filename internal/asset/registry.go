package asset

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/xtrntr/marketplace/internal/models"
)

const signedMessagePrefix = "\x19Ethereum Signed Message:\n32"

// Fingerprint hashes metadata with Keccak-256 and then hashes the digest again under the signed-message prefix,
// so the result can never be mistaken for a raw signable digest.
func Fingerprint(metadata []byte) models.Hash {
	inner := sha3.NewLegacyKeccak256()
	inner.Write(metadata)
	digest := inner.Sum(nil)

	outer := sha3.NewLegacyKeccak256()
	outer.Write([]byte(signedMessagePrefix))
	outer.Write(digest)

	var h models.Hash
	copy(h[:], outer.Sum(nil))
	return h
}

type record struct {
	holder   models.Address
	creator  models.Address
	metadata []byte
}

// Registry is an in-memory collection that supports minting, metadata and fingerprints.
type Registry struct {
	mu      sync.RWMutex
	assets  map[string]*record
	nextID  uint64
	baseURI string
}

var (
	_ Collection    = (*Registry)(nil)
	_ Fingerprinter = (*Registry)(nil)
	_ Minter        = (*Registry)(nil)
	_ URISetter     = (*Registry)(nil)
)

// NewRegistry creates an empty registry. Asset ids are assigned sequentially from 1.
func NewRegistry() *Registry {
	return &Registry{assets: make(map[string]*record)}
}

// Mint creates a new asset held by holder. creator is the only address allowed to update its metadata.
func (r *Registry) Mint(ctx context.Context, creator, holder models.Address, metadata []byte) (string, error) {
	if holder == "" {
		return "", ErrInvalidRecipient
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := strconv.FormatUint(r.nextID, 10)
	r.assets[id] = &record{
		holder:   holder,
		creator:  creator,
		metadata: append([]byte(nil), metadata...),
	}
	return id, nil
}

// Burn removes an asset. Only used to undo a mint.
func (r *Registry) Burn(ctx context.Context, assetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[assetID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	delete(r.assets, assetID)
	return nil
}

func (r *Registry) OwnerOf(ctx context.Context, assetID string) (models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.assets[assetID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	return rec.holder, nil
}

func (r *Registry) TransferCustody(ctx context.Context, assetID string, from, to models.Address) error {
	if to == "" {
		return ErrInvalidRecipient
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.assets[assetID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	if rec.holder != from {
		return fmt.Errorf("%w: %s is held by %s", ErrNotHolder, assetID, rec.holder)
	}
	rec.holder = to
	return nil
}

// UpdateMetadata replaces the metadata of an asset. Metadata can change while the asset is escrowed, which
// is what fingerprints protect buyers against.
func (r *Registry) UpdateMetadata(ctx context.Context, caller models.Address, assetID string, metadata []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.assets[assetID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	if rec.creator != caller {
		return ErrNotCreator
	}
	rec.metadata = append([]byte(nil), metadata...)
	return nil
}

// Metadata returns a copy of the asset's metadata.
func (r *Registry) Metadata(ctx context.Context, assetID string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.assets[assetID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	return append([]byte(nil), rec.metadata...), nil
}

func (r *Registry) VerifyFingerprint(ctx context.Context, assetID string, fingerprint models.Hash) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.assets[assetID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	return Fingerprint(rec.metadata) == fingerprint, nil
}

func (r *Registry) SetBaseURI(uri string) {
	r.mu.Lock()
	r.baseURI = uri
	r.mu.Unlock()
}

// TokenURI joins the base URI with the asset id.
func (r *Registry) TokenURI(ctx context.Context, assetID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.assets[assetID]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	return r.baseURI + assetID, nil
}
