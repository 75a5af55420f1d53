package asset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtrntr/marketplace/internal/models"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("parcel 12,40"))
	b := Fingerprint([]byte("parcel 12,40"))
	c := Fingerprint([]byte("parcel 12,41"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.False(t, a.IsZero())
	assert.False(t, Fingerprint(nil).IsZero())
}

func TestRegistry_MintAndCustody(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	id, err := r.Mint(ctx, "alice", "alice", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, "1", id)
	id2, err := r.Mint(ctx, "alice", "bob", []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, "2", id2)

	_, err = r.Mint(ctx, "alice", "", nil)
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	tests := []struct {
		name    string
		from    models.Address
		to      models.Address
		id      string
		wantErr error
	}{
		{"WrongHolder", "bob", "carol", id, ErrNotHolder},
		{"EmptyRecipient", "alice", "", id, ErrInvalidRecipient},
		{"UnknownAsset", "alice", "bob", "77", ErrUnknownAsset},
		{"Success", "alice", "carol", id, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.TransferCustody(ctx, tt.id, tt.from, tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			holder, err := r.OwnerOf(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.to, holder)
		})
	}
}

func TestRegistry_Metadata(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	id, err := r.Mint(ctx, "alice", "market", []byte("v1"))
	require.NoError(t, err)

	ok, err := r.VerifyFingerprint(ctx, id, Fingerprint([]byte("v1")))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, r.UpdateMetadata(ctx, "market", id, []byte("v2")), ErrNotCreator)
	require.NoError(t, r.UpdateMetadata(ctx, "alice", id, []byte("v2")))

	md, err := r.Metadata(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(md))

	ok, err = r.VerifyFingerprint(ctx, id, Fingerprint([]byte("v1")))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.VerifyFingerprint(ctx, "9", Fingerprint([]byte("v1")))
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestRegistry_BurnAndURI(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	id, err := r.Mint(ctx, "alice", "alice", nil)
	require.NoError(t, err)

	r.SetBaseURI("https://meta.example/")
	uri, err := r.TokenURI(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://meta.example/1", uri)

	require.NoError(t, r.Burn(ctx, id))
	_, err = r.OwnerOf(ctx, id)
	assert.ErrorIs(t, err, ErrUnknownAsset)
	assert.ErrorIs(t, r.Burn(ctx, id), ErrUnknownAsset)

	next, err := r.Mint(ctx, "alice", "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, "2", next, "ids are never reused")
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	reg := NewRegistry()
	c.Register("zeta", reg)
	c.Register("alpha", Plain(reg))

	assert.Equal(t, []string{"alpha", "zeta"}, c.IDs())

	col, err := c.Collection("zeta")
	require.NoError(t, err)
	_, ok := col.(Fingerprinter)
	assert.True(t, ok)

	col, err = c.Collection("alpha")
	require.NoError(t, err)
	_, ok = col.(Fingerprinter)
	assert.False(t, ok, "plain collections hide fingerprints")
	_, ok = col.(Minter)
	assert.False(t, ok)

	_, err = c.Collection("missing")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestUnpinned(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	col := Unpinned(r)

	_, ok := col.(Fingerprinter)
	assert.False(t, ok)
	minter, ok := col.(Minter)
	require.True(t, ok)
	_, ok = col.(URISetter)
	assert.True(t, ok)

	id, err := minter.Mint(ctx, "alice", "alice", []byte("x"))
	require.NoError(t, err)
	holder, err := col.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.Address("alice"), holder)
}
