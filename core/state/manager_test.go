package state

import (
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"carbonmarket/native/marketplace"
	"carbonmarket/storage"
)

func fill32(b byte) [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func fill20(b byte) [20]byte {
	var out [20]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func TestManagerRevertToSnapshot(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	require.NoError(t, mgr.KVPut([]byte("alpha"), uint64(1)))
	snap := mgr.Snapshot()
	require.NoError(t, mgr.KVPut([]byte("alpha"), uint64(2)))
	require.NoError(t, mgr.KVPut([]byte("beta"), uint64(3)))

	mgr.RevertToSnapshot(snap)

	var alpha uint64
	ok, err := mgr.KVGet([]byte("alpha"), &alpha)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), alpha)

	ok, err = mgr.KVGet([]byte("beta"), nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, mgr.Pending())
}

func TestManagerCommitFlushesBatch(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)

	require.NoError(t, mgr.KVPut([]byte("alpha"), uint64(7)))
	require.NoError(t, mgr.KVPut([]byte("beta"), "carbon"))
	require.Equal(t, 0, db.Len())

	require.NoError(t, mgr.Commit())
	require.Equal(t, 0, mgr.Pending())
	require.Equal(t, 2, db.Len())

	fresh := NewManager(db)
	var beta string
	ok, err := fresh.KVGet([]byte("beta"), &beta)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "carbon", beta)
}

func TestManagerDiscard(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)
	require.NoError(t, mgr.KVPut([]byte("alpha"), uint64(7)))
	mgr.Discard()
	require.NoError(t, mgr.Commit())
	require.Equal(t, 0, db.Len())
}

func TestManagerRejectsEmptyKey(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	require.Error(t, mgr.KVPut(nil, uint64(1)))
	_, err := mgr.KVGet(nil, nil)
	require.Error(t, err)
}

func TestMarketplaceRecordsRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	mkt := &marketplace.Marketplace{
		ID:           fill32(0x01),
		Owner:        fill20(0xA1),
		Escrow:       uint256.NewInt(250),
		ListingCount: 3,
		BidCount:     5,
		CreatedAt:    1_700_000_000,
	}
	credit := &marketplace.CarbonCredit{
		ID:        fill32(0x02),
		Owner:     fill20(0xA1),
		Quantity:  100,
		Metadata:  "verra:VCS-1234",
		CreatedAt: 1_700_000_001,
	}
	listing := &marketplace.Listing{
		ID:            fill32(0x03),
		MarketplaceID: mkt.ID,
		CreditID:      credit.ID,
		Owner:         credit.Owner,
		BasePrice:     50,
		Active:        true,
		CreatedAt:     1_700_000_002,
	}
	bid := &marketplace.Bid{
		ID:            fill32(0x04),
		MarketplaceID: mkt.ID,
		ListingID:     listing.ID,
		CreditID:      credit.ID,
		Bidder:        fill20(0xB0),
		Amount:        60,
		CreatedAt:     1_700_000_003,
	}

	require.NoError(t, mgr.MarketplacePut(mkt))
	require.NoError(t, mgr.CreditPut(credit))
	require.NoError(t, mgr.ListingPut(listing))
	require.NoError(t, mgr.BidPut(bid))

	gotMkt, ok, err := mgr.MarketplaceGet(mkt.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, mkt, gotMkt)

	gotCredit, ok, err := mgr.CreditGet(credit.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, credit, gotCredit)

	gotListing, ok, err := mgr.ListingGet(listing.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, listing, gotListing)

	gotBid, ok, err := mgr.BidGet(bid.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bid, gotBid)

	_, ok, err = mgr.BidGet(fill32(0xFF))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListingIndexPreservesOrder(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	market := fill32(0x01)

	ids, err := mgr.ListingIndex(market)
	require.NoError(t, err)
	require.Empty(t, ids)

	for _, b := range []byte{0x30, 0x10, 0x20} {
		require.NoError(t, mgr.ListingIndexAppend(market, fill32(b)))
	}
	ids, err = mgr.ListingIndex(market)
	require.NoError(t, err)
	require.Equal(t, [][32]byte{fill32(0x30), fill32(0x10), fill32(0x20)}, ids)

	other, err := mgr.ListingIndex(fill32(0x02))
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestNextNonceIsScopedPerOwner(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	alice := fill20(0xA1)
	bob := fill20(0xB0)

	for want := uint64(0); want < 3; want++ {
		got, err := mgr.NextNonce("credit", alice)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	var stored uint64
	ok, err := mgr.KVGet(nonceKey("credit", alice), &stored)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(3), stored)

	got, err := mgr.NextNonce("marketplace", alice)
	require.NoError(t, err)
	require.Zero(t, got)
	got, err = mgr.NextNonce("credit", bob)
	require.NoError(t, err)
	require.Zero(t, got)
}

func TestAccountBalances(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	addr := fill20(0xC0)

	balance, err := mgr.AccountBalance(addr)
	require.NoError(t, err)
	require.True(t, balance.IsZero())

	require.NoError(t, mgr.SetAccountBalance(addr, uint256.NewInt(1_000)))
	balance, err = mgr.AccountBalance(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), balance.Uint64())
}

func TestManagerReopensFromLevelDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	db, err := storage.NewLevelDB(path)
	require.NoError(t, err)

	mgr := NewManager(db)
	require.NoError(t, mgr.SetAccountBalance(fill20(0xA1), uint256.NewInt(42)))
	require.NoError(t, mgr.ListingIndexAppend(fill32(0x01), fill32(0x09)))
	require.NoError(t, mgr.Commit())
	db.Close()

	reopened, err := storage.NewLevelDB(path)
	require.NoError(t, err)
	defer reopened.Close()

	mgr = NewManager(reopened)
	balance, err := mgr.AccountBalance(fill20(0xA1))
	require.NoError(t, err)
	require.Equal(t, uint64(42), balance.Uint64())

	ids, err := mgr.ListingIndex(fill32(0x01))
	require.NoError(t, err)
	require.Equal(t, [][32]byte{fill32(0x09)}, ids)
}
