package state

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"carbonmarket/native/marketplace"
)

type storedMarketplace struct {
	ID           [32]byte
	Owner        [20]byte
	Escrow       *big.Int
	ListingCount uint64
	BidCount     uint64
	CreatedAt    *big.Int
}

type storedCredit struct {
	ID        [32]byte
	Owner     [20]byte
	Quantity  uint64
	Metadata  string
	CreatedAt *big.Int
}

type storedListing struct {
	ID            [32]byte
	MarketplaceID [32]byte
	CreditID      [32]byte
	Owner         [20]byte
	BasePrice     uint64
	Active        bool
	CreatedAt     *big.Int
}

type storedBid struct {
	ID            [32]byte
	MarketplaceID [32]byte
	ListingID     [32]byte
	CreditID      [32]byte
	Bidder        [20]byte
	Amount        uint64
	Claimed       bool
	CreatedAt     *big.Int
}

func toBig(v *uint256.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v.ToBig()
}

func fromBig(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("state: negative amount")
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("state: amount overflows 256 bits")
	}
	return out, nil
}

func timestamp(v *big.Int) int64 {
	if v == nil {
		return 0
	}
	return v.Int64()
}

// MarketplacePut stores the marketplace aggregate root.
func (m *Manager) MarketplacePut(mkt *marketplace.Marketplace) error {
	if mkt == nil {
		return fmt.Errorf("marketplace: nil value")
	}
	record := &storedMarketplace{
		ID:           mkt.ID,
		Owner:        mkt.Owner,
		Escrow:       toBig(mkt.Escrow),
		ListingCount: mkt.ListingCount,
		BidCount:     mkt.BidCount,
		CreatedAt:    big.NewInt(mkt.CreatedAt),
	}
	return m.writeRecord(prefixedKey(marketplaceRecordPrefix, mkt.ID[:]), record)
}

// MarketplaceGet loads the marketplace aggregate root.
func (m *Manager) MarketplaceGet(id [32]byte) (*marketplace.Marketplace, bool, error) {
	stored := new(storedMarketplace)
	ok, err := m.loadRecord(prefixedKey(marketplaceRecordPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	escrow, err := fromBig(stored.Escrow)
	if err != nil {
		return nil, false, err
	}
	return &marketplace.Marketplace{
		ID:           stored.ID,
		Owner:        stored.Owner,
		Escrow:       escrow,
		ListingCount: stored.ListingCount,
		BidCount:     stored.BidCount,
		CreatedAt:    timestamp(stored.CreatedAt),
	}, true, nil
}

// CreditPut stores a carbon credit record.
func (m *Manager) CreditPut(c *marketplace.CarbonCredit) error {
	if c == nil {
		return fmt.Errorf("credit: nil value")
	}
	record := &storedCredit{
		ID:        c.ID,
		Owner:     c.Owner,
		Quantity:  c.Quantity,
		Metadata:  c.Metadata,
		CreatedAt: big.NewInt(c.CreatedAt),
	}
	return m.writeRecord(prefixedKey(creditRecordPrefix, c.ID[:]), record)
}

// CreditGet loads a carbon credit record.
func (m *Manager) CreditGet(id [32]byte) (*marketplace.CarbonCredit, bool, error) {
	stored := new(storedCredit)
	ok, err := m.loadRecord(prefixedKey(creditRecordPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &marketplace.CarbonCredit{
		ID:        stored.ID,
		Owner:     stored.Owner,
		Quantity:  stored.Quantity,
		Metadata:  stored.Metadata,
		CreatedAt: timestamp(stored.CreatedAt),
	}, true, nil
}

// ListingPut stores a listing record.
func (m *Manager) ListingPut(l *marketplace.Listing) error {
	if l == nil {
		return fmt.Errorf("listing: nil value")
	}
	record := &storedListing{
		ID:            l.ID,
		MarketplaceID: l.MarketplaceID,
		CreditID:      l.CreditID,
		Owner:         l.Owner,
		BasePrice:     l.BasePrice,
		Active:        l.Active,
		CreatedAt:     big.NewInt(l.CreatedAt),
	}
	return m.writeRecord(prefixedKey(listingRecordPrefix, l.ID[:]), record)
}

// ListingGet loads a listing record.
func (m *Manager) ListingGet(id [32]byte) (*marketplace.Listing, bool, error) {
	stored := new(storedListing)
	ok, err := m.loadRecord(prefixedKey(listingRecordPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &marketplace.Listing{
		ID:            stored.ID,
		MarketplaceID: stored.MarketplaceID,
		CreditID:      stored.CreditID,
		Owner:         stored.Owner,
		BasePrice:     stored.BasePrice,
		Active:        stored.Active,
		CreatedAt:     timestamp(stored.CreatedAt),
	}, true, nil
}

// ListingIndex returns the listing identifiers recorded for the marketplace
// in insertion order.
func (m *Manager) ListingIndex(market [32]byte) ([][32]byte, error) {
	var ids [][32]byte
	ok, err := m.loadRecord(prefixedKey(marketplaceIndexPrefix, market[:]), &ids)
	if err != nil {
		return nil, err
	}
	if !ok {
		return [][32]byte{}, nil
	}
	return ids, nil
}

// ListingIndexAppend records a new listing identifier for the marketplace.
func (m *Manager) ListingIndexAppend(market, listing [32]byte) error {
	ids, err := m.ListingIndex(market)
	if err != nil {
		return err
	}
	ids = append(ids, listing)
	return m.writeRecord(prefixedKey(marketplaceIndexPrefix, market[:]), ids)
}

// BidPut stores a bid record.
func (m *Manager) BidPut(b *marketplace.Bid) error {
	if b == nil {
		return fmt.Errorf("bid: nil value")
	}
	record := &storedBid{
		ID:            b.ID,
		MarketplaceID: b.MarketplaceID,
		ListingID:     b.ListingID,
		CreditID:      b.CreditID,
		Bidder:        b.Bidder,
		Amount:        b.Amount,
		Claimed:       b.Claimed,
		CreatedAt:     big.NewInt(b.CreatedAt),
	}
	return m.writeRecord(prefixedKey(bidRecordPrefix, b.ID[:]), record)
}

// BidGet loads a bid record.
func (m *Manager) BidGet(id [32]byte) (*marketplace.Bid, bool, error) {
	stored := new(storedBid)
	ok, err := m.loadRecord(prefixedKey(bidRecordPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &marketplace.Bid{
		ID:            stored.ID,
		MarketplaceID: stored.MarketplaceID,
		ListingID:     stored.ListingID,
		CreditID:      stored.CreditID,
		Bidder:        stored.Bidder,
		Amount:        stored.Amount,
		Claimed:       stored.Claimed,
		CreatedAt:     timestamp(stored.CreatedAt),
	}, true, nil
}

func nonceKey(scope string, owner [20]byte) []byte {
	buf := make([]byte, 0, len(noncePrefix)+len(scope)+1+len(owner))
	buf = append(buf, noncePrefix...)
	buf = append(buf, scope...)
	buf = append(buf, ':')
	buf = append(buf, owner[:]...)
	return buf
}

// NextNonce returns the current nonce for (scope, owner) and advances it.
func (m *Manager) NextNonce(scope string, owner [20]byte) (uint64, error) {
	key := nonceKey(scope, owner)
	var current uint64
	if _, err := m.KVGet(key, &current); err != nil {
		return 0, err
	}
	if current == ^uint64(0) {
		return 0, fmt.Errorf("state: nonce overflow for %s", scope)
	}
	if err := m.KVPut(key, current+1); err != nil {
		return 0, err
	}
	return current, nil
}

func accountKey(addr [20]byte) []byte {
	return prefixedKey(accountBalancePrefix, addr[:])
}

// AccountBalance returns the external funds held by addr.
func (m *Manager) AccountBalance(addr [20]byte) (*uint256.Int, error) {
	amount := new(big.Int)
	ok, err := m.loadRecord(accountKey(addr), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return fromBig(amount)
}

// SetAccountBalance overwrites the external funds held by addr.
func (m *Manager) SetAccountBalance(addr [20]byte, amount *uint256.Int) error {
	return m.writeRecord(accountKey(addr), toBig(amount))
}
