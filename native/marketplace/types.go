package marketplace

import (
	"github.com/holiman/uint256"
)

// ModuleName is the pause-guard key for every mutating marketplace operation.
const ModuleName = "marketplace"

// CarbonCredit is a tokenized carbon credit. Quantity and Metadata are fixed
// at registration; Owner changes only when a bid against a listing of the
// credit is accepted.
type CarbonCredit struct {
	ID        [32]byte
	Owner     [20]byte
	Quantity  uint64
	Metadata  string
	CreatedAt int64
}

// Clone returns a copy of the credit that callers may mutate freely.
func (c *CarbonCredit) Clone() *CarbonCredit {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Listing offers a credit for sale at a minimum price. Owner is the credit
// owner at the time of listing and is never updated afterwards. Active only
// ever moves from true to false.
type Listing struct {
	ID            [32]byte
	MarketplaceID [32]byte
	CreditID      [32]byte
	Owner         [20]byte
	BasePrice     uint64
	Active        bool
	CreatedAt     int64
}

// Clone returns a copy of the listing.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	return &clone
}

// Bid is an escrow-backed offer against a listing. Amount is exactly the
// quantity held in escrow for the bid while Claimed is false. Claimed flips
// once, by acceptance or by withdrawal.
type Bid struct {
	ID            [32]byte
	MarketplaceID [32]byte
	ListingID     [32]byte
	CreditID      [32]byte
	Bidder        [20]byte
	Amount        uint64
	Claimed       bool
	CreatedAt     int64
}

// Clone returns a copy of the bid.
func (b *Bid) Clone() *Bid {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}

// Marketplace is the aggregate root owning the listing ledger, the bid ledger
// and the escrow account. ListingCount and BidCount are the sequence numbers
// used to derive identifiers for the next listing and bid.
type Marketplace struct {
	ID           [32]byte
	Owner        [20]byte
	Escrow       *uint256.Int
	ListingCount uint64
	BidCount     uint64
	CreatedAt    int64
}

// Clone returns a deep copy of the marketplace.
func (m *Marketplace) Clone() *Marketplace {
	if m == nil {
		return nil
	}
	clone := *m
	clone.Escrow = cloneAmount(m.Escrow)
	return &clone
}

func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}
