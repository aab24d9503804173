package marketplace

import (
	"bytes"
	"fmt"

	"github.com/holiman/uint256"
)

type mockSnapshot struct {
	markets  map[[32]byte]*Marketplace
	credits  map[[32]byte]*CarbonCredit
	listings map[[32]byte]*Listing
	bids     map[[32]byte]*Bid
	index    map[[32]byte][][32]byte
	nonces   map[string]uint64
	accounts map[[20]byte]*uint256.Int
}

type mockState struct {
	markets  map[[32]byte]*Marketplace
	credits  map[[32]byte]*CarbonCredit
	listings map[[32]byte]*Listing
	bids     map[[32]byte]*Bid
	index    map[[32]byte][][32]byte
	nonces   map[string]uint64
	accounts map[[20]byte]*uint256.Int

	snapshots []mockSnapshot

	// failCreditPut makes every CreditPut fail, simulating a storage error
	// half way through an operation.
	failCreditPut error
	// panicCreditPut makes CreditPut panic instead of returning.
	panicCreditPut bool
}

func newMockState() *mockState {
	return &mockState{
		markets:  make(map[[32]byte]*Marketplace),
		credits:  make(map[[32]byte]*CarbonCredit),
		listings: make(map[[32]byte]*Listing),
		bids:     make(map[[32]byte]*Bid),
		index:    make(map[[32]byte][][32]byte),
		nonces:   make(map[string]uint64),
		accounts: make(map[[20]byte]*uint256.Int),
	}
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func (m *mockState) MarketplaceGet(id [32]byte) (*Marketplace, bool, error) {
	v, ok := m.markets[id]
	if !ok {
		return nil, false, nil
	}
	return v.Clone(), true, nil
}

func (m *mockState) MarketplacePut(v *Marketplace) error {
	if v == nil {
		return fmt.Errorf("nil marketplace")
	}
	m.markets[v.ID] = v.Clone()
	return nil
}

func (m *mockState) CreditGet(id [32]byte) (*CarbonCredit, bool, error) {
	v, ok := m.credits[id]
	if !ok {
		return nil, false, nil
	}
	return v.Clone(), true, nil
}

func (m *mockState) CreditPut(v *CarbonCredit) error {
	if m.panicCreditPut {
		panic("credit store corrupted")
	}
	if m.failCreditPut != nil {
		return m.failCreditPut
	}
	if v == nil {
		return fmt.Errorf("nil credit")
	}
	m.credits[v.ID] = v.Clone()
	return nil
}

func (m *mockState) ListingGet(id [32]byte) (*Listing, bool, error) {
	v, ok := m.listings[id]
	if !ok {
		return nil, false, nil
	}
	return v.Clone(), true, nil
}

func (m *mockState) ListingPut(v *Listing) error {
	if v == nil {
		return fmt.Errorf("nil listing")
	}
	m.listings[v.ID] = v.Clone()
	return nil
}

func (m *mockState) ListingIndex(market [32]byte) ([][32]byte, error) {
	return append([][32]byte(nil), m.index[market]...), nil
}

func (m *mockState) ListingIndexAppend(market, listing [32]byte) error {
	m.index[market] = append(append([][32]byte(nil), m.index[market]...), listing)
	return nil
}

func (m *mockState) BidGet(id [32]byte) (*Bid, bool, error) {
	v, ok := m.bids[id]
	if !ok {
		return nil, false, nil
	}
	return v.Clone(), true, nil
}

func (m *mockState) BidPut(v *Bid) error {
	if v == nil {
		return fmt.Errorf("nil bid")
	}
	m.bids[v.ID] = v.Clone()
	return nil
}

func (m *mockState) NextNonce(scope string, owner [20]byte) (uint64, error) {
	key := fmt.Sprintf("%s/%x", scope, owner)
	n := m.nonces[key]
	m.nonces[key] = n + 1
	return n, nil
}

func (m *mockState) AccountBalance(addr [20]byte) (*uint256.Int, error) {
	if v, ok := m.accounts[addr]; ok {
		return new(uint256.Int).Set(v), nil
	}
	return new(uint256.Int), nil
}

func (m *mockState) SetAccountBalance(addr [20]byte, amount *uint256.Int) error {
	if amount == nil {
		amount = new(uint256.Int)
	}
	m.accounts[addr] = new(uint256.Int).Set(amount)
	return nil
}

func (m *mockState) capture() mockSnapshot {
	snap := mockSnapshot{
		markets:  make(map[[32]byte]*Marketplace, len(m.markets)),
		credits:  make(map[[32]byte]*CarbonCredit, len(m.credits)),
		listings: make(map[[32]byte]*Listing, len(m.listings)),
		bids:     make(map[[32]byte]*Bid, len(m.bids)),
		index:    make(map[[32]byte][][32]byte, len(m.index)),
		nonces:   make(map[string]uint64, len(m.nonces)),
		accounts: make(map[[20]byte]*uint256.Int, len(m.accounts)),
	}
	for k, v := range m.markets {
		snap.markets[k] = v.Clone()
	}
	for k, v := range m.credits {
		snap.credits[k] = v.Clone()
	}
	for k, v := range m.listings {
		snap.listings[k] = v.Clone()
	}
	for k, v := range m.bids {
		snap.bids[k] = v.Clone()
	}
	for k, v := range m.index {
		snap.index[k] = append([][32]byte(nil), v...)
	}
	for k, v := range m.nonces {
		snap.nonces[k] = v
	}
	for k, v := range m.accounts {
		snap.accounts[k] = new(uint256.Int).Set(v)
	}
	return snap
}

func (m *mockState) Snapshot() int {
	m.snapshots = append(m.snapshots, m.capture())
	return len(m.snapshots) - 1
}

func (m *mockState) RevertToSnapshot(id int) {
	if id < 0 || id >= len(m.snapshots) {
		return
	}
	snap := m.snapshots[id]
	m.markets = snap.markets
	m.credits = snap.credits
	m.listings = snap.listings
	m.bids = snap.bids
	m.index = snap.index
	m.nonces = snap.nonces
	m.accounts = snap.accounts
	m.snapshots = m.snapshots[:id]
}

// unclaimedTotal sums the amount of every unclaimed bid escrowed in market.
func (m *mockState) unclaimedTotal(market [32]byte) *uint256.Int {
	total := new(uint256.Int)
	for _, bid := range m.bids {
		if bid.MarketplaceID == market && !bid.Claimed {
			total.Add(total, uint256.NewInt(bid.Amount))
		}
	}
	return total
}
