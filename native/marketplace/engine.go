package marketplace

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"carbonmarket/core/events"
	"carbonmarket/core/types"
	"carbonmarket/native/common"
)

const (
	nonceScopeMarketplace = "marketplace"
	nonceScopeCredit      = "credit"
)

// engineState is the storage and execution collaborator. Snapshot and
// RevertToSnapshot bracket every operation so a failed precondition or write
// leaves no trace.
type engineState interface {
	MarketplaceGet(id [32]byte) (*Marketplace, bool, error)
	MarketplacePut(*Marketplace) error
	CreditGet(id [32]byte) (*CarbonCredit, bool, error)
	CreditPut(*CarbonCredit) error
	ListingGet(id [32]byte) (*Listing, bool, error)
	ListingPut(*Listing) error
	ListingIndex(marketplace [32]byte) ([][32]byte, error)
	ListingIndexAppend(marketplace, listing [32]byte) error
	BidGet(id [32]byte) (*Bid, bool, error)
	BidPut(*Bid) error
	NextNonce(scope string, owner [20]byte) (uint64, error)
	AccountBalance(addr [20]byte) (*uint256.Int, error)
	SetAccountBalance(addr [20]byte, amount *uint256.Int) error
	Snapshot() int
	RevertToSnapshot(id int)
}

// Engine sequences the asset registry, the listing and bid ledgers and the
// escrow account. Every exported mutation is a single atomic unit: either all
// of its writes land or none do. Calls are serialised by an internal mutex.
type Engine struct {
	mu      sync.Mutex
	state   engineState
	emitter events.Emitter
	pauses  common.PauseView
	nowFn   func() int64
	pending []*types.Event
}

// NewEngine creates a marketplace engine with a no-op emitter. Callers must
// configure a state backend via SetState before use.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses configures the pause view consulted before every mutation.
func (e *Engine) SetPauses(p common.PauseView) {
	e.mu.Lock()
	e.pauses = p
	e.mu.Unlock()
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// queue stages an event for emission once the running operation succeeds.
func (e *Engine) queue(evt *types.Event) {
	if evt != nil {
		e.pending = append(e.pending, evt)
	}
}

// mutate runs fn as one atomic unit. Events queued by fn are emitted only
// after fn returns nil, outside the engine lock. A panic in fn reverts the
// state and releases the lock before it propagates.
func (e *Engine) mutate(fn func(st engineState) error) error {
	if e == nil {
		return errNilState
	}
	pending, emitter, err := e.apply(fn)
	if err != nil {
		return err
	}
	for _, evt := range pending {
		emitter.Emit(marketEvent{evt: evt})
	}
	return nil
}

func (e *Engine) apply(fn func(st engineState) error) ([]*types.Event, events.Emitter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, nil, errNilState
	}
	if err := common.Guard(e.pauses, ModuleName); err != nil {
		return nil, nil, err
	}
	snapshot := e.state.Snapshot()
	e.pending = nil
	committed := false
	defer func() {
		if !committed {
			e.state.RevertToSnapshot(snapshot)
			e.pending = nil
		}
	}()
	if err := fn(e.state); err != nil {
		return nil, nil, err
	}
	committed = true
	pending := e.pending
	e.pending = nil
	return pending, e.emitter, nil
}

// view runs a read-only fn under the engine lock.
func (e *Engine) view(fn func(st engineState) error) error {
	if e == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return errNilState
	}
	return fn(e.state)
}

func deriveID(kind string, scope []byte, seq uint64) [32]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return ethcrypto.Keccak256Hash([]byte(kind), scope, buf[:])
}

// Initialize creates a new, empty marketplace owned by the caller.
func (e *Engine) Initialize(caller [20]byte) (*Marketplace, error) {
	var created *Marketplace
	err := e.mutate(func(st engineState) error {
		nonce, err := st.NextNonce(nonceScopeMarketplace, caller)
		if err != nil {
			return err
		}
		m := &Marketplace{
			ID:        deriveID(nonceScopeMarketplace, caller[:], nonce),
			Owner:     caller,
			Escrow:    new(uint256.Int),
			CreatedAt: e.now(),
		}
		if err := st.MarketplacePut(m); err != nil {
			return err
		}
		e.queue(NewInitializedEvent(m))
		created = m.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Mint credits an account with external funds that can later back bids. It
// never touches any escrow balance.
func (e *Engine) Mint(addr [20]byte, amount uint64) error {
	return e.mutate(func(st engineState) error {
		balance, err := st.AccountBalance(addr)
		if err != nil {
			return err
		}
		next := cloneAmount(balance)
		next.Add(next, uint256.NewInt(amount))
		if err := st.SetAccountBalance(addr, next); err != nil {
			return err
		}
		e.queue(NewFundsMintedEvent(addr, amount))
		return nil
	})
}

// Marketplace returns a snapshot of the marketplace aggregate.
func (e *Engine) Marketplace(id [32]byte) (*Marketplace, error) {
	var out *Marketplace
	err := e.view(func(st engineState) error {
		m, err := loadMarketplace(st, id)
		if err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// Credit returns a snapshot of the credit.
func (e *Engine) Credit(id [32]byte) (*CarbonCredit, error) {
	var out *CarbonCredit
	err := e.view(func(st engineState) error {
		c, err := loadCredit(st, id)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// Listing returns a snapshot of the listing.
func (e *Engine) Listing(id [32]byte) (*Listing, error) {
	var out *Listing
	err := e.view(func(st engineState) error {
		l, err := loadListing(st, id)
		if err != nil {
			return err
		}
		out = l
		return nil
	})
	return out, err
}

// Bid returns a snapshot of the bid.
func (e *Engine) Bid(id [32]byte) (*Bid, error) {
	var out *Bid
	err := e.view(func(st engineState) error {
		b, err := loadBid(st, id)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

// Balance returns the external funds held by addr.
func (e *Engine) Balance(addr [20]byte) (*uint256.Int, error) {
	var out *uint256.Int
	err := e.view(func(st engineState) error {
		balance, err := st.AccountBalance(addr)
		if err != nil {
			return err
		}
		out = cloneAmount(balance)
		return nil
	})
	return out, err
}

func loadMarketplace(st engineState, id [32]byte) (*Marketplace, error) {
	m, ok, err := st.MarketplaceGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || m == nil {
		return nil, fmt.Errorf("%w: %x", ErrMarketplaceNotFound, id)
	}
	if m.Escrow == nil {
		m.Escrow = new(uint256.Int)
	}
	return m, nil
}

func loadCredit(st engineState, id [32]byte) (*CarbonCredit, error) {
	c, ok, err := st.CreditGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: %x", ErrCreditNotFound, id)
	}
	return c, nil
}

func loadListing(st engineState, id [32]byte) (*Listing, error) {
	l, ok, err := st.ListingGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || l == nil {
		return nil, fmt.Errorf("%w: %x", ErrListingNotFound, id)
	}
	return l, nil
}

func loadBid(st engineState, id [32]byte) (*Bid, error) {
	b, ok, err := st.BidGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || b == nil {
		return nil, fmt.Errorf("%w: %x", ErrBidNotFound, id)
	}
	return b, nil
}

// debitAccount moves amount out of addr's external funds.
func debitAccount(st engineState, addr [20]byte, amount uint64) error {
	balance, err := st.AccountBalance(addr)
	if err != nil {
		return err
	}
	current := cloneAmount(balance)
	required := uint256.NewInt(amount)
	if current.Lt(required) {
		return fmt.Errorf("%w: balance %s, required %d", ErrInsufficientFunds, current.Dec(), amount)
	}
	return st.SetAccountBalance(addr, current.Sub(current, required))
}

// creditAccount pays amount into addr's external funds.
func creditAccount(st engineState, addr [20]byte, amount uint64) error {
	balance, err := st.AccountBalance(addr)
	if err != nil {
		return err
	}
	current := cloneAmount(balance)
	return st.SetAccountBalance(addr, current.Add(current, uint256.NewInt(amount)))
}
