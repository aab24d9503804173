package marketplace

import (
	"testing"

	"github.com/holiman/uint256"
	"pgregory.net/rapid"
)

const propertyMint = 10_000

// TestPropertyEscrowInvariant drives random operation sequences, including
// ones expected to fail, and checks after every step that escrow equals the
// unclaimed bid total, that claim and active flags are monotonic, and that no
// funds are created or destroyed.
func TestPropertyEscrowInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		engine := NewEngine()
		st := newMockState()
		engine.SetState(st)

		actors := [][20]byte{alice, bob, carol, mallory}
		for _, actor := range actors {
			if err := engine.Mint(actor, propertyMint); err != nil {
				rt.Fatalf("Mint: %v", err)
			}
		}
		market, err := engine.Initialize(alice)
		if err != nil {
			rt.Fatalf("Initialize: %v", err)
		}

		var credits [][32]byte
		for i := 0; i < 2; i++ {
			owner := actors[i]
			c, err := engine.RegisterCredit(owner, uint64(10*(i+1)), "")
			if err != nil {
				rt.Fatalf("RegisterCredit: %v", err)
			}
			credits = append(credits, c.ID)
		}

		var listings, bids [][32]byte
		claimed := make(map[[32]byte]bool)
		closed := make(map[[32]byte]bool)

		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for step := 0; step < steps; step++ {
			caller := rapid.SampledFrom(actors).Draw(rt, "caller")
			switch rapid.IntRange(0, 4).Draw(rt, "op") {
			case 0:
				credit := rapid.SampledFrom(credits).Draw(rt, "credit")
				price := rapid.Uint64Range(0, 500).Draw(rt, "price")
				if l, err := engine.ListCredit(market.ID, credit, price, caller); err == nil {
					listings = append(listings, l.ID)
				}
			case 1:
				if len(listings) == 0 {
					continue
				}
				listing := rapid.SampledFrom(listings).Draw(rt, "listing")
				amount := rapid.Uint64Range(0, 1_000).Draw(rt, "amount")
				if b, err := engine.PlaceBid(listing, amount, caller); err == nil {
					bids = append(bids, b.ID)
				}
			case 2:
				if len(listings) == 0 || len(bids) == 0 {
					continue
				}
				listing := rapid.SampledFrom(listings).Draw(rt, "listing")
				bid := rapid.SampledFrom(bids).Draw(rt, "bid")
				credit := rapid.SampledFrom(credits).Draw(rt, "credit")
				_ = engine.AcceptBid(listing, bid, credit, caller)
			case 3:
				if len(bids) == 0 {
					continue
				}
				bid := rapid.SampledFrom(bids).Draw(rt, "bid")
				_, _ = engine.WithdrawBid(bid, caller)
			case 4:
				if len(listings) == 0 {
					continue
				}
				listing := rapid.SampledFrom(listings).Draw(rt, "listing")
				_ = engine.DeactivateListing(listing, caller)
			}

			m, err := engine.Marketplace(market.ID)
			if err != nil {
				rt.Fatalf("Marketplace: %v", err)
			}
			if want := st.unclaimedTotal(market.ID); !m.Escrow.Eq(want) {
				rt.Fatalf("step %d: escrow %s != unclaimed %s", step, m.Escrow.Dec(), want.Dec())
			}

			total := m.EscrowBalance()
			for _, actor := range actors {
				bal, _ := engine.Balance(actor)
				total.Add(total, bal)
			}
			if want := uint256.NewInt(propertyMint * uint64(len(actors))); !total.Eq(want) {
				rt.Fatalf("step %d: funds not conserved, total %s want %s", step, total.Dec(), want.Dec())
			}

			for _, id := range bids {
				b, _ := engine.Bid(id)
				if claimed[id] && !b.Claimed {
					rt.Fatalf("step %d: bid %x reverted to unclaimed", step, id)
				}
				claimed[id] = b.Claimed
			}
			for _, id := range listings {
				l, _ := engine.Listing(id)
				if closed[id] && l.Active {
					rt.Fatalf("step %d: listing %x reactivated", step, id)
				}
				closed[id] = !l.Active
			}
		}
	})
}
