package marketplace

import "fmt"

// PlaceBid escrows amount from the caller's funds against an active listing.
// Bids are independent: a new bid need not exceed earlier ones.
func (e *Engine) PlaceBid(listingID [32]byte, amount uint64, caller [20]byte) (*Bid, error) {
	var created *Bid
	err := e.mutate(func(st engineState) error {
		listing, err := loadListing(st, listingID)
		if err != nil {
			return err
		}
		if !listing.Active {
			return ErrListingInactive
		}
		if amount < listing.BasePrice {
			return fmt.Errorf("%w: %d < %d", ErrBidTooLow, amount, listing.BasePrice)
		}
		m, err := loadMarketplace(st, listing.MarketplaceID)
		if err != nil {
			return err
		}
		if err := debitAccount(st, caller, amount); err != nil {
			return err
		}
		m.deposit(amount)
		bid := &Bid{
			ID:            deriveID("bid", m.ID[:], m.BidCount),
			MarketplaceID: m.ID,
			ListingID:     listing.ID,
			CreditID:      listing.CreditID,
			Bidder:        caller,
			Amount:        amount,
			CreatedAt:     e.now(),
		}
		m.BidCount++
		if err := st.BidPut(bid); err != nil {
			return err
		}
		if err := st.MarketplacePut(m); err != nil {
			return err
		}
		e.queue(NewBidPlacedEvent(bid, m))
		created = bid.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AcceptBid settles bidID against the listing: the escrowed amount is paid to
// the listing owner, the credit moves to the bidder, the listing closes and
// the bid is marked claimed. Other bids on the listing stay withdrawable.
func (e *Engine) AcceptBid(listingID, bidID, creditID [32]byte, caller [20]byte) error {
	return e.mutate(func(st engineState) error {
		listing, err := loadListing(st, listingID)
		if err != nil {
			return err
		}
		bid, err := loadBid(st, bidID)
		if err != nil {
			return err
		}
		credit, err := loadCredit(st, creditID)
		if err != nil {
			return err
		}
		if caller != listing.Owner {
			return ErrUnauthorized
		}
		if !listing.Active {
			return ErrListingInactive
		}
		if bid.CreditID != credit.ID {
			return ErrBidMismatch
		}
		if listing.CreditID != credit.ID {
			return fmt.Errorf("%w: listing is for another credit", ErrBidMismatch)
		}
		if bid.MarketplaceID != listing.MarketplaceID {
			return fmt.Errorf("%w: bid escrowed in another marketplace", ErrBidMismatch)
		}
		if bid.Claimed {
			return ErrAlreadyClaimed
		}
		m, err := loadMarketplace(st, bid.MarketplaceID)
		if err != nil {
			return err
		}

		payout, err := m.withdraw(bid.Amount)
		if err != nil {
			return err
		}
		if err := creditAccount(st, listing.Owner, payout); err != nil {
			return err
		}
		if err := e.transferCredit(st, credit, caller, bid.Bidder); err != nil {
			return err
		}
		listing.Active = false
		bid.Claimed = true
		if err := st.ListingPut(listing); err != nil {
			return err
		}
		if err := st.BidPut(bid); err != nil {
			return err
		}
		if err := st.MarketplacePut(m); err != nil {
			return err
		}
		e.queue(NewBidAcceptedEvent(bid, m, listing.Owner))
		return nil
	})
}

// WithdrawBid refunds an unclaimed bid to its bidder and returns the refunded
// amount. The listing state is not consulted, so bids on closed or accepted
// listings can always be reclaimed.
func (e *Engine) WithdrawBid(bidID [32]byte, caller [20]byte) (uint64, error) {
	var refunded uint64
	err := e.mutate(func(st engineState) error {
		bid, err := loadBid(st, bidID)
		if err != nil {
			return err
		}
		if caller != bid.Bidder {
			return ErrUnauthorized
		}
		if bid.Claimed {
			return ErrAlreadyClaimed
		}
		m, err := loadMarketplace(st, bid.MarketplaceID)
		if err != nil {
			return err
		}
		bid.Claimed = true
		funds, err := m.withdraw(bid.Amount)
		if err != nil {
			return err
		}
		if err := creditAccount(st, bid.Bidder, funds); err != nil {
			return err
		}
		if err := st.BidPut(bid); err != nil {
			return err
		}
		if err := st.MarketplacePut(m); err != nil {
			return err
		}
		e.queue(NewBidWithdrawnEvent(bid, m))
		refunded = funds
		return nil
	})
	if err != nil {
		return 0, err
	}
	return refunded, nil
}
