package marketplace

// ListCredit opens an active listing for creditID in the marketplace. Only the
// credit owner may list it. The same credit may carry several active listings
// at once.
func (e *Engine) ListCredit(marketplaceID, creditID [32]byte, basePrice uint64, caller [20]byte) (*Listing, error) {
	var created *Listing
	err := e.mutate(func(st engineState) error {
		m, err := loadMarketplace(st, marketplaceID)
		if err != nil {
			return err
		}
		credit, err := loadCredit(st, creditID)
		if err != nil {
			return err
		}
		if caller != credit.Owner {
			return ErrUnauthorized
		}
		listing := &Listing{
			ID:            deriveID("listing", m.ID[:], m.ListingCount),
			MarketplaceID: m.ID,
			CreditID:      credit.ID,
			Owner:         credit.Owner,
			BasePrice:     basePrice,
			Active:        true,
			CreatedAt:     e.now(),
		}
		m.ListingCount++
		if err := st.ListingPut(listing); err != nil {
			return err
		}
		if err := st.ListingIndexAppend(m.ID, listing.ID); err != nil {
			return err
		}
		if err := st.MarketplacePut(m); err != nil {
			return err
		}
		e.queue(NewListingCreatedEvent(listing))
		created = listing.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeactivateListing closes the listing. Only the listing owner may do so.
// Deactivating an inactive listing succeeds without effect.
func (e *Engine) DeactivateListing(listingID [32]byte, caller [20]byte) error {
	return e.mutate(func(st engineState) error {
		listing, err := loadListing(st, listingID)
		if err != nil {
			return err
		}
		if caller != listing.Owner {
			return ErrUnauthorized
		}
		if !listing.Active {
			return nil
		}
		listing.Active = false
		if err := st.ListingPut(listing); err != nil {
			return err
		}
		e.queue(NewListingDeactivatedEvent(listing))
		return nil
	})
}

// ListingIDs returns the identifiers of every listing ever created in the
// marketplace, active or not, in creation order. An empty ledger is reported
// as ErrEmptyLedger rather than an empty slice.
func (e *Engine) ListingIDs(marketplaceID [32]byte) ([][32]byte, error) {
	var ids [][32]byte
	err := e.view(func(st engineState) error {
		m, err := loadMarketplace(st, marketplaceID)
		if err != nil {
			return err
		}
		index, err := st.ListingIndex(m.ID)
		if err != nil {
			return err
		}
		if len(index) == 0 {
			return ErrEmptyLedger
		}
		ids = make([][32]byte, len(index))
		copy(ids, index)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
