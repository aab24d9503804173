package marketplace

import "errors"

var (
	// ErrUnauthorized is returned when the caller fails an ownership check.
	ErrUnauthorized = errors.New("marketplace: unauthorized")
	// ErrListingInactive is returned when an operation needs an active listing.
	ErrListingInactive = errors.New("marketplace: listing inactive")
	// ErrBidTooLow is returned when a bid is below the listing base price.
	ErrBidTooLow = errors.New("marketplace: bid below base price")
	// ErrBidMismatch is returned when the bid does not reference the supplied
	// credit.
	ErrBidMismatch = errors.New("marketplace: bid does not match credit")
	// ErrAlreadyClaimed is returned on a second claim of the same bid.
	ErrAlreadyClaimed = errors.New("marketplace: bid already claimed")
	// ErrInsufficientEscrow signals the escrow balance cannot cover a payout.
	// Observing it means the escrow invariant has been broken.
	ErrInsufficientEscrow = errors.New("marketplace: insufficient escrow")
	// ErrEmptyLedger is returned when enumerating a marketplace with no
	// listings.
	ErrEmptyLedger = errors.New("marketplace: listing ledger empty")

	ErrMarketplaceNotFound = errors.New("marketplace: marketplace not found")
	ErrCreditNotFound      = errors.New("marketplace: credit not found")
	ErrListingNotFound     = errors.New("marketplace: listing not found")
	ErrBidNotFound         = errors.New("marketplace: bid not found")
	ErrInsufficientFunds   = errors.New("marketplace: insufficient funds")

	errNilState = errors.New("marketplace engine: state not configured")
)
