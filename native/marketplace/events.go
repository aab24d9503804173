package marketplace

import (
	"encoding/hex"
	"strconv"

	"carbonmarket/core/types"
	"carbonmarket/crypto"
)

const (
	EventTypeMarketplaceInitialized = "marketplace.initialized"
	EventTypeCreditRegistered       = "marketplace.credit.registered"
	EventTypeCreditTransferred      = "marketplace.credit.transferred"
	EventTypeListingCreated         = "marketplace.listing.created"
	EventTypeListingDeactivated     = "marketplace.listing.deactivated"
	EventTypeBidPlaced              = "marketplace.bid.placed"
	EventTypeBidAccepted            = "marketplace.bid.accepted"
	EventTypeBidWithdrawn           = "marketplace.bid.withdrawn"
	EventTypeFundsMinted            = "marketplace.funds.minted"
)

type marketEvent struct {
	evt *types.Event
}

func (e marketEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e marketEvent) Event() *types.Event { return e.evt }

// NewInitializedEvent returns the payload for a newly created marketplace.
func NewInitializedEvent(m *Marketplace) *types.Event {
	attrs := make(map[string]string)
	if m != nil {
		attrs["marketplace"] = hexID(m.ID)
		attrs["owner"] = formatAddress(m.Owner)
		attrs["createdAt"] = strconv.FormatInt(m.CreatedAt, 10)
	}
	return &types.Event{Type: EventTypeMarketplaceInitialized, Attributes: attrs}
}

// NewCreditRegisteredEvent returns the payload for a newly registered credit.
func NewCreditRegisteredEvent(c *CarbonCredit) *types.Event {
	attrs := make(map[string]string)
	if c != nil {
		attrs["credit"] = hexID(c.ID)
		attrs["owner"] = formatAddress(c.Owner)
		attrs["quantity"] = strconv.FormatUint(c.Quantity, 10)
		attrs["metadata"] = c.Metadata
	}
	return &types.Event{Type: EventTypeCreditRegistered, Attributes: attrs}
}

// NewCreditTransferredEvent returns the payload emitted when an accepted bid
// moves a credit to its new owner.
func NewCreditTransferredEvent(c *CarbonCredit, previous [20]byte) *types.Event {
	attrs := make(map[string]string)
	if c != nil {
		attrs["credit"] = hexID(c.ID)
		attrs["from"] = formatAddress(previous)
		attrs["to"] = formatAddress(c.Owner)
	}
	return &types.Event{Type: EventTypeCreditTransferred, Attributes: attrs}
}

// NewListingCreatedEvent returns the payload for a new listing.
func NewListingCreatedEvent(l *Listing) *types.Event {
	return newListingEvent(EventTypeListingCreated, l)
}

// NewListingDeactivatedEvent returns the payload for a listing deactivated by
// its owner.
func NewListingDeactivatedEvent(l *Listing) *types.Event {
	return newListingEvent(EventTypeListingDeactivated, l)
}

// NewBidPlacedEvent returns the payload for a newly escrowed bid.
func NewBidPlacedEvent(b *Bid, m *Marketplace) *types.Event {
	return newBidEvent(EventTypeBidPlaced, b, m, nil)
}

// NewBidAcceptedEvent returns the payload for an accepted bid. The payee is
// the listing owner who received the escrowed amount.
func NewBidAcceptedEvent(b *Bid, m *Marketplace, payee [20]byte) *types.Event {
	return newBidEvent(EventTypeBidAccepted, b, m, &payee)
}

// NewBidWithdrawnEvent returns the payload for a bid refunded to its bidder.
func NewBidWithdrawnEvent(b *Bid, m *Marketplace) *types.Event {
	return newBidEvent(EventTypeBidWithdrawn, b, m, nil)
}

// NewFundsMintedEvent returns the payload emitted when an account is credited
// by the funding faucet.
func NewFundsMintedEvent(addr [20]byte, amount uint64) *types.Event {
	return &types.Event{Type: EventTypeFundsMinted, Attributes: map[string]string{
		"account": formatAddress(addr),
		"amount":  strconv.FormatUint(amount, 10),
	}}
}

func newListingEvent(eventType string, l *Listing) *types.Event {
	attrs := make(map[string]string)
	if l != nil {
		attrs["listing"] = hexID(l.ID)
		attrs["marketplace"] = hexID(l.MarketplaceID)
		attrs["credit"] = hexID(l.CreditID)
		attrs["owner"] = formatAddress(l.Owner)
		attrs["basePrice"] = strconv.FormatUint(l.BasePrice, 10)
		attrs["active"] = strconv.FormatBool(l.Active)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func newBidEvent(eventType string, b *Bid, m *Marketplace, payee *[20]byte) *types.Event {
	attrs := make(map[string]string)
	if b == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["bid"] = hexID(b.ID)
	attrs["marketplace"] = hexID(b.MarketplaceID)
	attrs["listing"] = hexID(b.ListingID)
	attrs["credit"] = hexID(b.CreditID)
	attrs["bidder"] = formatAddress(b.Bidder)
	attrs["amount"] = strconv.FormatUint(b.Amount, 10)
	attrs["claimed"] = strconv.FormatBool(b.Claimed)
	if m != nil {
		attrs["escrow"] = m.EscrowBalance().Dec()
	}
	if payee != nil {
		attrs["payee"] = formatAddress(*payee)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func hexID(id [32]byte) string {
	return hex.EncodeToString(id[:])
}

func formatAddress(addr [20]byte) string {
	return crypto.FromRaw(addr).String()
}
