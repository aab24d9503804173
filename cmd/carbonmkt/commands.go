package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"carbonmarket/crypto"
	"carbonmarket/native/marketplace"
	"carbonmarket/observability/logging"
)

type keyResult struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
}

type marketplaceResult struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	Escrow       string `json:"escrow"`
	ListingCount uint64 `json:"listingCount"`
	BidCount     uint64 `json:"bidCount"`
	CreatedAt    int64  `json:"createdAt"`
}

type creditResult struct {
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	Quantity  uint64 `json:"quantity"`
	Metadata  string `json:"metadata"`
	CreatedAt int64  `json:"createdAt"`
}

type listingResult struct {
	ID            string `json:"id"`
	MarketplaceID string `json:"marketplace"`
	CreditID      string `json:"credit"`
	Owner         string `json:"owner"`
	BasePrice     uint64 `json:"basePrice"`
	Active        bool   `json:"active"`
	CreatedAt     int64  `json:"createdAt"`
}

type bidResult struct {
	ID            string `json:"id"`
	MarketplaceID string `json:"marketplace"`
	ListingID     string `json:"listing"`
	CreditID      string `json:"credit"`
	Bidder        string `json:"bidder"`
	Amount        uint64 `json:"amount"`
	Claimed       bool   `json:"claimed"`
	CreatedAt     int64  `json:"createdAt"`
}

type balanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type withdrawResult struct {
	Bid      string `json:"bid"`
	Refunded uint64 `json:"refunded"`
}

type statusResult struct {
	Status string `json:"status"`
}

func runKeygen(s *session, args []string) (interface{}, error) {
	fs := newFlagSet("keygen")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	addr := key.PubKey().Address()
	encoded := hex.EncodeToString(key.Bytes())
	s.logger.Info("generated key", "address", addr.String(), logging.MaskField("private_key", encoded))
	return keyResult{Address: addr.String(), PrivateKey: encoded}, nil
}

func runInit(s *session, args []string) (interface{}, error) {
	fs := newFlagSet("init")
	caller := fs.String("caller", "", "marketplace owner address")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	owner, err := requireAddress("caller", *caller)
	if err != nil {
		return nil, err
	}
	m, err := s.engine.Initialize(owner)
	if err != nil {
		return nil, err
	}
	return toMarketplaceResult(m), nil
}

func runMint(s *session, args []string) (interface{}, error) {
	fs := newFlagSet("mint")
	to := fs.String("to", "", "account to fund")
	amount := fs.Uint64("amount", 0, "amount of funds")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	addr, err := requireAddress("to", *to)
	if err != nil {
		return nil, err
	}
	if *amount == 0 {
		return nil, fmt.Errorf("--amount must be positive")
	}
	if err := s.engine.Mint(addr, *amount); err != nil {
		return nil, err
	}
	return balanceOf(s, addr)
}

func runRegister(s *session, args []string) (interface{}, error) {
	fs := newFlagSet("register")
	owner := fs.String("owner", "", "credit owner address")
	quantity := fs.Uint64("quantity", 0, "tonnes of CO2e represented by the credit")
	metadata := fs.String("metadata", "", "free-form credit metadata")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	addr, err := requireAddress("owner", *owner)
	if err != nil {
		return nil, err
	}
	credit, err := s.engine.RegisterCredit(addr, *quantity, *metadata)
	if err != nil {
		return nil, err
	}
	return toCreditResult(credit), nil
}

func runList(s *session, args []string) (interface{}, error) {
	fs := newFlagSet("list")
	market := fs.String("market", "", "marketplace id")
	credit := fs.String("credit", "", "credit id")
	price := fs.Uint64("price", 0, "minimum acceptable bid")
	caller := fs.String("caller", "", "credit owner address")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	marketID, err := requireID("market", *market)
	if err != nil {
		return nil, err
	}
	creditID, err := requireID("credit", *credit)
	if err != nil {
		return nil, err
	}
	addr, err := requireAddress("caller", *caller)
	if err != nil {
		return nil, err
	}
	listing, err := s.engine.ListCredit(marketID, creditID, *price, addr)
	if err != nil {
		return nil, err
	}
	return toListingResult(listing), nil
}

func runDeactivate(s *session, args []string) (interface{}, error) {
	fs := newFlagSet("deactivate")
	listing := fs.String("listing", "", "listing id")
	caller := fs.String("caller", "", "listing owner address")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	listingID, err := requireID("listing", *listing)
	if err != nil {
		return nil, err
	}
	addr, err := requireAddress("caller", *caller)
	if err != nil {
		return nil, err
	}
	if err := s.engine.DeactivateListing(listingID, addr); err != nil {
		return nil, err
	}
	l, err := s.engine.Listing(listingID)
	if err != nil {
		return nil, err
	}
	return toListingResult(l), nil
}

func runListings(s *session, args []string) (interface{}, error) {
	fs := newFlagSet("listings")
	market := fs.String("market", "", "marketplace id")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	marketID, err := requireID("market", *market)
	if err != nil {
		return nil, err
	}
	ids, err := s.engine.ListingIDs(marketID)
	if err != nil {
		return nil, err
	}
	out := make([]listingResult, 0, len(ids))
	for _, id := range ids {
		l, err := s.engine.Listing(id)
		if err != nil {
			return nil, err
		}
		out = append(out, toListingResult(l))
	}
	return out, nil
}

func runBid(s *session, args []string) (interface{}, error) {
	fs := newFlagSet("bid")
	listing := fs.String("listing", "", "listing id")
	amount := fs.Uint64("amount", 0, "amount to escrow")
	caller := fs.String("caller", "", "bidder address")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	listingID, err := requireID("listing", *listing)
	if err != nil {
		return nil, err
	}
	addr, err := requireAddress("caller", *caller)
	if err != nil {
		return nil, err
	}
	bid, err := s.engine.PlaceBid(listingID, *amount, addr)
	if err != nil {
		return nil, err
	}
	return toBidResult(bid), nil
}

func runAccept(s *session, args []string) (interface{}, error) {
	fs := newFlagSet("accept")
	listing := fs.String("listing", "", "listing id")
	bid := fs.String("bid", "", "bid id")
	credit := fs.String("credit", "", "credit id")
	caller := fs.String("caller", "", "listing owner address")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	listingID, err := requireID("listing", *listing)
	if err != nil {
		return nil, err
	}
	bidID, err := requireID("bid", *bid)
	if err != nil {
		return nil, err
	}
	creditID, err := requireID("credit", *credit)
	if err != nil {
		return nil, err
	}
	addr, err := requireAddress("caller", *caller)
	if err != nil {
		return nil, err
	}
	if err := s.engine.AcceptBid(listingID, bidID, creditID, addr); err != nil {
		return nil, err
	}
	return statusResult{Status: "accepted"}, nil
}

func runWithdraw(s *session, args []string) (interface{}, error) {
	fs := newFlagSet("withdraw")
	bid := fs.String("bid", "", "bid id")
	caller := fs.String("caller", "", "bidder address")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	bidID, err := requireID("bid", *bid)
	if err != nil {
		return nil, err
	}
	addr, err := requireAddress("caller", *caller)
	if err != nil {
		return nil, err
	}
	refunded, err := s.engine.WithdrawBid(bidID, addr)
	if err != nil {
		return nil, err
	}
	return withdrawResult{Bid: hex.EncodeToString(bidID[:]), Refunded: refunded}, nil
}

func runShow(s *session, args []string) (interface{}, error) {
	fs := newFlagSet("show")
	kind := fs.String("kind", "", "record kind: market, credit, listing or bid")
	id := fs.String("id", "", "record id")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	recordID, err := requireID("id", *id)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(*kind)) {
	case "market", "marketplace":
		m, err := s.engine.Marketplace(recordID)
		if err != nil {
			return nil, err
		}
		return toMarketplaceResult(m), nil
	case "credit":
		c, err := s.engine.Credit(recordID)
		if err != nil {
			return nil, err
		}
		return toCreditResult(c), nil
	case "listing":
		l, err := s.engine.Listing(recordID)
		if err != nil {
			return nil, err
		}
		return toListingResult(l), nil
	case "bid":
		b, err := s.engine.Bid(recordID)
		if err != nil {
			return nil, err
		}
		return toBidResult(b), nil
	default:
		return nil, fmt.Errorf("--kind must be market, credit, listing or bid")
	}
}

func runBalance(s *session, args []string) (interface{}, error) {
	fs := newFlagSet("balance")
	address := fs.String("address", "", "account address")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	addr, err := requireAddress("address", *address)
	if err != nil {
		return nil, err
	}
	return balanceOf(s, addr)
}

func balanceOf(s *session, addr [20]byte) (balanceResult, error) {
	balance, err := s.engine.Balance(addr)
	if err != nil {
		return balanceResult{}, err
	}
	return balanceResult{Address: crypto.FromRaw(addr).String(), Balance: balance.Dec()}, nil
}

func requireAddress(name, value string) ([20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return [20]byte{}, fmt.Errorf("--%s is required", name)
	}
	addr, err := crypto.ParseAddress(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("--%s: %w", name, err)
	}
	return addr, nil
}

func requireID(name, value string) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return out, fmt.Errorf("--%s is required", name)
	}
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("--%s: invalid hex: %w", name, err)
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("--%s: expected 32 bytes, got %d", name, len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

func hexID(id [32]byte) string {
	return hex.EncodeToString(id[:])
}

func toMarketplaceResult(m *marketplace.Marketplace) marketplaceResult {
	return marketplaceResult{
		ID:           hexID(m.ID),
		Owner:        crypto.FromRaw(m.Owner).String(),
		Escrow:       m.EscrowBalance().Dec(),
		ListingCount: m.ListingCount,
		BidCount:     m.BidCount,
		CreatedAt:    m.CreatedAt,
	}
}

func toCreditResult(c *marketplace.CarbonCredit) creditResult {
	return creditResult{
		ID:        hexID(c.ID),
		Owner:     crypto.FromRaw(c.Owner).String(),
		Quantity:  c.Quantity,
		Metadata:  c.Metadata,
		CreatedAt: c.CreatedAt,
	}
}

func toListingResult(l *marketplace.Listing) listingResult {
	return listingResult{
		ID:            hexID(l.ID),
		MarketplaceID: hexID(l.MarketplaceID),
		CreditID:      hexID(l.CreditID),
		Owner:         crypto.FromRaw(l.Owner).String(),
		BasePrice:     l.BasePrice,
		Active:        l.Active,
		CreatedAt:     l.CreatedAt,
	}
}

func toBidResult(b *marketplace.Bid) bidResult {
	return bidResult{
		ID:            hexID(b.ID),
		MarketplaceID: hexID(b.MarketplaceID),
		ListingID:     hexID(b.ListingID),
		CreditID:      hexID(b.CreditID),
		Bidder:        crypto.FromRaw(b.Bidder).String(),
		Amount:        b.Amount,
		Claimed:       b.Claimed,
		CreatedAt:     b.CreatedAt,
	}
}
