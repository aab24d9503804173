package marketplace

import (
	"fmt"

	"github.com/holiman/uint256"
)

// EscrowBalance returns a copy of the marketplace escrow balance.
func (m *Marketplace) EscrowBalance() *uint256.Int {
	if m == nil {
		return new(uint256.Int)
	}
	return cloneAmount(m.Escrow)
}

// deposit moves amount into escrow. It cannot fail: the balance is 256 bits
// wide and every deposit is a uint64.
func (m *Marketplace) deposit(amount uint64) {
	balance := cloneAmount(m.Escrow)
	m.Escrow = balance.Add(balance, uint256.NewInt(amount))
}

// withdraw removes amount from escrow and returns it as released funds.
func (m *Marketplace) withdraw(amount uint64) (uint64, error) {
	balance := cloneAmount(m.Escrow)
	requested := uint256.NewInt(amount)
	if balance.Lt(requested) {
		return 0, fmt.Errorf("%w: balance %s, requested %d", ErrInsufficientEscrow, balance.Dec(), amount)
	}
	m.Escrow = balance.Sub(balance, requested)
	return amount, nil
}
