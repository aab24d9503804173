package marketplace

import "fmt"

// RegisterCredit mints a new carbon credit record owned by owner. Minting
// policy is not enforced here; any caller may register.
func (e *Engine) RegisterCredit(owner [20]byte, quantity uint64, metadata string) (*CarbonCredit, error) {
	var created *CarbonCredit
	err := e.mutate(func(st engineState) error {
		nonce, err := st.NextNonce(nonceScopeCredit, owner)
		if err != nil {
			return err
		}
		credit := &CarbonCredit{
			ID:        deriveID(nonceScopeCredit, owner[:], nonce),
			Owner:     owner,
			Quantity:  quantity,
			Metadata:  metadata,
			CreatedAt: e.now(),
		}
		if err := st.CreditPut(credit); err != nil {
			return err
		}
		e.queue(NewCreditRegisteredEvent(credit))
		created = credit.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// transferCredit hands the credit to newOwner. authority must be the current
// owner; the accept-bid flow is the only caller.
func (e *Engine) transferCredit(st engineState, credit *CarbonCredit, authority, newOwner [20]byte) error {
	if credit == nil {
		return fmt.Errorf("marketplace: nil credit")
	}
	if credit.Owner != authority {
		return fmt.Errorf("%w: caller does not own credit %x", ErrUnauthorized, credit.ID)
	}
	previous := credit.Owner
	credit.Owner = newOwner
	if err := st.CreditPut(credit); err != nil {
		return err
	}
	e.queue(NewCreditTransferredEvent(credit, previous))
	return nil
}
