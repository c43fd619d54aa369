package types

import "math/big"

// Account holds the per-asset balances for a single address. Balances are
// keyed by the canonical asset symbol and are never negative.
type Account struct {
	Nonce    uint64              `json:"nonce"`
	Balances map[string]*big.Int `json:"balances"`
}

// NewAccount returns an account with an allocated balance map.
func NewAccount() *Account {
	return &Account{Balances: make(map[string]*big.Int)}
}

// Balance returns the balance held for the given asset symbol. A missing
// entry reads as zero.
func (a *Account) Balance(symbol string) *big.Int {
	if a == nil || a.Balances == nil {
		return big.NewInt(0)
	}
	if bal, ok := a.Balances[symbol]; ok && bal != nil {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// SetBalance stores the balance for the given asset symbol. Zero balances
// are removed so serialized accounts stay compact.
func (a *Account) SetBalance(symbol string, amount *big.Int) {
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	if amount == nil || amount.Sign() == 0 {
		delete(a.Balances, symbol)
		return
	}
	a.Balances[symbol] = new(big.Int).Set(amount)
}

// Clone returns a deep copy of the account so callers can safely mutate the
// copy without affecting the stored instance.
func (a *Account) Clone() *Account {
	clone := NewAccount()
	if a == nil {
		return clone
	}
	clone.Nonce = a.Nonce
	for symbol, bal := range a.Balances {
		if bal != nil {
			clone.Balances[symbol] = new(big.Int).Set(bal)
		}
	}
	return clone
}
