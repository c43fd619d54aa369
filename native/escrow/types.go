package escrow

import (
	"fmt"
	"math/big"
	"strings"
)

const maxMemoSize = 256

// Escrow captures a single custody agreement: one funded deposit that will
// be released to exactly one of the sender, the recipient, or the party an
// arbiter awards it to. A stored escrow always has its full amount in the
// vault; terminal transitions delete the record together with the balance,
// so a record that can be loaded is live by construction.
type Escrow struct {
	ID         [32]byte
	Sender     [20]byte
	Recipient  [20]byte
	Arbiter    [20]byte // zero value means no arbiter
	Asset      string
	Amount     *big.Int
	UnlockTime int64 // unix seconds; zero means no time lock
	CreatedAt  int64
	Memo       string
	InDispute  bool
}

// HasArbiter reports whether an arbiter was appointed at creation.
func (e *Escrow) HasArbiter() bool {
	return e != nil && e.Arbiter != ([20]byte{})
}

// Clone returns a deep copy so callers can mutate the copy without
// affecting the stored instance.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Amount != nil {
		clone.Amount = new(big.Int).Set(e.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// NormalizeAsset canonicalizes an asset symbol: trimmed, uppercase, one to
// twelve characters from [A-Z0-9].
func NormalizeAsset(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if len(trimmed) == 0 || len(trimmed) > 12 {
		return "", fmt.Errorf("escrow: invalid asset symbol %q", symbol)
	}
	for _, r := range trimmed {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("escrow: invalid asset symbol %q", symbol)
		}
	}
	return trimmed, nil
}

// Sanitize validates and normalises the supplied escrow, returning a clone
// with canonical asset casing and a non-nil amount. The original value is
// not mutated.
func Sanitize(e *Escrow) (*Escrow, error) {
	if e == nil {
		return nil, fmt.Errorf("escrow: nil escrow")
	}
	clone := e.Clone()
	asset, err := NormalizeAsset(clone.Asset)
	if err != nil {
		return nil, err
	}
	clone.Asset = asset
	if clone.Amount == nil || clone.Amount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if clone.Sender == clone.Recipient {
		return nil, fmt.Errorf("escrow: sender and recipient must differ")
	}
	if len(clone.Memo) > maxMemoSize {
		return nil, fmt.Errorf("escrow: memo exceeds %d bytes", maxMemoSize)
	}
	return clone, nil
}
