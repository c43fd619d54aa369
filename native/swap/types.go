package swap

import (
	"fmt"
	"math/big"
	"strings"
)

// Swap captures a two-party atomic exchange: each side deposits an exact,
// pre-agreed amount of its own asset, and execution pays each deposit to
// the opposite party in a single atomic unit. A swap that expires before
// execution leaves each deposit individually reclaimable by its owner.
type Swap struct {
	ID         [32]byte
	PartyA     [20]byte
	PartyB     [20]byte
	AssetA     string
	AssetB     string
	AmountA    *big.Int
	AmountB    *big.Int
	DepositedA bool
	DepositedB bool
	Expiration int64
	CreatedAt  int64
}

// Funded reports whether both deposits are present.
func (s *Swap) Funded() bool {
	return s != nil && s.DepositedA && s.DepositedB
}

// Clone returns a deep copy so callers can mutate the copy without
// affecting the stored instance.
func (s *Swap) Clone() *Swap {
	if s == nil {
		return nil
	}
	clone := *s
	if s.AmountA != nil {
		clone.AmountA = new(big.Int).Set(s.AmountA)
	} else {
		clone.AmountA = big.NewInt(0)
	}
	if s.AmountB != nil {
		clone.AmountB = new(big.Int).Set(s.AmountB)
	} else {
		clone.AmountB = big.NewInt(0)
	}
	return &clone
}

// NormalizeAsset canonicalizes an asset symbol: trimmed, uppercase, one to
// twelve characters from [A-Z0-9].
func NormalizeAsset(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if len(trimmed) == 0 || len(trimmed) > 12 {
		return "", fmt.Errorf("swap: invalid asset symbol %q", symbol)
	}
	for _, r := range trimmed {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("swap: invalid asset symbol %q", symbol)
		}
	}
	return trimmed, nil
}

// Sanitize validates and normalises the supplied swap, returning a clone
// with canonical asset casing and non-nil amounts. The original value is
// not mutated.
func Sanitize(s *Swap) (*Swap, error) {
	if s == nil {
		return nil, fmt.Errorf("swap: nil swap")
	}
	clone := s.Clone()
	assetA, err := NormalizeAsset(clone.AssetA)
	if err != nil {
		return nil, err
	}
	assetB, err := NormalizeAsset(clone.AssetB)
	if err != nil {
		return nil, err
	}
	clone.AssetA = assetA
	clone.AssetB = assetB
	if clone.AmountA == nil || clone.AmountA.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if clone.AmountB == nil || clone.AmountB.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if clone.PartyA == clone.PartyB {
		return nil, fmt.Errorf("swap: parties must differ")
	}
	return clone, nil
}
