package swap

import (
	"errors"
	"math/big"
	"testing"
)

func TestNormalizeAsset(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"uppercases", "gold", "GOLD", false},
		{"trims", "  GEM  ", "GEM", false},
		{"alphanumeric", "usd1", "USD1", false},
		{"empty", "", "", true},
		{"too long", "ABCDEFGHIJKLM", "", true},
		{"punctuation", "GO-LD", "", true},
		{"whitespace inside", "GO LD", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeAsset(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func validSwap() *Swap {
	partyA := newTestAddress(0x01)
	partyB := newTestAddress(0x02)
	return &Swap{
		PartyA:     partyA,
		PartyB:     partyB,
		AssetA:     "gold",
		AssetB:     "gem",
		AmountA:    big.NewInt(50),
		AmountB:    big.NewInt(100),
		Expiration: testExpiration,
	}
}

func TestSanitize(t *testing.T) {
	sanitized, err := Sanitize(validSwap())
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if sanitized.AssetA != "GOLD" || sanitized.AssetB != "GEM" {
		t.Fatalf("expected normalized assets, got %q/%q", sanitized.AssetA, sanitized.AssetB)
	}

	t.Run("nil swap", func(t *testing.T) {
		if _, err := Sanitize(nil); err == nil {
			t.Fatalf("expected error")
		}
	})
	t.Run("zero amount", func(t *testing.T) {
		sw := validSwap()
		sw.AmountA = big.NewInt(0)
		if _, err := Sanitize(sw); !errors.Is(err, ErrZeroAmount) {
			t.Fatalf("expected ErrZeroAmount, got %v", err)
		}
	})
	t.Run("nil amount", func(t *testing.T) {
		sw := validSwap()
		sw.AmountB = nil
		if _, err := Sanitize(sw); !errors.Is(err, ErrZeroAmount) {
			t.Fatalf("expected ErrZeroAmount, got %v", err)
		}
	})
	t.Run("same party", func(t *testing.T) {
		sw := validSwap()
		sw.PartyB = sw.PartyA
		if _, err := Sanitize(sw); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestSanitizeDoesNotMutateInput(t *testing.T) {
	sw := validSwap()
	if _, err := Sanitize(sw); err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if sw.AssetA != "gold" {
		t.Fatalf("input mutated: %q", sw.AssetA)
	}
}

func TestFunded(t *testing.T) {
	sw := validSwap()
	if sw.Funded() {
		t.Fatalf("empty swap reported funded")
	}
	sw.DepositedA = true
	if sw.Funded() {
		t.Fatalf("half swap reported funded")
	}
	sw.DepositedB = true
	if !sw.Funded() {
		t.Fatalf("full swap not reported funded")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	sw := validSwap()
	clone := sw.Clone()
	clone.AmountA.SetInt64(7)
	clone.AssetA = "X"
	if sw.AmountA.Int64() != 50 || sw.AssetA != "gold" {
		t.Fatalf("clone shares state with original")
	}
}
