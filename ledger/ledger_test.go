package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"custodian/storage"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(storage.NewMemDB())
}

func addr(fill byte) [20]byte {
	var out [20]byte
	for i := range out {
		out[i] = fill
	}
	return out
}

func TestApplyCommits(t *testing.T) {
	db := storage.NewMemDB()
	l := NewLedger(db)
	alice := addr(0x01)

	err := l.Apply(func() error {
		return l.AccountCredit(alice, "GOLD", big.NewInt(100))
	})
	require.NoError(t, err)

	// a fresh ledger over the same database sees the committed balance
	reopened := NewLedger(db)
	acc, err := reopened.GetAccount(alice)
	require.NoError(t, err)
	require.Equal(t, "100", acc.Balance("GOLD").String())
}

func TestApplyRollsBackOnError(t *testing.T) {
	l := newTestLedger(t)
	alice := addr(0x01)

	require.NoError(t, l.Apply(func() error {
		return l.AccountCredit(alice, "GOLD", big.NewInt(100))
	}))

	err := l.Apply(func() error {
		if err := l.AccountDebit(alice, "GOLD", big.NewInt(60)); err != nil {
			return err
		}
		// second debit exceeds the remaining balance and aborts everything
		return l.AccountDebit(alice, "GOLD", big.NewInt(60))
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	acc, err := l.GetAccount(alice)
	require.NoError(t, err)
	require.Equal(t, "100", acc.Balance("GOLD").String())
}

func TestMutationsRequireTransaction(t *testing.T) {
	l := newTestLedger(t)
	err := l.AccountCredit(addr(0x01), "GOLD", big.NewInt(1))
	require.ErrorIs(t, err, ErrNoTransaction)
}

func TestDebitValidation(t *testing.T) {
	l := newTestLedger(t)
	alice := addr(0x01)

	err := l.Apply(func() error {
		return l.AccountDebit(alice, "GOLD", big.NewInt(1))
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	err = l.Apply(func() error {
		return l.AccountCredit(alice, "GOLD", big.NewInt(0))
	})
	require.ErrorIs(t, err, ErrInvalidAmount)

	err = l.Apply(func() error {
		return l.AccountCredit(alice, "GOLD", nil)
	})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestVaultLifecycle(t *testing.T) {
	l := newTestLedger(t)
	var id [32]byte
	id[0] = 0xAA

	require.NoError(t, l.Apply(func() error {
		if err := l.VaultCredit(id, "GOLD", big.NewInt(40)); err != nil {
			return err
		}
		return l.VaultCredit(id, "GOLD", big.NewInt(10))
	}))

	balance, err := l.VaultBalance(id, "GOLD")
	require.NoError(t, err)
	require.Equal(t, "50", balance.String())

	err = l.Apply(func() error {
		return l.VaultDebit(id, "GOLD", big.NewInt(60))
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, l.Apply(func() error {
		return l.VaultDebit(id, "GOLD", big.NewInt(50))
	}))

	balance, err = l.VaultBalance(id, "GOLD")
	require.NoError(t, err)
	require.Zero(t, balance.Sign())
}

func TestNextRecordIDDistinctPerKindAndSequence(t *testing.T) {
	l := newTestLedger(t)
	seen := make(map[[32]byte]bool)

	require.NoError(t, l.Apply(func() error {
		for i := 0; i < 5; i++ {
			for _, kind := range []string{"escrow", "swap"} {
				id, err := l.NextRecordID(kind)
				if err != nil {
					return err
				}
				require.False(t, seen[id], "identifier reused")
				seen[id] = true
			}
		}
		return nil
	}))
	require.Len(t, seen, 10)
}

func TestAccountRoundTripPreservesNonce(t *testing.T) {
	l := newTestLedger(t)
	alice := addr(0x01)

	require.NoError(t, l.Apply(func() error {
		acc, err := l.GetAccount(alice)
		if err != nil {
			return err
		}
		acc.Nonce = 7
		acc.SetBalance("GOLD", big.NewInt(123))
		acc.SetBalance("GEM", big.NewInt(0))
		return l.PutAccount(alice, acc)
	}))

	acc, err := l.GetAccount(alice)
	require.NoError(t, err)
	require.EqualValues(t, 7, acc.Nonce)
	require.Equal(t, "123", acc.Balance("GOLD").String())
	_, hasGem := acc.Balances["GEM"]
	require.False(t, hasGem, "zero balances are not stored")
}
