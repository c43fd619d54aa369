package ledger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"custodian/core/types"
	"custodian/native/escrow"
	"custodian/native/swap"
)

// Stored forms use hex strings for identifiers and decimal strings for
// amounts so the database contents stay stable and inspectable.

type storedAccount struct {
	Nonce    uint64            `json:"nonce"`
	Balances map[string]string `json:"balances,omitempty"`
}

type storedEscrow struct {
	ID         string `json:"id"`
	Sender     string `json:"sender"`
	Recipient  string `json:"recipient"`
	Arbiter    string `json:"arbiter,omitempty"`
	Asset      string `json:"asset"`
	Amount     string `json:"amount"`
	UnlockTime int64  `json:"unlockTime,omitempty"`
	CreatedAt  int64  `json:"createdAt"`
	Memo       string `json:"memo,omitempty"`
	InDispute  bool   `json:"inDispute,omitempty"`
}

type storedSwap struct {
	ID         string `json:"id"`
	PartyA     string `json:"partyA"`
	PartyB     string `json:"partyB"`
	AssetA     string `json:"assetA"`
	AssetB     string `json:"assetB"`
	AmountA    string `json:"amountA"`
	AmountB    string `json:"amountB"`
	DepositedA bool   `json:"depositedA,omitempty"`
	DepositedB bool   `json:"depositedB,omitempty"`
	Expiration int64  `json:"expiration"`
	CreatedAt  int64  `json:"createdAt"`
}

func encodeAccount(acc *types.Account) ([]byte, error) {
	stored := storedAccount{Nonce: acc.Nonce}
	if len(acc.Balances) > 0 {
		stored.Balances = make(map[string]string, len(acc.Balances))
		for symbol, amount := range acc.Balances {
			if amount == nil {
				continue
			}
			stored.Balances[symbol] = amount.String()
		}
	}
	return json.Marshal(stored)
}

func decodeAccount(raw []byte) (*types.Account, error) {
	var stored storedAccount
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("ledger: corrupt account: %w", err)
	}
	acc := types.NewAccount()
	acc.Nonce = stored.Nonce
	for symbol, amount := range stored.Balances {
		parsed, ok := new(big.Int).SetString(amount, 10)
		if !ok {
			return nil, fmt.Errorf("ledger: corrupt balance %q for %s", amount, symbol)
		}
		acc.SetBalance(symbol, parsed)
	}
	return acc, nil
}

func decodeHash(value string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(value)
	if err != nil || len(raw) != len(out) {
		return out, fmt.Errorf("ledger: corrupt identifier %q", value)
	}
	copy(out[:], raw)
	return out, nil
}

func decodeAddr(value string) ([20]byte, error) {
	var out [20]byte
	if value == "" {
		return out, nil
	}
	raw, err := hex.DecodeString(value)
	if err != nil || len(raw) != len(out) {
		return out, fmt.Errorf("ledger: corrupt address %q", value)
	}
	copy(out[:], raw)
	return out, nil
}

func decodeAmount(value string) (*big.Int, error) {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("ledger: corrupt amount %q", value)
	}
	return parsed, nil
}

func encodeEscrow(e *escrow.Escrow) ([]byte, error) {
	stored := storedEscrow{
		ID:         hex.EncodeToString(e.ID[:]),
		Sender:     hex.EncodeToString(e.Sender[:]),
		Recipient:  hex.EncodeToString(e.Recipient[:]),
		Asset:      e.Asset,
		Amount:     e.Amount.String(),
		UnlockTime: e.UnlockTime,
		CreatedAt:  e.CreatedAt,
		Memo:       e.Memo,
		InDispute:  e.InDispute,
	}
	if e.HasArbiter() {
		stored.Arbiter = hex.EncodeToString(e.Arbiter[:])
	}
	return json.Marshal(stored)
}

func decodeEscrow(raw []byte) (*escrow.Escrow, error) {
	var stored storedEscrow
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("ledger: corrupt escrow: %w", err)
	}
	id, err := decodeHash(stored.ID)
	if err != nil {
		return nil, err
	}
	sender, err := decodeAddr(stored.Sender)
	if err != nil {
		return nil, err
	}
	recipient, err := decodeAddr(stored.Recipient)
	if err != nil {
		return nil, err
	}
	arbiter, err := decodeAddr(stored.Arbiter)
	if err != nil {
		return nil, err
	}
	amount, err := decodeAmount(stored.Amount)
	if err != nil {
		return nil, err
	}
	return &escrow.Escrow{
		ID:         id,
		Sender:     sender,
		Recipient:  recipient,
		Arbiter:    arbiter,
		Asset:      stored.Asset,
		Amount:     amount,
		UnlockTime: stored.UnlockTime,
		CreatedAt:  stored.CreatedAt,
		Memo:       stored.Memo,
		InDispute:  stored.InDispute,
	}, nil
}

func encodeSwap(s *swap.Swap) ([]byte, error) {
	stored := storedSwap{
		ID:         hex.EncodeToString(s.ID[:]),
		PartyA:     hex.EncodeToString(s.PartyA[:]),
		PartyB:     hex.EncodeToString(s.PartyB[:]),
		AssetA:     s.AssetA,
		AssetB:     s.AssetB,
		AmountA:    s.AmountA.String(),
		AmountB:    s.AmountB.String(),
		DepositedA: s.DepositedA,
		DepositedB: s.DepositedB,
		Expiration: s.Expiration,
		CreatedAt:  s.CreatedAt,
	}
	return json.Marshal(stored)
}

func decodeSwap(raw []byte) (*swap.Swap, error) {
	var stored storedSwap
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("ledger: corrupt swap: %w", err)
	}
	id, err := decodeHash(stored.ID)
	if err != nil {
		return nil, err
	}
	partyA, err := decodeAddr(stored.PartyA)
	if err != nil {
		return nil, err
	}
	partyB, err := decodeAddr(stored.PartyB)
	if err != nil {
		return nil, err
	}
	amountA, err := decodeAmount(stored.AmountA)
	if err != nil {
		return nil, err
	}
	amountB, err := decodeAmount(stored.AmountB)
	if err != nil {
		return nil, err
	}
	return &swap.Swap{
		ID:         id,
		PartyA:     partyA,
		PartyB:     partyB,
		AssetA:     stored.AssetA,
		AssetB:     stored.AssetB,
		AmountA:    amountA,
		AmountB:    amountB,
		DepositedA: stored.DepositedA,
		DepositedB: stored.DepositedB,
		Expiration: stored.Expiration,
		CreatedAt:  stored.CreatedAt,
	}, nil
}
