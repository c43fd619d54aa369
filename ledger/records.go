package ledger

import (
	"errors"

	"custodian/native/escrow"
	"custodian/native/swap"
	"custodian/storage"
)

// EscrowPut stores the escrow record under its identifier.
func (l *Ledger) EscrowPut(e *escrow.Escrow) error {
	if e == nil {
		return errors.New("ledger: nil escrow")
	}
	raw, err := encodeEscrow(e)
	if err != nil {
		return err
	}
	return l.write(escrowKey(e.ID), raw)
}

// EscrowGet loads an escrow record, reporting whether it exists.
func (l *Ledger) EscrowGet(id [32]byte) (*escrow.Escrow, bool) {
	raw, err := l.read(escrowKey(id))
	if err != nil {
		return nil, false
	}
	record, err := decodeEscrow(raw)
	if err != nil {
		return nil, false
	}
	return record, true
}

// EscrowDelete removes an escrow record.
func (l *Ledger) EscrowDelete(id [32]byte) error {
	if _, err := l.read(escrowKey(id)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return escrow.ErrNotFound
		}
		return err
	}
	return l.remove(escrowKey(id))
}

// SwapPut stores the swap record under its identifier.
func (l *Ledger) SwapPut(s *swap.Swap) error {
	if s == nil {
		return errors.New("ledger: nil swap")
	}
	raw, err := encodeSwap(s)
	if err != nil {
		return err
	}
	return l.write(swapKey(s.ID), raw)
}

// SwapGet loads a swap record, reporting whether it exists.
func (l *Ledger) SwapGet(id [32]byte) (*swap.Swap, bool) {
	raw, err := l.read(swapKey(id))
	if err != nil {
		return nil, false
	}
	record, err := decodeSwap(raw)
	if err != nil {
		return nil, false
	}
	return record, true
}

// SwapDelete removes a swap record.
func (l *Ledger) SwapDelete(id [32]byte) error {
	if _, err := l.read(swapKey(id)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return swap.ErrNotFound
		}
		return err
	}
	return l.remove(swapKey(id))
}
