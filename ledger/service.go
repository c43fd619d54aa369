package ledger

import (
	"math/big"

	"custodian/core/events"
	"custodian/native/common"
	"custodian/native/escrow"
	"custodian/native/swap"
)

// Service binds the native engines to a ledger and executes every mutating
// operation inside a single transaction, so a failure at any step leaves the
// database untouched.
type Service struct {
	ledger *Ledger
	escrow *escrow.Engine
	swap   *swap.Engine
}

// NewService wires both engines to the given ledger.
func NewService(l *Ledger) *Service {
	escrowEngine := escrow.NewEngine()
	escrowEngine.SetState(l)
	swapEngine := swap.NewEngine()
	swapEngine.SetState(l)
	return &Service{ledger: l, escrow: escrowEngine, swap: swapEngine}
}

// SetEmitter forwards the event emitter to both engines.
func (s *Service) SetEmitter(emitter events.Emitter) {
	s.escrow.SetEmitter(emitter)
	s.swap.SetEmitter(emitter)
}

// SetNowFunc overrides the time source of both engines.
func (s *Service) SetNowFunc(now func() int64) {
	s.escrow.SetNowFunc(now)
	s.swap.SetNowFunc(now)
}

// SetPauses installs the administrative pause switch on both engines.
func (s *Service) SetPauses(p common.PauseView) {
	s.escrow.SetPauses(p)
	s.swap.SetPauses(p)
}

// Ledger exposes the underlying ledger for read-only access.
func (s *Service) Ledger() *Ledger { return s.ledger }

// CreateEscrow locks the sender's funds into a new escrow record.
func (s *Service) CreateEscrow(sender, recipient [20]byte, arbiter *[20]byte, asset string, amount *big.Int, unlockTime int64, memo string) (*escrow.Escrow, error) {
	var created *escrow.Escrow
	err := s.ledger.Apply(func() error {
		var err error
		created, err = s.escrow.Create(sender, recipient, arbiter, asset, amount, unlockTime, memo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AcceptEscrow releases the escrowed funds to the recipient.
func (s *Service) AcceptEscrow(id [32]byte, caller [20]byte) error {
	return s.ledger.Apply(func() error {
		return s.escrow.Accept(id, caller)
	})
}

// CancelEscrow refunds the escrowed funds to the sender.
func (s *Service) CancelEscrow(id [32]byte, caller [20]byte) error {
	return s.ledger.Apply(func() error {
		return s.escrow.Cancel(id, caller)
	})
}

// DisputeEscrow freezes an arbitrated escrow pending resolution.
func (s *Service) DisputeEscrow(id [32]byte, caller [20]byte) error {
	return s.ledger.Apply(func() error {
		return s.escrow.Dispute(id, caller)
	})
}

// ResolveEscrow lets the arbiter award the disputed funds to one party.
func (s *Service) ResolveEscrow(id [32]byte, caller [20]byte, awardToSender bool) error {
	return s.ledger.Apply(func() error {
		return s.escrow.Resolve(id, caller, awardToSender)
	})
}

// GetEscrow returns a copy of the escrow record.
func (s *Service) GetEscrow(id [32]byte) (*escrow.Escrow, error) {
	var record *escrow.Escrow
	err := s.ledger.View(func() error {
		var err error
		record, err = s.escrow.Get(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CreateSwap registers a new swap agreement between two parties.
func (s *Service) CreateSwap(partyA, partyB [20]byte, assetA string, amountA *big.Int, assetB string, amountB *big.Int, expiration int64) (*swap.Swap, error) {
	var created *swap.Swap
	err := s.ledger.Apply(func() error {
		var err error
		created, err = s.swap.Create(partyA, partyB, assetA, amountA, assetB, amountB, expiration)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DepositSwapA funds party A's leg of the swap.
func (s *Service) DepositSwapA(id [32]byte, caller [20]byte, amount *big.Int) error {
	return s.ledger.Apply(func() error {
		return s.swap.DepositA(id, caller, amount)
	})
}

// DepositSwapB funds party B's leg of the swap.
func (s *Service) DepositSwapB(id [32]byte, caller [20]byte, amount *big.Int) error {
	return s.ledger.Apply(func() error {
		return s.swap.DepositB(id, caller, amount)
	})
}

// ExecuteSwap settles a fully funded swap.
func (s *Service) ExecuteSwap(id [32]byte) error {
	return s.ledger.Apply(func() error {
		return s.swap.Execute(id)
	})
}

// ReclaimSwap returns the caller's deposit from an expired swap.
func (s *Service) ReclaimSwap(id [32]byte, caller [20]byte) error {
	return s.ledger.Apply(func() error {
		return s.swap.Reclaim(id, caller)
	})
}

// GetSwap returns a copy of the swap record.
func (s *Service) GetSwap(id [32]byte) (*swap.Swap, error) {
	var record *swap.Swap
	err := s.ledger.View(func() error {
		var err error
		record, err = s.swap.Get(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
