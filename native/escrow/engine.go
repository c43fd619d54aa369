// Package escrow implements the single-party custody engine: one funded
// deposit held in trust, released to exactly one of the sender, the
// recipient, or the party a dispute arbiter awards it to. Operations are
// bounded, synchronous check-and-mutate transitions; the surrounding ledger
// serializes calls per record and rolls back every write on error.
package escrow

import (
	"errors"
	"math/big"
	"time"

	"custodian/core/events"
	"custodian/core/types"
	nativecommon "custodian/native/common"
)

const moduleName = "escrow"

var errNilState = errors.New("escrow engine: state not configured")

type engineState interface {
	EscrowPut(*Escrow) error
	EscrowGet(id [32]byte) (*Escrow, bool)
	EscrowDelete(id [32]byte) error
	VaultCredit(id [32]byte, asset string, amt *big.Int) error
	VaultDebit(id [32]byte, asset string, amt *big.Int) error
	VaultBalance(id [32]byte, asset string) (*big.Int, error)
	AccountCredit(addr [20]byte, asset string, amt *big.Int) error
	AccountDebit(addr [20]byte, asset string, amt *big.Int) error
	NextRecordID(kind string) ([32]byte, error)
}

type escrowEvent struct {
	evt *types.Event
}

func (e escrowEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e escrowEvent) Event() *types.Event { return e.evt }

// Engine wires the escrow transition logic to external state, an event
// emitter, and a trusted clock. Time-gated decisions read the configured
// now-func exactly once per call, so an operation's outcome is fully
// determined at invocation.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
	pauses  nativecommon.PauseView
}

// NewEngine creates an escrow engine with a no-op emitter and a wall-clock
// time source. Callers override both via SetEmitter and SetNowFunc.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the ledger backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. The engine never reads the system
// clock inside an operation once a now-func is installed.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetPauses installs the administrative pause switch for the module.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(escrowEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadEscrow(id [32]byte) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	esc, ok := e.state.EscrowGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return esc, nil
}

// Create funds and persists a new escrow in one atomic unit: the caller
// becomes the sender, the amount moves from the sender's account into the
// record's vault, and the record is stored. An escrow therefore never
// exists with a zero balance.
func (e *Engine) Create(sender, recipient [20]byte, arbiter *[20]byte, asset string, amount *big.Int, unlockTime int64, memo string) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	now := e.now()
	esc := &Escrow{
		Sender:     sender,
		Recipient:  recipient,
		Asset:      asset,
		Amount:     amount,
		UnlockTime: unlockTime,
		CreatedAt:  now,
		Memo:       memo,
	}
	if arbiter != nil {
		esc.Arbiter = *arbiter
	}
	sanitized, err := Sanitize(esc)
	if err != nil {
		return nil, err
	}
	if sanitized.UnlockTime != 0 && sanitized.UnlockTime < now {
		return nil, ErrTimeLocked
	}
	id, err := e.state.NextRecordID(moduleName)
	if err != nil {
		return nil, err
	}
	sanitized.ID = id
	if err := e.state.AccountDebit(sender, sanitized.Asset, sanitized.Amount); err != nil {
		return nil, err
	}
	if err := e.state.VaultCredit(id, sanitized.Asset, sanitized.Amount); err != nil {
		return nil, err
	}
	if err := e.state.EscrowPut(sanitized); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(sanitized))
	return sanitized.Clone(), nil
}

// Accept releases the balance to the recipient and destroys the record.
// Only the recipient may call it, the record must not be in dispute, and
// when a time lock is set the clock must have reached it.
func (e *Engine) Accept(id [32]byte, caller [20]byte) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if caller != esc.Recipient {
		return ErrNotRecipient
	}
	if esc.InDispute {
		return ErrInDispute
	}
	if esc.UnlockTime != 0 && e.now() < esc.UnlockTime {
		return ErrTimeLocked
	}
	if err := e.release(esc, esc.Recipient); err != nil {
		return err
	}
	e.emit(NewAcceptedEvent(esc))
	return nil
}

// Cancel refunds the balance to the sender and destroys the record. A
// disputed escrow cannot be cancelled; it must go through arbitration.
func (e *Engine) Cancel(id [32]byte, caller [20]byte) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if caller != esc.Sender {
		return ErrNotSender
	}
	if esc.InDispute {
		return ErrInDispute
	}
	if err := e.release(esc, esc.Sender); err != nil {
		return err
	}
	e.emit(NewCancelledEvent(esc))
	return nil
}

// Dispute flags the escrow as disputed. Only the sender or recipient may
// raise it, and only when an arbiter was appointed at creation; without an
// arbiter a dispute could never be resolved. No funds move.
func (e *Engine) Dispute(id [32]byte, caller [20]byte) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if caller != esc.Sender && caller != esc.Recipient {
		return ErrNotParty
	}
	if !esc.HasArbiter() {
		return ErrNoArbiter
	}
	if esc.InDispute {
		return ErrInDispute
	}
	esc.InDispute = true
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	e.emit(NewDisputedEvent(esc))
	return nil
}

// Resolve settles a disputed escrow: the arbiter awards the full balance to
// the sender or the recipient and the record is destroyed.
func (e *Engine) Resolve(id [32]byte, caller [20]byte, awardToSender bool) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if !esc.HasArbiter() || caller != esc.Arbiter {
		return ErrNotArbiter
	}
	if !esc.InDispute {
		return ErrNotDisputed
	}
	winner := esc.Recipient
	if awardToSender {
		winner = esc.Sender
	}
	if err := e.release(esc, winner); err != nil {
		return err
	}
	e.emit(NewResolvedEvent(esc, awardToSender))
	return nil
}

// Get returns a copy of a live escrow record.
func (e *Engine) Get(id [32]byte) (*Escrow, error) {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return nil, err
	}
	return esc.Clone(), nil
}

// release pays the full vault balance to the beneficiary and deletes the
// record. Destruction and payout share the caller's atomic unit, so there
// is no state where funds are released but unassigned.
func (e *Engine) release(esc *Escrow, to [20]byte) error {
	balance, err := e.state.VaultBalance(esc.ID, esc.Asset)
	if err != nil {
		return err
	}
	if balance.Sign() <= 0 {
		return ErrZeroAmount
	}
	if err := e.state.VaultDebit(esc.ID, esc.Asset, balance); err != nil {
		return err
	}
	if err := e.state.AccountCredit(to, esc.Asset, balance); err != nil {
		return err
	}
	return e.state.EscrowDelete(esc.ID)
}
