// Package swap implements the two-party atomic exchange engine. Deposits
// are independent and order-free, amounts must match the agreed sizes
// exactly, and execution either credits both parties or neither. An
// expired, partially funded swap is unwound through Reclaim so no deposit
// is ever stranded.
package swap

import (
	"errors"
	"math/big"
	"time"

	"custodian/core/events"
	"custodian/core/types"
	nativecommon "custodian/native/common"
)

const moduleName = "swap"

var errNilState = errors.New("swap engine: state not configured")

type engineState interface {
	SwapPut(*Swap) error
	SwapGet(id [32]byte) (*Swap, bool)
	SwapDelete(id [32]byte) error
	VaultCredit(id [32]byte, asset string, amt *big.Int) error
	VaultDebit(id [32]byte, asset string, amt *big.Int) error
	AccountCredit(addr [20]byte, asset string, amt *big.Int) error
	AccountDebit(addr [20]byte, asset string, amt *big.Int) error
	NextRecordID(kind string) ([32]byte, error)
}

type swapEvent struct {
	evt *types.Event
}

func (e swapEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e swapEvent) Event() *types.Event { return e.evt }

// Engine wires the swap transition logic to external state, an event
// emitter, and a trusted clock.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
	pauses  nativecommon.PauseView
}

// NewEngine creates a swap engine with a no-op emitter and a wall-clock
// time source.
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

// SetNowFunc overrides the time source, primarily for deterministic tests.
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
	e.emitter.Emit(swapEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadSwap(id [32]byte) (*Swap, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	sw, ok := e.state.SwapGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return sw, nil
}

// Create persists a new, empty swap. The caller becomes party A; both
// agreed amounts are fixed here and deposits must match them exactly.
func (e *Engine) Create(partyA, partyB [20]byte, assetA string, amountA *big.Int, assetB string, amountB *big.Int, expiration int64) (*Swap, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	now := e.now()
	sw := &Swap{
		PartyA:     partyA,
		PartyB:     partyB,
		AssetA:     assetA,
		AssetB:     assetB,
		AmountA:    amountA,
		AmountB:    amountB,
		Expiration: expiration,
		CreatedAt:  now,
	}
	sanitized, err := Sanitize(sw)
	if err != nil {
		return nil, err
	}
	if sanitized.Expiration < now {
		return nil, ErrExpired
	}
	id, err := e.state.NextRecordID(moduleName)
	if err != nil {
		return nil, err
	}
	sanitized.ID = id
	if err := e.state.SwapPut(sanitized); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(sanitized))
	return sanitized.Clone(), nil
}

// DepositA funds party A's leg. The deposit must match the agreed amount
// exactly; accepting anything else would silently corrupt the agreed
// exchange rate.
func (e *Engine) DepositA(id [32]byte, caller [20]byte, amount *big.Int) error {
	return e.deposit(id, caller, amount, "a")
}

// DepositB funds party B's leg.
func (e *Engine) DepositB(id [32]byte, caller [20]byte, amount *big.Int) error {
	return e.deposit(id, caller, amount, "b")
}

func (e *Engine) deposit(id [32]byte, caller [20]byte, amount *big.Int, side string) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	sw, err := e.loadSwap(id)
	if err != nil {
		return err
	}
	var party [20]byte
	var agreed *big.Int
	var asset string
	var deposited bool
	if side == "a" {
		party, agreed, asset, deposited = sw.PartyA, sw.AmountA, sw.AssetA, sw.DepositedA
	} else {
		party, agreed, asset, deposited = sw.PartyB, sw.AmountB, sw.AssetB, sw.DepositedB
	}
	if caller != party {
		return ErrNotParticipant
	}
	if deposited {
		return ErrAlreadyDeposited
	}
	if e.now() > sw.Expiration {
		return ErrExpired
	}
	if amount == nil || amount.Cmp(agreed) != 0 {
		return ErrAmountMismatch
	}
	if err := e.state.AccountDebit(party, asset, agreed); err != nil {
		return err
	}
	if err := e.state.VaultCredit(id, asset, agreed); err != nil {
		return err
	}
	if side == "a" {
		sw.DepositedA = true
	} else {
		sw.DepositedB = true
	}
	if err := e.state.SwapPut(sw); err != nil {
		return err
	}
	e.emit(NewDepositedEvent(sw, side))
	return nil
}

// Execute settles the exchange: party A's deposit pays party B and party
// B's deposit pays party A within the same atomic unit, then the record is
// destroyed. Anyone may trigger it once both sides are funded and the
// expiration has not passed.
func (e *Engine) Execute(id [32]byte) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	sw, err := e.loadSwap(id)
	if err != nil {
		return err
	}
	if !sw.Funded() {
		return ErrNotFunded
	}
	if e.now() > sw.Expiration {
		return ErrExpired
	}
	if err := e.state.VaultDebit(id, sw.AssetA, sw.AmountA); err != nil {
		return err
	}
	if err := e.state.AccountCredit(sw.PartyB, sw.AssetA, sw.AmountA); err != nil {
		return err
	}
	if err := e.state.VaultDebit(id, sw.AssetB, sw.AmountB); err != nil {
		return err
	}
	if err := e.state.AccountCredit(sw.PartyA, sw.AssetB, sw.AmountB); err != nil {
		return err
	}
	if err := e.state.SwapDelete(id); err != nil {
		return err
	}
	e.emit(NewExecutedEvent(sw))
	return nil
}

// Reclaim lets a depositing party recover its own deposit once the swap
// has expired without executing. The record is destroyed when the last
// deposit leaves it.
func (e *Engine) Reclaim(id [32]byte, caller [20]byte) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	sw, err := e.loadSwap(id)
	if err != nil {
		return err
	}
	if caller != sw.PartyA && caller != sw.PartyB {
		return ErrNotParticipant
	}
	if e.now() <= sw.Expiration {
		return ErrNotExpired
	}
	var agreed *big.Int
	var asset, side string
	if caller == sw.PartyA {
		if !sw.DepositedA {
			return ErrNotDeposited
		}
		agreed, asset, side = sw.AmountA, sw.AssetA, "a"
		sw.DepositedA = false
	} else {
		if !sw.DepositedB {
			return ErrNotDeposited
		}
		agreed, asset, side = sw.AmountB, sw.AssetB, "b"
		sw.DepositedB = false
	}
	if err := e.state.VaultDebit(id, asset, agreed); err != nil {
		return err
	}
	if err := e.state.AccountCredit(caller, asset, agreed); err != nil {
		return err
	}
	if sw.DepositedA || sw.DepositedB {
		if err := e.state.SwapPut(sw); err != nil {
			return err
		}
	} else {
		if err := e.state.SwapDelete(id); err != nil {
			return err
		}
	}
	e.emit(NewReclaimedEvent(sw, side))
	return nil
}

// Get returns a copy of a live swap record.
func (e *Engine) Get(id [32]byte) (*Swap, error) {
	sw, err := e.loadSwap(id)
	if err != nil {
		return nil, err
	}
	return sw.Clone(), nil
}
