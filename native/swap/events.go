package swap

import (
	"encoding/hex"
	"strconv"

	"custodian/core/types"
)

const (
	EventTypeCreated   = "swap.created"
	EventTypeDeposited = "swap.deposited"
	EventTypeExecuted  = "swap.executed"
	EventTypeReclaimed = "swap.reclaimed"
)

// NewCreatedEvent returns the canonical payload for a newly created swap.
func NewCreatedEvent(s *Swap) *types.Event { return newSwapEvent(EventTypeCreated, s) }

// NewDepositedEvent returns the payload emitted when one side funds its leg.
func NewDepositedEvent(s *Swap, side string) *types.Event {
	evt := newSwapEvent(EventTypeDeposited, s)
	evt.Attributes["side"] = side
	return evt
}

// NewExecutedEvent returns the payload emitted when both legs settle
// atomically and the record is destroyed.
func NewExecutedEvent(s *Swap) *types.Event { return newSwapEvent(EventTypeExecuted, s) }

// NewReclaimedEvent returns the payload emitted when a party recovers its
// own deposit from an expired swap.
func NewReclaimedEvent(s *Swap, side string) *types.Event {
	evt := newSwapEvent(EventTypeReclaimed, s)
	evt.Attributes["side"] = side
	return evt
}

func newSwapEvent(eventType string, s *Swap) *types.Event {
	attrs := make(map[string]string)
	if s == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(s.ID[:])
	attrs["partyA"] = hex.EncodeToString(s.PartyA[:])
	attrs["partyB"] = hex.EncodeToString(s.PartyB[:])
	attrs["assetA"] = s.AssetA
	attrs["assetB"] = s.AssetB
	if s.AmountA != nil {
		attrs["amountA"] = s.AmountA.String()
	} else {
		attrs["amountA"] = "0"
	}
	if s.AmountB != nil {
		attrs["amountB"] = s.AmountB.String()
	} else {
		attrs["amountB"] = "0"
	}
	attrs["expiration"] = strconv.FormatInt(s.Expiration, 10)
	attrs["createdAt"] = strconv.FormatInt(s.CreatedAt, 10)
	return &types.Event{Type: eventType, Attributes: attrs}
}
