package escrow

import (
	"encoding/hex"
	"strconv"

	"custodian/core/types"
)

const (
	EventTypeCreated   = "escrow.created"
	EventTypeAccepted  = "escrow.accepted"
	EventTypeCancelled = "escrow.cancelled"
	EventTypeDisputed  = "escrow.disputed"
	EventTypeResolved  = "escrow.resolved"
)

// NewCreatedEvent returns the canonical payload for a newly funded escrow.
func NewCreatedEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeCreated, e) }

// NewAcceptedEvent returns the payload emitted when the recipient accepts
// and the balance is released.
func NewAcceptedEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeAccepted, e) }

// NewCancelledEvent returns the payload emitted when the sender reclaims an
// undisputed escrow.
func NewCancelledEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeCancelled, e) }

// NewDisputedEvent returns the payload emitted when a party raises a dispute.
func NewDisputedEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeDisputed, e) }

// NewResolvedEvent returns the payload emitted when the arbiter settles a
// dispute. The winner attribute names the awarded party.
func NewResolvedEvent(e *Escrow, awardToSender bool) *types.Event {
	evt := newEscrowEvent(EventTypeResolved, e)
	if awardToSender {
		evt.Attributes["winner"] = "sender"
	} else {
		evt.Attributes["winner"] = "recipient"
	}
	return evt
}

func newEscrowEvent(eventType string, e *Escrow) *types.Event {
	attrs := make(map[string]string)
	if e == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(e.ID[:])
	attrs["sender"] = hex.EncodeToString(e.Sender[:])
	attrs["recipient"] = hex.EncodeToString(e.Recipient[:])
	attrs["asset"] = e.Asset
	if e.Amount != nil {
		attrs["amount"] = e.Amount.String()
	} else {
		attrs["amount"] = "0"
	}
	attrs["createdAt"] = strconv.FormatInt(e.CreatedAt, 10)
	if e.HasArbiter() {
		attrs["arbiter"] = hex.EncodeToString(e.Arbiter[:])
	}
	if e.UnlockTime != 0 {
		attrs["unlockTime"] = strconv.FormatInt(e.UnlockTime, 10)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
