package event

import (
	"time"

	"blip_sim/internal/domain"
)

// Type identifies an inbox message.
type Type int

const (
	TypeAdvance Type = iota + 1
	TypeAccept
	TypeRelease
)

// String returns the string representation of Type
func (t Type) String() string {
	switch t {
	case TypeAdvance:
		return "ADVANCE"
	case TypeAccept:
		return "ACCEPT"
	case TypeRelease:
		return "RELEASE"
	default:
		return "UNKNOWN"
	}
}

// Event is anything the simulator goroutine consumes from its inbox.
type Event interface {
	GetSeq() uint64
	GetType() Type
	SetSeq(seq uint64)
}

// BaseEvent carries the sequence number stamped by the simulator on receipt.
type BaseEvent struct {
	Seq uint64
	Ts  int64 // Unix micros at send time
}

func (b *BaseEvent) GetSeq() uint64    { return b.Seq }
func (b *BaseEvent) SetSeq(seq uint64) { b.Seq = seq }

// AdvanceEvent moves the simulated clock forward.
type AdvanceEvent struct {
	BaseEvent
	By time.Duration
}

func (e *AdvanceEvent) GetType() Type { return TypeAdvance }

// Reply is the outcome of a CommandEvent.
type Reply struct {
	Order domain.Order
	Err   error
}

// CommandEvent asks the simulator to accept or release an order.
// Reply must be buffered (cap >= 1); the simulator never blocks on it.
type CommandEvent struct {
	BaseEvent
	Kind    Type
	OrderID string
	Reply   chan Reply
}

func (e *CommandEvent) GetType() Type { return e.Kind }

// NewCommand builds a command with a buffered reply channel.
func NewCommand(kind Type, orderID string) *CommandEvent {
	return &CommandEvent{
		BaseEvent: BaseEvent{Ts: time.Now().UnixMicro()},
		Kind:      kind,
		OrderID:   orderID,
		Reply:     make(chan Reply, 1),
	}
}
