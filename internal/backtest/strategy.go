package backtest

import (
	"time"

	"options-backtester/internal/marketdata"
	"options-backtester/internal/models"
)

// Action discriminates the two signal kinds.
type Action string

// Action constants.
const (
	ActionOpen  Action = "open"
	ActionClose Action = "close"
)

// Signal is one instruction emitted by a strategy. Open signals carry
// the contract, direction and quantity; close signals carry the target
// position. Reason is a human-readable exit/entry tag carried into the
// trade log.
type Signal struct {
	Action    Action
	Option    *marketdata.OptionSnapshot
	Direction models.Side
	Quantity  int
	Position  *Position
	Reason    string
}

// OpenSignal builds an open instruction.
func OpenSignal(option *marketdata.OptionSnapshot, direction models.Side, quantity int, reason string) Signal {
	return Signal{
		Action:    ActionOpen,
		Option:    option,
		Direction: direction,
		Quantity:  quantity,
		Reason:    reason,
	}
}

// CloseSignal builds a close instruction.
func CloseSignal(position *Position, reason string) Signal {
	return Signal{
		Action:   ActionClose,
		Position: position,
		Reason:   reason,
	}
}

// Context is the read-only view a strategy receives at each timestamp.
// Strategies must not mutate it; all state changes happen through the
// signals they return.
type Context struct {
	Timestamp       time.Time
	Chain           *marketdata.OptionChain
	Portfolio       *Portfolio
	UnderlyingPrice float64
}

// Strategy is the single entry point the backtester polls. Given a
// context it returns zero or more signals. Implementations must be
// deterministic for the backtest to be reproducible.
type Strategy interface {
	// OnTimestamp is called once per replayed timestamp, in order.
	OnTimestamp(ctx *Context) ([]Signal, error)

	// Name returns the strategy identifier.
	Name() string
}
