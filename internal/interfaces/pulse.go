package interfaces

import (
	"context"

	"confluence-backtest/internal/types"
)

// PulseProvider fetches the current market sentiment payload consulted by
// the confluence gate. A nil pulse with a nil error means the oracle is
// deliberately absent; callers treat both nil and error as "no gate".
type PulseProvider interface {
	Pulse(ctx context.Context) (*types.Pulse, error)
}
