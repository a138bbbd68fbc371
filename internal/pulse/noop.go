package pulse

import (
	"context"

	"confluence-backtest/internal/interfaces"
	"confluence-backtest/internal/types"
)

// Noop is a pulse provider that reports the oracle as absent. Used when
// sentiment gating is disabled so the wiring stays uniform.
type Noop struct{}

var _ interfaces.PulseProvider = (*Noop)(nil)

// NewNoop creates a no-op pulse provider
func NewNoop() *Noop {
	return &Noop{}
}

// Pulse always reports no pulse available
func (n *Noop) Pulse(ctx context.Context) (*types.Pulse, error) {
	return nil, nil
}
