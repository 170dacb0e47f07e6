package scape

import (
	"context"
	"fmt"

	"trex/internal/nn"
)

type Fitness float64

type Trace map[string]any

// Scape scores a network against a fixed task. Each scape owns the topology
// its networks must have.
type Scape interface {
	Name() string
	Topology() nn.Topology
	Evaluate(ctx context.Context, net *nn.Network) (Fitness, Trace, error)
	Solved(fitness Fitness, trace Trace) bool
}

// StallLimiter is implemented by scapes that restart training by default
// after a number of generations without improvement.
type StallLimiter interface {
	StallLimit() int
}

func checkTopology(s Scape, net *nn.Network) error {
	if net == nil {
		return fmt.Errorf("%s: network is required", s.Name())
	}
	if net.Topology() != s.Topology() {
		return fmt.Errorf("%s: %w: want %s, got %s", s.Name(), nn.ErrTopologyMismatch, s.Topology(), net.Topology())
	}
	return nil
}
