package nn

import (
	"fmt"
	"math/rand"
)

// DefaultMassiveMutationPercent is the chance, in percent, that a network
// mutation touches every unit of every layer.
const DefaultMassiveMutationPercent = 10

const (
	MinNetworkInputs  = 2
	MinHiddenLayers   = 1
	MinNetworkOutputs = 1
)

// Topology fixes the shape of a network for its whole lifetime.
type Topology struct {
	Inputs       int `json:"inputs" yaml:"inputs"`
	HiddenLayers int `json:"hidden_layers" yaml:"hidden_layers"`
	Outputs      int `json:"outputs" yaml:"outputs"`
}

func (t Topology) Validate() error {
	if t.Inputs < MinNetworkInputs {
		return invalidf("network requires at least %d inputs, got %d", MinNetworkInputs, t.Inputs)
	}
	if t.HiddenLayers < MinHiddenLayers {
		return invalidf("network requires at least %d hidden layer, got %d", MinHiddenLayers, t.HiddenLayers)
	}
	if t.Outputs < MinNetworkOutputs {
		return invalidf("network requires at least %d output, got %d", MinNetworkOutputs, t.Outputs)
	}
	return nil
}

func (t Topology) String() string {
	return fmt.Sprintf("%d-%dx%d-%d", t.Inputs, t.HiddenLayers, t.Inputs, t.Outputs)
}

// Network is a feedforward stack of width-preserving hidden layers followed
// by an output layer. Hidden layers compute through two scratch buffers that
// swap roles after every layer.
type Network struct {
	topology Topology

	input    []Signal
	scratchA []Signal
	scratchB []Signal
	output   []Signal

	hidden      []*Layer
	outputLayer *Layer
}

func NewNetwork(rng *rand.Rand, topology Topology) (*Network, error) {
	if rng == nil {
		return nil, ErrNilRandom
	}
	if err := topology.Validate(); err != nil {
		return nil, err
	}

	hidden := make([]*Layer, topology.HiddenLayers)
	for i := range hidden {
		layer, err := NewLayer(rng, topology.Inputs, topology.Inputs)
		if err != nil {
			return nil, dependency(fmt.Sprintf("hidden layer %d", i), err)
		}
		hidden[i] = layer
	}
	outputLayer, err := NewLayer(rng, topology.Inputs, topology.Outputs)
	if err != nil {
		return nil, dependency("output layer", err)
	}

	return &Network{
		topology:    topology,
		input:       make([]Signal, topology.Inputs),
		scratchA:    make([]Signal, topology.Inputs),
		scratchB:    make([]Signal, topology.Inputs),
		output:      make([]Signal, topology.Outputs),
		hidden:      hidden,
		outputLayer: outputLayer,
	}, nil
}

func (n *Network) Topology() Topology {
	return n.topology
}

// SetInput stores s at input position i. Nothing is recomputed.
func (n *Network) SetInput(i int, s Signal) error {
	if n == nil {
		return invalidf("nil network")
	}
	if i < 0 || i >= len(n.input) {
		return invalidf("network input index %d out of range [0,%d)", i, len(n.input))
	}
	if !s.Valid() {
		return invalidf("illegal signal %d", s)
	}
	n.input[i] = s
	return nil
}

// SetInputs replaces the whole input vector.
func (n *Network) SetInputs(in []Signal) error {
	if n == nil {
		return invalidf("nil network")
	}
	if len(in) != len(n.input) {
		return invalidf("network input width: want %d, got %d", len(n.input), len(in))
	}
	for i, s := range in {
		if err := n.SetInput(i, s); err != nil {
			return err
		}
	}
	return nil
}

// Inputs returns a copy of the current input vector.
func (n *Network) Inputs() []Signal {
	return append([]Signal(nil), n.input...)
}

// Output returns a copy of the most recently computed output.
func (n *Network) Output() []Signal {
	return append([]Signal(nil), n.output...)
}

func (n *Network) NumHiddenLayers() int {
	return len(n.hidden)
}

func (n *Network) HiddenLayer(i int) (*Layer, error) {
	if n == nil {
		return nil, invalidf("nil network")
	}
	if i < 0 || i >= len(n.hidden) {
		return nil, invalidf("hidden layer index %d out of range [0,%d)", i, len(n.hidden))
	}
	return n.hidden[i], nil
}

func (n *Network) OutputLayer() *Layer {
	return n.outputLayer
}

// Compute runs the input vector through every layer and returns the network's
// own output buffer. The slice is overwritten by the next Compute.
func (n *Network) Compute() ([]Signal, error) {
	if n == nil {
		return nil, invalidf("nil network")
	}
	in, out := n.scratchA, n.scratchB
	copy(in, n.input)
	for i, layer := range n.hidden {
		if err := layer.Compute(in, out); err != nil {
			return nil, dependency(fmt.Sprintf("hidden layer %d", i), err)
		}
		in, out = out, in
	}
	if err := n.outputLayer.Compute(in, n.output); err != nil {
		return nil, dependency("output layer", err)
	}
	return n.output, nil
}

// CloneInto copies every weight of n into dst. Both networks must share the
// same topology; on mismatch dst is left untouched. Input and output buffers
// are not copied.
func (n *Network) CloneInto(dst *Network) error {
	if n == nil || dst == nil {
		return invalidf("source and destination networks are required")
	}
	if dst.topology != n.topology {
		return mismatchf("network: src=%s dst=%s", n.topology, dst.topology)
	}
	for i, layer := range n.hidden {
		if err := layer.CloneInto(dst.hidden[i]); err != nil {
			return dependency(fmt.Sprintf("hidden layer %d", i), err)
		}
	}
	if err := n.outputLayer.CloneInto(dst.outputLayer); err != nil {
		return dependency("output layer", err)
	}
	return nil
}

// Clone returns a new network with n's topology and weights.
func (n *Network) Clone(rng *rand.Rand) (*Network, error) {
	if n == nil {
		return nil, invalidf("nil network")
	}
	dst, err := NewNetwork(rng, n.topology)
	if err != nil {
		return nil, err
	}
	if err := n.CloneInto(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// Mutate rolls p in [1,100]. When p <= massivePercent every layer mutates all
// of its units; otherwise one layer, chosen uniformly among the hidden layers
// and the output layer, mutates a single unit.
func (n *Network) Mutate(rng *rand.Rand, massivePercent int) error {
	if n == nil {
		return invalidf("nil network")
	}
	if rng == nil {
		return ErrNilRandom
	}
	if massivePercent < 0 || massivePercent > 100 {
		return invalidf("massive mutation percent must be in [0,100], got %d", massivePercent)
	}

	if rng.Intn(100)+1 <= massivePercent {
		for i, layer := range n.hidden {
			if err := layer.Mutate(rng, true); err != nil {
				return dependency(fmt.Sprintf("hidden layer %d", i), err)
			}
		}
		if err := n.outputLayer.Mutate(rng, true); err != nil {
			return dependency("output layer", err)
		}
		return nil
	}

	pick := rng.Intn(len(n.hidden) + 1)
	if pick == len(n.hidden) {
		if err := n.outputLayer.Mutate(rng, false); err != nil {
			return dependency("output layer", err)
		}
		return nil
	}
	if err := n.hidden[pick].Mutate(rng, false); err != nil {
		return dependency(fmt.Sprintf("hidden layer %d", pick), err)
	}
	return nil
}
