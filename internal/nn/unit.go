package nn

import (
	"math/rand"

	"trex/internal/genotype"
)

const MinUnitInputs = 2

// Unit is a threshold perceptron: its output is One iff the dot product of
// its inputs and its two-valued weights is strictly positive.
type Unit struct {
	weights *genotype.Genome
	inputs  []Signal
}

// NewUnit returns a unit with randomized weights and all inputs at Zero.
func NewUnit(rng *rand.Rand, numberOfInputs int) (*Unit, error) {
	if rng == nil {
		return nil, ErrNilRandom
	}
	if numberOfInputs < MinUnitInputs {
		return nil, invalidf("unit requires at least %d inputs, got %d", MinUnitInputs, numberOfInputs)
	}
	weights, err := genotype.New(rng, numberOfInputs)
	if err != nil {
		return nil, dependency("unit genome", err)
	}
	return &Unit{
		weights: weights,
		inputs:  make([]Signal, numberOfInputs),
	}, nil
}

func (u *Unit) NumInputs() int {
	return len(u.inputs)
}

func (u *Unit) SetInput(i int, s Signal) error {
	if u == nil {
		return invalidf("nil unit")
	}
	if i < 0 || i >= len(u.inputs) {
		return invalidf("unit input index %d out of range [0,%d)", i, len(u.inputs))
	}
	if !s.Valid() {
		return invalidf("illegal signal %d", s)
	}
	u.inputs[i] = s
	return nil
}

func (u *Unit) Input(i int) (Signal, error) {
	if i < 0 || i >= len(u.inputs) {
		return Zero, invalidf("unit input index %d out of range [0,%d)", i, len(u.inputs))
	}
	return u.inputs[i], nil
}

func (u *Unit) Weight(i int) (genotype.Gene, error) {
	g, err := u.weights.Gene(i)
	if err != nil {
		return 0, dependency("unit weight", err)
	}
	return g, nil
}

func (u *Unit) SetWeight(i int, g genotype.Gene) error {
	if u == nil {
		return invalidf("nil unit")
	}
	if err := u.weights.SetGene(i, g); err != nil {
		return dependency("unit weight", err)
	}
	return nil
}

// Weights returns a copy of the unit's weights.
func (u *Unit) Weights() []genotype.Gene {
	return u.weights.Genes()
}

// Output evaluates the unit against its current inputs. A sum of exactly zero
// yields Zero.
func (u *Unit) Output() Signal {
	sum := 0
	for i, in := range u.inputs {
		if in == One {
			sum += int(u.weights.At(i))
		}
	}
	if sum > 0 {
		return One
	}
	return Zero
}

// CloneInto copies u's weights into dst. Inputs are not copied.
func (u *Unit) CloneInto(dst *Unit) error {
	if u == nil || dst == nil {
		return invalidf("source and destination units are required")
	}
	if dst.NumInputs() != u.NumInputs() {
		return mismatchf("unit inputs: src=%d dst=%d", u.NumInputs(), dst.NumInputs())
	}
	if err := dst.weights.CopyFrom(u.weights); err != nil {
		return dependency("unit clone", err)
	}
	return nil
}

func (u *Unit) Mutate(rng *rand.Rand) error {
	if u == nil {
		return invalidf("nil unit")
	}
	if rng == nil {
		return ErrNilRandom
	}
	if err := u.weights.Mutate(rng); err != nil {
		return dependency("unit mutate", err)
	}
	return nil
}
