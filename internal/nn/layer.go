package nn

import (
	"fmt"
	"math/rand"
)

// Layer is a fixed set of units sharing the same input width.
type Layer struct {
	numInputs int
	units     []*Unit
}

func NewLayer(rng *rand.Rand, numberOfInputs, numberOfNeurons int) (*Layer, error) {
	if rng == nil {
		return nil, ErrNilRandom
	}
	if numberOfInputs < MinUnitInputs {
		return nil, invalidf("layer requires at least %d inputs, got %d", MinUnitInputs, numberOfInputs)
	}
	if numberOfNeurons < 1 {
		return nil, invalidf("layer requires at least 1 neuron, got %d", numberOfNeurons)
	}
	units := make([]*Unit, numberOfNeurons)
	for i := range units {
		u, err := NewUnit(rng, numberOfInputs)
		if err != nil {
			return nil, dependency(fmt.Sprintf("layer unit %d", i), err)
		}
		units[i] = u
	}
	return &Layer{numInputs: numberOfInputs, units: units}, nil
}

func (l *Layer) NumInputs() int {
	return l.numInputs
}

func (l *Layer) NumUnits() int {
	return len(l.units)
}

func (l *Layer) Unit(i int) (*Unit, error) {
	if l == nil {
		return nil, invalidf("nil layer")
	}
	if i < 0 || i >= len(l.units) {
		return nil, invalidf("layer unit index %d out of range [0,%d)", i, len(l.units))
	}
	return l.units[i], nil
}

// Compute feeds input to every unit in index order and writes unit i's output
// to output[i].
func (l *Layer) Compute(input, output []Signal) error {
	if l == nil {
		return invalidf("nil layer")
	}
	if len(input) != l.numInputs {
		return invalidf("layer input width: want %d, got %d", l.numInputs, len(input))
	}
	if len(output) != len(l.units) {
		return invalidf("layer output width: want %d, got %d", len(l.units), len(output))
	}
	for i, u := range l.units {
		for j, s := range input {
			if err := u.SetInput(j, s); err != nil {
				return dependency(fmt.Sprintf("layer unit %d", i), err)
			}
		}
		output[i] = u.Output()
	}
	return nil
}

// CloneInto copies every unit's weights into the matching unit of dst.
func (l *Layer) CloneInto(dst *Layer) error {
	if l == nil || dst == nil {
		return invalidf("source and destination layers are required")
	}
	if dst.NumUnits() != l.NumUnits() || dst.NumInputs() != l.NumInputs() {
		return mismatchf("layer shape: src=%dx%d dst=%dx%d", l.NumUnits(), l.NumInputs(), dst.NumUnits(), dst.NumInputs())
	}
	for i, u := range l.units {
		if err := u.CloneInto(dst.units[i]); err != nil {
			return dependency(fmt.Sprintf("layer unit %d", i), err)
		}
	}
	return nil
}

// Mutate mutates every unit when massive is set, otherwise one unit chosen
// uniformly at random.
func (l *Layer) Mutate(rng *rand.Rand, massive bool) error {
	if l == nil {
		return invalidf("nil layer")
	}
	if rng == nil {
		return ErrNilRandom
	}
	if massive {
		for i, u := range l.units {
			if err := u.Mutate(rng); err != nil {
				return dependency(fmt.Sprintf("layer unit %d", i), err)
			}
		}
		return nil
	}
	i := rng.Intn(len(l.units))
	if err := l.units[i].Mutate(rng); err != nil {
		return dependency(fmt.Sprintf("layer unit %d", i), err)
	}
	return nil
}
