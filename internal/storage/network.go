package storage

import (
	"errors"
	"fmt"
	"math/rand"

	"trex/internal/genotype"
	"trex/internal/model"
	"trex/internal/nn"
)

var ErrMalformedNetwork = errors.New("malformed network record")

// SnapshotNetwork captures the topology and every weight of net.
func SnapshotNetwork(id string, net *nn.Network) (model.NetworkRecord, error) {
	if net == nil {
		return model.NetworkRecord{}, errors.New("network is required")
	}
	topo := net.Topology()
	rec := model.NetworkRecord{
		ID:                   id,
		SchemaVersion:        CurrentSchemaVersion,
		CodecVersion:         CurrentCodecVersion,
		NumberOfInputs:       topo.Inputs,
		NumberOfHiddenLayers: topo.HiddenLayers,
		NumberOfOutputs:      topo.Outputs,
		HiddenLayers:         make([][][]int, 0, topo.HiddenLayers),
	}
	for i := 0; i < topo.HiddenLayers; i++ {
		layer, err := net.HiddenLayer(i)
		if err != nil {
			return model.NetworkRecord{}, err
		}
		rec.HiddenLayers = append(rec.HiddenLayers, layerWeights(layer))
	}
	rec.OutputLayer = layerWeights(net.OutputLayer())
	return rec, nil
}

// RestoreNetwork rebuilds a network with the record's topology and overwrites
// every randomized weight with the stored one.
func RestoreNetwork(rec model.NetworkRecord) (*nn.Network, error) {
	topo := nn.Topology{
		Inputs:       rec.NumberOfInputs,
		HiddenLayers: rec.NumberOfHiddenLayers,
		Outputs:      rec.NumberOfOutputs,
	}
	if len(rec.HiddenLayers) != topo.HiddenLayers {
		return nil, fmt.Errorf("%w: %d hidden layers declared, %d stored", ErrMalformedNetwork, topo.HiddenLayers, len(rec.HiddenLayers))
	}
	net, err := nn.NewNetwork(rand.New(rand.NewSource(0)), topo)
	if err != nil {
		return nil, fmt.Errorf("restore network: %w", err)
	}
	for i, weights := range rec.HiddenLayers {
		layer, err := net.HiddenLayer(i)
		if err != nil {
			return nil, err
		}
		if err := setLayerWeights(layer, weights); err != nil {
			return nil, fmt.Errorf("hidden layer %d: %w", i, err)
		}
	}
	if err := setLayerWeights(net.OutputLayer(), rec.OutputLayer); err != nil {
		return nil, fmt.Errorf("output layer: %w", err)
	}
	return net, nil
}

func layerWeights(layer *nn.Layer) [][]int {
	out := make([][]int, layer.NumUnits())
	for i := range out {
		u, _ := layer.Unit(i)
		genes := u.Weights()
		weights := make([]int, len(genes))
		for j, g := range genes {
			weights[j] = int(g)
		}
		out[i] = weights
	}
	return out
}

func setLayerWeights(layer *nn.Layer, weights [][]int) error {
	if len(weights) != layer.NumUnits() {
		return fmt.Errorf("%w: want %d neurons, got %d", ErrMalformedNetwork, layer.NumUnits(), len(weights))
	}
	for i, unitWeights := range weights {
		u, err := layer.Unit(i)
		if err != nil {
			return err
		}
		if len(unitWeights) != u.NumInputs() {
			return fmt.Errorf("%w: neuron %d wants %d weights, got %d", ErrMalformedNetwork, i, u.NumInputs(), len(unitWeights))
		}
		for j, w := range unitWeights {
			if w != int(genotype.Positive) && w != int(genotype.Negative) {
				return fmt.Errorf("%w: neuron %d weight %d: %w", ErrMalformedNetwork, i, j, genotype.ErrInvalidGene)
			}
			if err := u.SetWeight(j, genotype.Gene(w)); err != nil {
				return fmt.Errorf("neuron %d weight %d: %w", i, j, err)
			}
		}
	}
	return nil
}
