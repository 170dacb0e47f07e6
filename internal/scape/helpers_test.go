package scape

import (
	"math/rand"
	"testing"

	"trex/internal/genotype"
	"trex/internal/nn"
)

func newNetwork(t *testing.T, topo nn.Topology) *nn.Network {
	t.Helper()
	net, err := nn.NewNetwork(rand.New(rand.NewSource(1)), topo)
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	return net
}

func fillUnit(t *testing.T, layer *nn.Layer, unit int, g genotype.Gene) {
	t.Helper()
	u, err := layer.Unit(unit)
	if err != nil {
		t.Fatalf("unit %d: %v", unit, err)
	}
	for i := 0; i < u.NumInputs(); i++ {
		if err := u.SetWeight(i, g); err != nil {
			t.Fatalf("set weight: %v", err)
		}
	}
}

// passThroughNetwork makes every hidden unit fire whenever any input is One
// and turns on exactly the listed output units.
func passThroughNetwork(t *testing.T, topo nn.Topology, onOutputs ...int) *nn.Network {
	t.Helper()
	net := newNetwork(t, topo)
	for i := 0; i < net.NumHiddenLayers(); i++ {
		layer, err := net.HiddenLayer(i)
		if err != nil {
			t.Fatalf("hidden layer: %v", err)
		}
		for u := 0; u < layer.NumUnits(); u++ {
			fillUnit(t, layer, u, genotype.Positive)
		}
	}
	on := make(map[int]bool, len(onOutputs))
	for _, o := range onOutputs {
		on[o] = true
	}
	out := net.OutputLayer()
	for u := 0; u < out.NumUnits(); u++ {
		g := genotype.Negative
		if on[u] {
			g = genotype.Positive
		}
		fillUnit(t, out, u, g)
	}
	return net
}
