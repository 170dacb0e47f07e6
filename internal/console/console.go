// Package console renders networks as plain text using only their read-only
// accessors.
package console

import (
	"fmt"
	"io"
	"strings"

	"trex/internal/genotype"
	"trex/internal/nn"
)

// FormatNetwork returns the text WriteNetwork would produce.
func FormatNetwork(net *nn.Network) (string, error) {
	var b strings.Builder
	if err := WriteNetwork(&b, net); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WriteNetwork prints the input vector, every layer's weights and the last
// computed output.
func WriteNetwork(w io.Writer, net *nn.Network) error {
	if net == nil {
		return fmt.Errorf("%w: network is required", nn.ErrInvalidArgument)
	}
	var b strings.Builder
	b.WriteString("\n----- NEURAL NETWORK -----\n\n")
	fmt.Fprintf(&b, "Input Layer: %s\n", joinSignals(net.Inputs()))
	for i := 0; i < net.NumHiddenLayers(); i++ {
		layer, err := net.HiddenLayer(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "Hidden Layer %d: %s\n", i, formatLayer(layer))
	}
	fmt.Fprintf(&b, "Output Layer: %s\n", formatLayer(net.OutputLayer()))
	fmt.Fprintf(&b, "Neural Network Output: %s\n\n", joinSignals(net.Output()))

	_, err := io.WriteString(w, b.String())
	return err
}

func joinSignals(signals []nn.Signal) string {
	parts := make([]string, len(signals))
	for i, s := range signals {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

func formatLayer(layer *nn.Layer) string {
	parts := make([]string, 0, layer.NumUnits())
	for i := 0; i < layer.NumUnits(); i++ {
		u, err := layer.Unit(i)
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("N%d: %s", i, formatWeights(u.Weights())))
	}
	return strings.Join(parts, ", ")
}

// formatWeights prints genes as "| 1 |-1 |" cells of equal width.
func formatWeights(genes []genotype.Gene) string {
	var b strings.Builder
	b.WriteByte('|')
	for _, g := range genes {
		if g == genotype.Negative {
			b.WriteString("-1 |")
		} else {
			b.WriteString(" 1 |")
		}
	}
	return b.String()
}
