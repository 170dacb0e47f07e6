package scape

import (
	"context"

	"trex/internal/nn"
)

type XORScape struct{}

type xorCase struct {
	in   []nn.Signal
	want nn.Signal
}

var xorCases = []xorCase{
	{in: []nn.Signal{nn.Zero, nn.Zero}, want: nn.Zero},
	{in: []nn.Signal{nn.Zero, nn.One}, want: nn.One},
	{in: []nn.Signal{nn.One, nn.Zero}, want: nn.One},
	{in: []nn.Signal{nn.One, nn.One}, want: nn.Zero},
}

func (XORScape) Name() string {
	return "xor"
}

func (XORScape) Topology() nn.Topology {
	return nn.Topology{Inputs: 2, HiddenLayers: 1, Outputs: 1}
}

// Evaluate scores one point per correctly predicted truth table row.
func (s XORScape) Evaluate(ctx context.Context, net *nn.Network) (Fitness, Trace, error) {
	if err := checkTopology(s, net); err != nil {
		return 0, nil, err
	}

	correct := 0
	predictions := make([]int, 0, len(xorCases))
	for _, c := range xorCases {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		if err := net.SetInputs(c.in); err != nil {
			return 0, nil, err
		}
		out, err := net.Compute()
		if err != nil {
			return 0, nil, err
		}
		predictions = append(predictions, int(out[0]))
		if out[0] == c.want {
			correct++
		}
	}

	return Fitness(correct), Trace{
		"correct":     correct,
		"cases":       len(xorCases),
		"predictions": predictions,
	}, nil
}

func (XORScape) Solved(fitness Fitness, _ Trace) bool {
	return int(fitness) == len(xorCases)
}
