package scape

import (
	"context"
	"strings"

	"trex/internal/nn"
)

const (
	queensBoardSize       = 8
	queensTarget          = 8
	queensStallGeneration = 1000
)

// QueensScape asks a network to place eight non-attacking queens. Every input
// is held at One and output i puts a queen on column i%8, row i/8.
type QueensScape struct{}

func (QueensScape) Name() string {
	return "queens"
}

func (QueensScape) Topology() nn.Topology {
	return nn.Topology{Inputs: queensBoardSize * queensBoardSize, HiddenLayers: 2, Outputs: queensBoardSize * queensBoardSize}
}

func (QueensScape) StallLimit() int {
	return queensStallGeneration
}

type queen struct {
	x, y int
}

// Evaluate scores the number of queens minus the number of ordered queen
// pairs that attack each other.
func (s QueensScape) Evaluate(ctx context.Context, net *nn.Network) (Fitness, Trace, error) {
	if err := checkTopology(s, net); err != nil {
		return 0, nil, err
	}
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	for i := 0; i < s.Topology().Inputs; i++ {
		if err := net.SetInput(i, nn.One); err != nil {
			return 0, nil, err
		}
	}
	out, err := net.Compute()
	if err != nil {
		return 0, nil, err
	}

	queens := make([]queen, 0, queensBoardSize)
	for i, sig := range out {
		if sig == nn.One {
			queens = append(queens, queen{x: i % queensBoardSize, y: i / queensBoardSize})
		}
	}
	threatened := 0
	for i, a := range queens {
		for j, b := range queens {
			if i != j && attacks(a, b) {
				threatened++
			}
		}
	}

	score := len(queens) - threatened
	return Fitness(score), Trace{
		"queens":     len(queens),
		"threatened": threatened,
		"board":      formatQueens(queens),
	}, nil
}

func (QueensScape) Solved(fitness Fitness, _ Trace) bool {
	return int(fitness) == queensTarget
}

func attacks(a, b queen) bool {
	dx, dy := a.x-b.x, a.y-b.y
	return dx == 0 || dy == 0 || dx == dy || dx == -dy
}

func formatQueens(queens []queen) string {
	var grid [queensBoardSize][queensBoardSize]bool
	for _, q := range queens {
		grid[q.y][q.x] = true
	}
	var b strings.Builder
	for y := 0; y < queensBoardSize; y++ {
		for x := 0; x < queensBoardSize; x++ {
			if x > 0 {
				b.WriteByte(' ')
			}
			if grid[y][x] {
				b.WriteByte('Q')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
