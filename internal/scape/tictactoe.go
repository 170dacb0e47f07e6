package scape

import (
	"context"
	"strings"

	"trex/internal/nn"
)

type mark uint8

const (
	empty mark = iota
	circle
	cross
)

const (
	ResultNone        = ""
	ResultCircleWins  = "circle_wins"
	ResultCrossWins   = "cross_wins"
	ResultDraw        = "draw"
	ResultIllegalMove = "illegal_move"
)

const (
	ticTacToeSquares = 9
	ticTacToeBias    = 2 * ticTacToeSquares
)

var ticTacToeLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// TicTacToeScape plays the network (circles, moving first) against a greedy
// opponent (crosses). Inputs 0-8 flag circle squares, 9-17 flag cross squares
// and input 18 is always One. The network moves on the first square whose
// output is One; several One outputs are an illegal move.
type TicTacToeScape struct{}

func (TicTacToeScape) Name() string {
	return "tictactoe"
}

func (TicTacToeScape) Topology() nn.Topology {
	return nn.Topology{Inputs: 2*ticTacToeSquares + 1, HiddenLayers: 2, Outputs: ticTacToeSquares}
}

// Evaluate plays one game. The fitness is the circle player's score: the
// largest number of circles reached in any line holding no crosses.
func (s TicTacToeScape) Evaluate(ctx context.Context, net *nn.Network) (Fitness, Trace, error) {
	if err := checkTopology(s, net); err != nil {
		return 0, nil, err
	}

	var b ticTacToeBoard
	moves := make([]int, 0, ticTacToeSquares)
	for b.result == ResultNone {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		square, legal, err := networkMove(net, &b)
		if err != nil {
			return 0, nil, err
		}
		if !legal {
			b.result = ResultIllegalMove
			break
		}
		b.place(square, circle)
		if b.result == ResultIllegalMove {
			break
		}
		moves = append(moves, square)
		if b.result != ResultNone {
			break
		}
		moves = append(moves, b.classicMove())
	}

	return Fitness(b.circleScore), Trace{
		"result":       b.result,
		"moves":        moves,
		"circle_score": b.circleScore,
		"cross_score":  b.crossScore,
		"board":        b.String(),
	}, nil
}

func (TicTacToeScape) Solved(_ Fitness, trace Trace) bool {
	result, _ := trace["result"].(string)
	return result == ResultCircleWins || result == ResultDraw
}

func networkMove(net *nn.Network, b *ticTacToeBoard) (int, bool, error) {
	for i, m := range b.squares {
		circleIn, crossIn := nn.Zero, nn.Zero
		switch m {
		case circle:
			circleIn = nn.One
		case cross:
			crossIn = nn.One
		}
		if err := net.SetInput(i, circleIn); err != nil {
			return 0, false, err
		}
		if err := net.SetInput(ticTacToeSquares+i, crossIn); err != nil {
			return 0, false, err
		}
	}
	if err := net.SetInput(ticTacToeBias, nn.One); err != nil {
		return 0, false, err
	}
	out, err := net.Compute()
	if err != nil {
		return 0, false, err
	}

	// No One output falls back to the first square.
	square, selected := 0, 0
	for i, sig := range out {
		if sig == nn.One {
			if selected == 0 {
				square = i
			}
			selected++
		}
	}
	if selected > 1 {
		return 0, false, nil
	}
	return square, true, nil
}

type ticTacToeBoard struct {
	squares     [ticTacToeSquares]mark
	circleScore int
	crossScore  int
	result      string
}

// place puts m on square and updates both scores and the game result.
// Moving onto an occupied square ends the game as illegal.
func (b *ticTacToeBoard) place(square int, m mark) {
	if b.squares[square] != empty {
		b.result = ResultIllegalMove
		return
	}
	b.squares[square] = m

	for _, line := range ticTacToeLines {
		var circles, crosses int
		for _, sq := range line {
			switch b.squares[sq] {
			case circle:
				circles++
			case cross:
				crosses++
			}
		}
		if crosses == 0 && circles > b.circleScore {
			b.circleScore = circles
		}
		if circles == 0 && crosses > b.crossScore {
			b.crossScore = crosses
		}
		if circles == len(line) {
			b.result = ResultCircleWins
		}
		if crosses == len(line) {
			b.result = ResultCrossWins
		}
	}
	// A line completed on the last free square is a win, not a draw, and its
	// score counts.
	if b.result == ResultNone && b.full() {
		b.result = ResultDraw
	}
}

// classicMove tries every free square for crosses and plays the last one
// reaching the highest cross score.
func (b *ticTacToeBoard) classicMove() int {
	best, bestScore := -1, b.crossScore
	var bestBoard ticTacToeBoard
	for sq := 0; sq < ticTacToeSquares; sq++ {
		if b.squares[sq] != empty {
			continue
		}
		trial := *b
		trial.place(sq, cross)
		if trial.crossScore >= bestScore {
			best, bestScore, bestBoard = sq, trial.crossScore, trial
		}
	}
	if best >= 0 {
		*b = bestBoard
	}
	return best
}

func (b *ticTacToeBoard) full() bool {
	for _, m := range b.squares {
		if m == empty {
			return false
		}
	}
	return true
}

func (b *ticTacToeBoard) String() string {
	var sb strings.Builder
	for i, m := range b.squares {
		switch m {
		case circle:
			sb.WriteByte('O')
		case cross:
			sb.WriteByte('X')
		default:
			sb.WriteByte('.')
		}
		if i%3 == 2 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
