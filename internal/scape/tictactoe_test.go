package scape

import (
	"context"
	"testing"
)

func TestTicTacToeBoardWinAndScores(t *testing.T) {
	var b ticTacToeBoard
	b.place(0, circle)
	b.place(3, cross)
	b.place(1, circle)
	if b.circleScore != 2 || b.result != ResultNone {
		t.Fatalf("unexpected state: score=%d result=%q", b.circleScore, b.result)
	}
	b.place(2, circle)
	if b.result != ResultCircleWins || b.circleScore != 3 {
		t.Fatalf("expected circle win with score 3, got result=%q score=%d", b.result, b.circleScore)
	}
}

func TestTicTacToeBoardWinOnLastSquareBeatsDraw(t *testing.T) {
	var b ticTacToeBoard
	// O O .
	// X X O
	// O X X
	for _, sq := range []int{0, 1, 5, 6} {
		b.place(sq, circle)
	}
	for _, sq := range []int{3, 4, 7, 8} {
		b.place(sq, cross)
	}
	if b.result != ResultNone || b.circleScore != 2 {
		t.Fatalf("unexpected state before last move: result=%q score=%d", b.result, b.circleScore)
	}
	b.place(2, circle)
	if b.result != ResultCircleWins {
		t.Fatalf("expected circle win on the last square, got %q", b.result)
	}
	if b.circleScore != 3 {
		t.Fatalf("expected the winning line to score 3, got %d", b.circleScore)
	}
}

func TestTicTacToeBoardOccupiedSquareIsIllegal(t *testing.T) {
	var b ticTacToeBoard
	b.place(4, cross)
	b.place(4, circle)
	if b.result != ResultIllegalMove {
		t.Fatalf("expected illegal move, got %q", b.result)
	}
}

func TestTicTacToeBoardDraw(t *testing.T) {
	var b ticTacToeBoard
	sequence := []struct {
		square int
		m      mark
	}{
		{0, circle}, {1, cross}, {2, circle}, {4, cross}, {3, circle},
		{5, cross}, {7, circle}, {6, cross}, {8, circle},
	}
	for i, step := range sequence {
		b.place(step.square, step.m)
		if i < len(sequence)-1 && b.result != ResultNone {
			t.Fatalf("game ended early at move %d: %q", i, b.result)
		}
	}
	if b.result != ResultDraw {
		t.Fatalf("expected draw, got %q\n%s", b.result, b.String())
	}
}

func TestTicTacToeScoreIsMonotone(t *testing.T) {
	var b ticTacToeBoard
	b.place(0, circle)
	b.place(4, circle)
	if b.circleScore != 2 {
		t.Fatalf("expected score 2, got %d", b.circleScore)
	}
	b.place(8, cross)
	b.place(1, cross)
	b.place(2, cross)
	b.place(3, cross)
	b.place(6, cross)
	if b.circleScore != 2 {
		t.Fatalf("score must not drop after blocking, got %d", b.circleScore)
	}
}

func TestClassicMovePicksLastBestSquare(t *testing.T) {
	var b ticTacToeBoard
	if got := b.classicMove(); got != 8 {
		t.Fatalf("empty board: expected last square 8, got %d", got)
	}

	var c ticTacToeBoard
	c.squares = [ticTacToeSquares]mark{cross, cross, empty, circle, circle, empty, empty, empty, empty}
	c.crossScore, c.circleScore = 2, 2
	if got := c.classicMove(); got != 2 {
		t.Fatalf("expected winning square 2, got %d", got)
	}
	if c.result != ResultCrossWins {
		t.Fatalf("expected cross win, got %q", c.result)
	}
}

func TestTicTacToeScapeRepeatedSquareIsIllegal(t *testing.T) {
	ttt := TicTacToeScape{}
	net := passThroughNetwork(t, ttt.Topology(), 4)
	fitness, trace, err := ttt.Evaluate(context.Background(), net)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if trace["result"] != ResultIllegalMove {
		t.Fatalf("expected illegal move, got %+v", trace)
	}
	if fitness != 1 || ttt.Solved(fitness, trace) {
		t.Fatalf("unexpected fitness %f", fitness)
	}
	moves, _ := trace["moves"].([]int)
	if len(moves) != 2 || moves[0] != 4 || moves[1] != 8 {
		t.Fatalf("unexpected moves: %v", moves)
	}
}

func TestTicTacToeScapeSeveralOutputsIsIllegal(t *testing.T) {
	ttt := TicTacToeScape{}
	net := passThroughNetwork(t, ttt.Topology(), 1, 7)
	fitness, trace, err := ttt.Evaluate(context.Background(), net)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if trace["result"] != ResultIllegalMove || fitness != 0 {
		t.Fatalf("expected illegal first move, got fitness=%f trace=%+v", fitness, trace)
	}
}

func TestTicTacToeScapeNoOutputPlaysFirstSquare(t *testing.T) {
	ttt := TicTacToeScape{}
	net := passThroughNetwork(t, ttt.Topology())
	_, trace, err := ttt.Evaluate(context.Background(), net)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	moves, _ := trace["moves"].([]int)
	if len(moves) == 0 || moves[0] != 0 {
		t.Fatalf("expected first move on square 0, got %v", moves)
	}
}

func TestTicTacToeSolvedOnDrawOrWin(t *testing.T) {
	ttt := TicTacToeScape{}
	for result, want := range map[string]bool{
		ResultCircleWins:  true,
		ResultDraw:        true,
		ResultCrossWins:   false,
		ResultIllegalMove: false,
	} {
		if got := ttt.Solved(0, Trace{"result": result}); got != want {
			t.Fatalf("Solved(%s): got=%t want=%t", result, got, want)
		}
	}
}
