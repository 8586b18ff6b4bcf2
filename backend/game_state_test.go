package main

import (
	"errors"
	"testing"
)

func TestStonesToPlace(t *testing.T) {
	if got := StonesToPlace(0); got != 1 {
		t.Fatalf("opening move should place 1 stone, got %d", got)
	}
	for _, moveNumber := range []int{1, 2, 7, 100} {
		if got := StonesToPlace(moveNumber); got != 2 {
			t.Fatalf("move %d should place 2 stones, got %d", moveNumber, got)
		}
	}
}

func TestApplyMoveOpeningAndAlternation(t *testing.T) {
	state := NewGameState()
	if state.ToMove != PlayerBlack {
		t.Fatalf("black moves first")
	}

	state, err := ApplyMove(state, NewSingleMove(PlayerBlack, Pos{X: 9, Y: 9}))
	if err != nil {
		t.Fatalf("opening move rejected: %v", err)
	}
	if state.MoveNumber != 1 || state.ToMove != PlayerWhite {
		t.Fatalf("expected move 1 and white to move, got move %d player %v", state.MoveNumber, state.ToMove)
	}

	state, err = ApplyMove(state, NewPairMove(PlayerWhite, Pos{X: 8, Y: 9}, Pos{X: 10, Y: 9}))
	if err != nil {
		t.Fatalf("white pair rejected: %v", err)
	}
	if state.ToMove != PlayerBlack {
		t.Fatalf("turn should flip back to black")
	}
	if state.Board.At(8, 9) != CellWhite || state.Board.At(10, 9) != CellWhite {
		t.Fatalf("white stones not written")
	}
}

func TestApplyMoveRejectsBadInput(t *testing.T) {
	state := NewGameState()
	state = MustApply(state, NewSingleMove(PlayerBlack, Pos{X: 9, Y: 9}))

	cases := []struct {
		name string
		move Move
	}{
		{"wrong player", NewPairMove(PlayerBlack, Pos{X: 0, Y: 0}, Pos{X: 1, Y: 0})},
		{"wrong stone count", NewSingleMove(PlayerWhite, Pos{X: 0, Y: 0})},
		{"out of bounds", NewPairMove(PlayerWhite, Pos{X: -1, Y: 0}, Pos{X: 1, Y: 0})},
		{"duplicate position", NewPairMove(PlayerWhite, Pos{X: 2, Y: 2}, Pos{X: 2, Y: 2})},
		{"occupied cell", NewPairMove(PlayerWhite, Pos{X: 9, Y: 9}, Pos{X: 1, Y: 0})},
	}
	for _, tc := range cases {
		if _, err := ApplyMove(state, tc.move); !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("%s: expected ErrInvalidMove, got %v", tc.name, err)
		}
	}
}

func TestApplyMoveOnTerminalState(t *testing.T) {
	state := NewGameState()
	for i := 0; i < 6; i++ {
		state.Board.Set(3+i, 3, CellBlack)
	}
	state.Status, state.WinningLine = checkWinner(state.Board)
	if state.Status != StatusBlackWon {
		t.Fatalf("expected black win, got %v", state.Status)
	}
	state.ToMove = PlayerWhite
	state.MoveNumber = 5
	if _, err := ApplyMove(state, NewPairMove(PlayerWhite, Pos{X: 0, Y: 0}, Pos{X: 1, Y: 1})); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
}

func TestCheckWinnerDirections(t *testing.T) {
	dirs := [][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
	for _, dir := range dirs {
		board := NewBoard()
		x, y := 6, 9
		for i := 0; i < 6; i++ {
			board.Set(x+dir[0]*i, y+dir[1]*i, CellWhite)
		}
		status, line := checkWinner(board)
		if status != StatusWhiteWon {
			t.Fatalf("direction %v: expected white win, got %v", dir, status)
		}
		if len(line) < 6 {
			t.Fatalf("direction %v: winning line too short: %d", dir, len(line))
		}
	}
}

func TestCheckWinnerNoFalsePositiveOnFive(t *testing.T) {
	board := NewBoard()
	for i := 0; i < 5; i++ {
		board.Set(3+i, 3, CellBlack)
	}
	status, _ := checkWinner(board)
	if status != StatusRunning {
		t.Fatalf("five in a row is not a win, got %v", status)
	}
}

func TestCheckWinnerDraw(t *testing.T) {
	board := NewBoard()
	// Fill with BBBWWW stripes shifted by three per row: runs stay at
	// three across, two on the diagonals and one down, so no six aligns.
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			cell := CellBlack
			if (x+3*y)%6 >= 3 {
				cell = CellWhite
			}
			board.Set(x, y, cell)
		}
	}
	status, _ := checkWinner(board)
	if status != StatusDraw {
		t.Fatalf("full board without six in a row must be a draw, got %v", status)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	state := NewGameState()
	clone := state.Clone()
	clone.Board.Set(0, 0, CellBlack)
	if state.Board.At(0, 0) != CellEmpty {
		t.Fatalf("clone mutation leaked into original")
	}
}
