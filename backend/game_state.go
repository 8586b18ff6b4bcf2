package main

import (
	"errors"
	"fmt"
)

type PlayerColor int

type GameStatus int

const (
	PlayerBlack PlayerColor = iota
	PlayerWhite
)

const (
	StatusRunning GameStatus = iota
	StatusBlackWon
	StatusWhiteWon
	StatusDraw
)

var (
	ErrInvalidMove   = errors.New("invalid move")
	ErrTerminalState = errors.New("state is terminal")
)

type GameState struct {
	Board       Board
	ToMove      PlayerColor
	MoveNumber  int
	Status      GameStatus
	HasLastMove bool
	LastMove    Move
	Hash        uint64
	WinningLine []Pos
}

func NewGameState() GameState {
	state := GameState{
		Board:  NewBoard(),
		ToMove: PlayerBlack,
		Status: StatusRunning,
	}
	state.Hash = ComputeHash(state)
	return state
}

func (s GameState) Clone() GameState {
	clone := s
	clone.Board = s.Board.Clone()
	clone.WinningLine = append([]Pos(nil), s.WinningLine...)
	if s.HasLastMove {
		clone.LastMove.Positions = append([]Pos(nil), s.LastMove.Positions...)
	}
	return clone
}

func (s GameState) IsTerminal() bool {
	return s.Status != StatusRunning
}

func (s GameState) Winner() (PlayerColor, bool) {
	switch s.Status {
	case StatusBlackWon:
		return PlayerBlack, true
	case StatusWhiteWon:
		return PlayerWhite, true
	}
	return PlayerBlack, false
}

// StonesToPlace returns the Connect6 stone quota for a ply: Black's opening
// move is a single stone, every later move places two.
func StonesToPlace(moveNumber int) int {
	if moveNumber == 0 {
		return 1
	}
	return 2
}

func otherPlayer(player PlayerColor) PlayerColor {
	if player == PlayerBlack {
		return PlayerWhite
	}
	return PlayerBlack
}

func playerColorName(p PlayerColor) string {
	if p == PlayerWhite {
		return "White"
	}
	return "Black"
}

// ValidateMove checks a move against a state without applying it.
func ValidateMove(state GameState, move Move) error {
	if state.IsTerminal() {
		return ErrTerminalState
	}
	if move.Player != state.ToMove {
		return fmt.Errorf("%w: %s to move", ErrInvalidMove, playerColorName(state.ToMove))
	}
	want := StonesToPlace(state.MoveNumber)
	if move.StoneCount() != want {
		return fmt.Errorf("%w: expected %d stones, got %d", ErrInvalidMove, want, move.StoneCount())
	}
	seen := map[Pos]struct{}{}
	for _, p := range move.Positions {
		if !p.InBounds() {
			return fmt.Errorf("%w: (%d,%d) out of bounds", ErrInvalidMove, p.X, p.Y)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: duplicate position (%d,%d)", ErrInvalidMove, p.X, p.Y)
		}
		seen[p] = struct{}{}
		if state.Board.AtPos(p) != CellEmpty {
			return fmt.Errorf("%w: (%d,%d) occupied", ErrInvalidMove, p.X, p.Y)
		}
	}
	return nil
}

// ApplyMove validates and applies a move, returning the successor state.
// The input state is not mutated.
func ApplyMove(state GameState, move Move) (GameState, error) {
	if err := ValidateMove(state, move); err != nil {
		return GameState{}, err
	}
	next := state.Clone()
	cell := CellFromPlayer(move.Player)
	for _, p := range move.Positions {
		next.Board.Set(p.X, p.Y, cell)
	}
	next.MoveNumber++
	next.ToMove = otherPlayer(move.Player)
	next.HasLastMove = true
	next.LastMove = Move{Player: move.Player, Positions: append([]Pos(nil), move.Positions...)}
	next.Status, next.WinningLine = checkWinner(next.Board)
	next.Hash = ComputeHash(next)
	return next, nil
}

// MustApply is the search-path variant: an illegal move is a programming
// error there, surfaced loudly instead of silently skipped.
func MustApply(state GameState, move Move) GameState {
	next, err := ApplyMove(state, move)
	if err != nil {
		panic(fmt.Sprintf("MustApply: %v", err))
	}
	return next
}
