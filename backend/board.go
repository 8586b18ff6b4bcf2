package main

import (
	"fmt"
	"strings"
)

const BoardSize = 19

type Cell int

const (
	CellEmpty Cell = iota
	CellBlack
	CellWhite
)

type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Pos) InBounds() bool {
	return p.X >= 0 && p.Y >= 0 && p.X < BoardSize && p.Y < BoardSize
}

func (p Pos) Index() int {
	return p.Y*BoardSize + p.X
}

func manhattan(a, b Pos) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

func chebyshev(a, b Pos) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

func boardCenter() Pos {
	return Pos{X: BoardSize / 2, Y: BoardSize / 2}
}

type Board struct {
	cells []Cell
}

func NewBoard() Board {
	return Board{cells: make([]Cell, BoardSize*BoardSize)}
}

func (b Board) At(x, y int) Cell {
	return b.cells[y*BoardSize+x]
}

func (b Board) AtPos(p Pos) Cell {
	return b.cells[p.Index()]
}

func (b *Board) Set(x, y int, value Cell) {
	b.cells[y*BoardSize+x] = value
}

func (b Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < BoardSize && y < BoardSize
}

func (b Board) IsEmpty(x, y int) bool {
	return b.InBounds(x, y) && b.At(x, y) == CellEmpty
}

func (b Board) CountEmpty() int {
	count := 0
	for _, cell := range b.cells {
		if cell == CellEmpty {
			count++
		}
	}
	return count
}

func (b Board) CountStones() int {
	return len(b.cells) - b.CountEmpty()
}

func (b Board) Clone() Board {
	clone := Board{cells: make([]Cell, len(b.cells))}
	copy(clone.cells, b.cells)
	return clone
}

// Serialize concatenates rows into the canonical string form used for
// hashing and fixtures: '.' empty, 'X' black, 'O' white.
func (b Board) Serialize() string {
	var sb strings.Builder
	sb.Grow(len(b.cells))
	for _, cell := range b.cells {
		switch cell {
		case CellBlack:
			sb.WriteByte('X')
		case CellWhite:
			sb.WriteByte('O')
		default:
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

func (c Cell) String() string {
	switch c {
	case CellBlack:
		return "Black"
	case CellWhite:
		return "White"
	default:
		return "Empty"
	}
}

func CellFromPlayer(player PlayerColor) Cell {
	if player == PlayerBlack {
		return CellBlack
	}
	return CellWhite
}

func PlayerFromCell(cell Cell) (PlayerColor, error) {
	switch cell {
	case CellBlack:
		return PlayerBlack, nil
	case CellWhite:
		return PlayerWhite, nil
	default:
		return PlayerBlack, fmt.Errorf("empty cell has no player")
	}
}
