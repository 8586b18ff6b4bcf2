package main

import (
	"fmt"
	"sort"
	"strings"
)

// Move places one stone on Black's opening ply and two stones afterwards.
type Move struct {
	Player    PlayerColor `json:"player"`
	Positions []Pos       `json:"positions"`
}

func NewSingleMove(player PlayerColor, p Pos) Move {
	return Move{Player: player, Positions: []Pos{p}}
}

func NewPairMove(player PlayerColor, a, b Pos) Move {
	return Move{Player: player, Positions: []Pos{a, b}}
}

func (m Move) StoneCount() int {
	return len(m.Positions)
}

func (m Move) Contains(p Pos) bool {
	for _, pos := range m.Positions {
		if pos == p {
			return true
		}
	}
	return false
}

// Key is order-independent so that {a,b} and {b,a} collapse to one move.
func (m Move) Key() string {
	positions := append([]Pos(nil), m.Positions...)
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Index() < positions[j].Index()
	})
	parts := make([]string, 0, len(positions))
	for _, p := range positions {
		parts = append(parts, fmt.Sprintf("%d,%d", p.X, p.Y))
	}
	return strings.Join(parts, ";")
}

func (m Move) String() string {
	return fmt.Sprintf("%s[%s]", playerColorName(m.Player), m.Key())
}
