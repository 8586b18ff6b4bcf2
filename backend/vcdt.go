package main

import (
	"fmt"
	"sort"
	"strings"
)

// VCDT threat levels.
//
//	0: a road holding five friendly stones — the lone empty wins in one stone.
//	1: a road holding four friendly stones and two empties — the pair wins in
//	   one turn. Composed mates (two distinct level-0 points) are emitted at
//	   this level too.
//	2: the 4+2 live-four shape, emitted non-winning to drive defense.
type VCDTThreat struct {
	Positions   []Pos `json:"positions"`
	IsWinning   bool  `json:"is_winning"`
	ThreatLevel int   `json:"threat_level"`
}

// DetectThreats enumerates all VCDT threats for player, deduplicated by
// threat level and the unordered set of empty cells.
func DetectThreats(state GameState, player PlayerColor) []VCDTThreat {
	threats := []VCDTThreat{}
	seen := map[string]struct{}{}
	add := func(t VCDTThreat) {
		key := threatKey(t.ThreatLevel, t.Positions)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		threats = append(threats, t)
	}

	singles := []Pos{}
	for _, road := range Roads().All() {
		counts := countRoad(state.Board, road)
		mine, theirs := counts.forPlayer(player)
		if theirs != 0 {
			continue
		}
		if mine == 5 {
			empty := roadEmpties(state.Board, road)
			if len(empty) == 1 {
				add(VCDTThreat{Positions: empty, IsWinning: true, ThreatLevel: 0})
				singles = append(singles, empty[0])
			}
			continue
		}
		if mine == 4 && counts.empties == 2 {
			empty := roadEmpties(state.Board, road)
			add(VCDTThreat{Positions: empty, IsWinning: true, ThreatLevel: 1})
			add(VCDTThreat{Positions: append([]Pos(nil), empty...), IsWinning: false, ThreatLevel: 2})
		}
	}

	// Composed two-point mates: any pair of distinct single-point wins
	// placed together in one turn connects six somewhere.
	singles = dedupPositions(singles)
	for i := 0; i < len(singles); i++ {
		for j := i + 1; j < len(singles); j++ {
			add(VCDTThreat{Positions: []Pos{singles[i], singles[j]}, IsWinning: true, ThreatLevel: 1})
		}
	}
	return threats
}

func roadEmpties(board Board, road Road) []Pos {
	empty := []Pos{}
	for _, cell := range road.Cells {
		if board.AtPos(cell) == CellEmpty {
			empty = append(empty, cell)
		}
	}
	return empty
}

func dedupPositions(positions []Pos) []Pos {
	seen := map[Pos]struct{}{}
	out := positions[:0]
	for _, p := range positions {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func threatKey(level int, positions []Pos) string {
	idx := make([]int, 0, len(positions))
	for _, p := range positions {
		idx = append(idx, p.Index())
	}
	sort.Ints(idx)
	parts := make([]string, 0, len(idx))
	for _, i := range idx {
		parts = append(parts, fmt.Sprintf("%d", i))
	}
	return fmt.Sprintf("%d:%s", level, strings.Join(parts, ","))
}

// SinglePointWins returns the level-0 mate cells for player.
func SinglePointWins(threats []VCDTThreat) []Pos {
	points := []Pos{}
	for _, t := range threats {
		if t.ThreatLevel == 0 && t.IsWinning {
			points = append(points, t.Positions...)
		}
	}
	return dedupPositions(points)
}

// TwoStoneWinPairs returns the level-1 winning pairs for player.
func TwoStoneWinPairs(threats []VCDTThreat) [][2]Pos {
	pairs := [][2]Pos{}
	for _, t := range threats {
		if t.ThreatLevel == 1 && t.IsWinning && len(t.Positions) == 2 {
			pairs = append(pairs, [2]Pos{t.Positions[0], t.Positions[1]})
		}
	}
	return pairs
}

// LiveFours returns the level-2 threats for player.
func LiveFours(threats []VCDTThreat) []VCDTThreat {
	fours := []VCDTThreat{}
	for _, t := range threats {
		if t.ThreatLevel == 2 {
			fours = append(fours, t)
		}
	}
	return fours
}

// HasImmediateWin reports whether player can connect six this turn: either
// a single-point mate, or (with two stones to spend) a two-stone win.
func HasImmediateWin(threats []VCDTThreat, stones int) bool {
	for _, t := range threats {
		if !t.IsWinning {
			continue
		}
		if t.ThreatLevel == 0 || (t.ThreatLevel == 1 && stones >= 2) {
			return true
		}
	}
	return false
}
