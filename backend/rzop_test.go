package main

import "testing"

func TestCandidatesOnEmptyBoard(t *testing.T) {
	state := NewGameState()
	candidates := CollectCandidates(state, PlayerBlack)
	if len(candidates) != 5 {
		t.Fatalf("empty board yields center plus orthogonal neighbors, got %v", candidates)
	}
	if candidates[0] != boardCenter() {
		t.Fatalf("center must come first, got %v", candidates[0])
	}
	for _, p := range candidates[1:] {
		if manhattan(p, boardCenter()) != 1 {
			t.Fatalf("expected orthogonal neighbor, got %v", p)
		}
	}
}

func TestCandidatesStayNearStones(t *testing.T) {
	state := NewGameState()
	state.Board.Set(9, 9, CellBlack)
	state.Board.Set(10, 9, CellWhite)
	for _, p := range CollectCandidates(state, PlayerBlack) {
		near := chebyshev(p, Pos{X: 9, Y: 9}) <= relevanceRadius ||
			chebyshev(p, Pos{X: 10, Y: 9}) <= relevanceRadius
		if !near {
			t.Fatalf("candidate %v outside the relevance zone", p)
		}
		if !state.Board.IsEmpty(p.X, p.Y) {
			t.Fatalf("candidate %v is occupied", p)
		}
	}
}

// Urgent block cells must survive every filter.
func TestCandidatesIncludeUrgentBlocks(t *testing.T) {
	state := NewGameState()
	for y := 3; y <= 7; y++ {
		state.Board.Set(6, y, CellWhite)
	}
	state.ToMove = PlayerBlack
	candidates := CollectCandidates(state, PlayerBlack)
	urgent := urgentBlockCells(state, PlayerBlack)
	if len(urgent) == 0 {
		t.Fatalf("five white stones must produce urgent cells")
	}
	candidateSet := map[Pos]bool{}
	for _, p := range candidates {
		candidateSet[p] = true
	}
	for _, p := range urgent {
		if !candidateSet[p] {
			t.Fatalf("urgent cell %v missing from candidates", p)
		}
	}
	// Urgent cells lead the ordering.
	if !candidateSet[candidates[0]] || !containsPos(urgent, candidates[0]) {
		t.Fatalf("first candidate %v should be urgent", candidates[0])
	}
}

func TestPerLineQuotaBoundsQuietCells(t *testing.T) {
	state := NewGameState()
	// A lone run of three stones mid-row produces quiet candidates only.
	state.Board.Set(6, 9, CellBlack)
	state.Board.Set(7, 9, CellBlack)
	state.Board.Set(8, 9, CellBlack)
	candidates := CollectCandidates(state, PlayerBlack)
	urgentSet := map[Pos]bool{}
	for _, p := range urgentBlockCells(state, PlayerBlack) {
		urgentSet[p] = true
	}
	perRow := map[int]int{}
	for _, p := range candidates {
		if urgentSet[p] {
			continue
		}
		perRow[p.Y]++
		if perRow[p.Y] > perLineQuota {
			t.Fatalf("row %d exceeds quota: %v", p.Y, candidates)
		}
	}
}

func TestCandidateFallbackWhenFiltersEatEverything(t *testing.T) {
	state := NewGameState()
	// A single stone: nothing nearby passes the 3-stone road filter, so the
	// generator falls back to the raw relevance zone.
	state.Board.Set(9, 9, CellBlack)
	candidates := CollectCandidates(state, PlayerBlack)
	if len(candidates) == 0 {
		t.Fatalf("fallback must keep the relevance zone")
	}
}

func TestEnumeratePairMovesInvariants(t *testing.T) {
	state := NewGameState()
	state = MustApply(state, NewSingleMove(PlayerBlack, Pos{X: 9, Y: 9}))
	candidates := CollectCandidates(state, PlayerWhite)
	moves := EnumeratePairMoves(state, PlayerWhite, candidates)
	if len(moves) == 0 {
		t.Fatalf("expected pair moves")
	}
	if len(moves) > maxPairMoves {
		t.Fatalf("pair cap exceeded: %d", len(moves))
	}
	seen := map[string]struct{}{}
	for _, move := range moves {
		if move.StoneCount() != 2 {
			t.Fatalf("pair move with %d stones", move.StoneCount())
		}
		if move.Positions[0] == move.Positions[1] {
			t.Fatalf("duplicated cell in %v", move)
		}
		for _, p := range move.Positions {
			if !state.Board.IsEmpty(p.X, p.Y) {
				t.Fatalf("occupied cell in %v", move)
			}
		}
		key := move.Key()
		if _, dup := seen[key]; dup {
			t.Fatalf("unordered pair emitted twice: %v", move)
		}
		seen[key] = struct{}{}
	}
}

func TestEnumeratePairMovesPutsOpponentBlockFirst(t *testing.T) {
	state := NewGameState()
	// White threatens a two-stone win; Black enumeration leads with it.
	for y := 3; y <= 6; y++ {
		state.Board.Set(3, y, CellWhite)
	}
	state.ToMove = PlayerBlack
	state.MoveNumber = 4
	candidates := CollectCandidates(state, PlayerBlack)
	moves := EnumeratePairMoves(state, PlayerBlack, candidates)
	if len(moves) == 0 {
		t.Fatalf("expected moves")
	}
	first := moves[0]
	oppPairs := TwoStoneWinPairs(DetectThreats(state, PlayerWhite))
	matched := false
	for _, pair := range oppPairs {
		if first.Contains(pair[0]) && first.Contains(pair[1]) {
			matched = true
		}
	}
	if !matched {
		t.Fatalf("first move %v is not an opponent block pair", first)
	}
}

func containsPos(list []Pos, p Pos) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}
