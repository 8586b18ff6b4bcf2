package main

// BuildSmartDefense answers an opponent live-four with as few stones as
// possible: if blocking one end alone kills every immediate opponent win,
// spend the second stone on the best RZOP candidate instead of the other
// end. Only when neither end is safe on its own are both blocked.
func BuildSmartDefense(state GameState, player PlayerColor, threat VCDTThreat) Move {
	if len(threat.Positions) != 2 {
		// Not a live-four shape; fall back to occupying what we were given.
		if len(threat.Positions) == 1 {
			return padToPair(state, player, threat.Positions[0])
		}
		return fallbackMove(state, player)
	}
	e1, e2 := threat.Positions[0], threat.Positions[1]

	safe := []Pos{}
	for _, e := range []Pos{e1, e2} {
		if singleBlockIsSafe(state, player, e) {
			safe = append(safe, e)
		}
	}
	if len(safe) > 0 {
		best := safe[0]
		center := boardCenter()
		for _, e := range safe[1:] {
			if manhattan(e, center) < manhattan(best, center) {
				best = e
			}
		}
		// The urgent-block ordering puts the other end first among the
		// candidates, so skip both ends when picking the free stone.
		for _, p := range CollectCandidates(state, player) {
			if p != e1 && p != e2 && state.Board.IsEmpty(p.X, p.Y) {
				return NewPairMove(player, best, p)
			}
		}
		return padToPair(state, player, best)
	}
	return NewPairMove(player, e1, e2)
}

// singleBlockIsSafe simulates one stone at e and checks that no opponent
// immediate win (threat level 0 or 1) survives.
func singleBlockIsSafe(state GameState, player PlayerColor, e Pos) bool {
	if !state.Board.IsEmpty(e.X, e.Y) {
		return false
	}
	probe := state.Clone()
	probe.Board.Set(e.X, e.Y, CellFromPlayer(player))
	probe.Hash = ComputeHash(probe)
	threats := DetectThreats(probe, otherPlayer(player))
	for _, t := range threats {
		if t.IsWinning {
			return false
		}
	}
	return true
}

// fallbackMove is the no-candidate escape hatch: the first empty cells in
// scan order, enough to satisfy the stone quota.
func fallbackMove(state GameState, player PlayerColor) Move {
	want := StonesToPlace(state.MoveNumber)
	positions := []Pos{}
	for y := 0; y < BoardSize && len(positions) < want; y++ {
		for x := 0; x < BoardSize && len(positions) < want; x++ {
			if state.Board.IsEmpty(x, y) {
				positions = append(positions, Pos{X: x, Y: y})
			}
		}
	}
	return Move{Player: player, Positions: positions}
}
