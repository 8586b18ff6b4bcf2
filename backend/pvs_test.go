package main

import (
	"testing"
	"time"
)

func TestOpeningMoveIsCenter(t *testing.T) {
	engine := NewPVSEngine()
	state := NewGameState()
	decision, err := engine.Search(state, DefaultWeights(), SearchConfig{MaxDepth: 2, TimeLimitMs: 1000})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if decision.Move.StoneCount() != 1 {
		t.Fatalf("opening move places one stone, got %v", decision.Move)
	}
	if decision.Move.Positions[0] != (Pos{X: 9, Y: 9}) {
		t.Fatalf("opening stone must be the center, got %v", decision.Move)
	}
	if decision.Move.Player != PlayerBlack {
		t.Fatalf("black opens")
	}
}

func TestSearchFindsImmediateWin(t *testing.T) {
	engine := NewPVSEngine()
	state := NewGameState()
	for y := 9; y <= 13; y++ {
		state.Board.Set(9, y, CellBlack)
	}
	state.ToMove = PlayerBlack
	state.MoveNumber = 6
	state.Hash = ComputeHash(state)

	decision, err := engine.Search(state, DefaultWeights(), SearchConfig{MaxDepth: 3, TimeLimitMs: 2000})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !decision.Move.Contains(Pos{X: 9, Y: 14}) && !decision.Move.Contains(Pos{X: 9, Y: 8}) {
		t.Fatalf("winning move must occupy a mate cell, got %v", decision.Move)
	}
	if decision.Score < 999000 {
		t.Fatalf("winning score too low: %f", decision.Score)
	}
	if decision.Meta.Mode != ModeVcdtRoot {
		t.Fatalf("immediate win should resolve at the root, mode=%s", decision.Meta.Mode)
	}
}

func TestSearchBlocksOpponentMate(t *testing.T) {
	engine := NewPVSEngine()
	state := NewGameState()
	for y := 9; y <= 13; y++ {
		state.Board.Set(9, y, CellWhite)
	}
	state.ToMove = PlayerBlack
	state.MoveNumber = 6
	state.Hash = ComputeHash(state)

	decision, err := engine.Search(state, DefaultWeights(), SearchConfig{MaxDepth: 3, TimeLimitMs: 2000})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !decision.Move.Contains(Pos{X: 9, Y: 14}) || !decision.Move.Contains(Pos{X: 9, Y: 8}) {
		t.Fatalf("both completing cells must be taken, got %v", decision.Move)
	}
	next := MustApply(state, decision.Move)
	if len(SinglePointWins(DetectThreats(next, PlayerWhite))) != 0 {
		t.Fatalf("successor still reports a white mate point")
	}
}

func TestSearchPlaysTwoStoneWin(t *testing.T) {
	engine := NewPVSEngine()
	state := NewGameState()
	for y := 3; y <= 6; y++ {
		state.Board.Set(3, y, CellBlack)
	}
	state.ToMove = PlayerBlack
	state.MoveNumber = 6
	state.Hash = ComputeHash(state)

	decision, err := engine.Search(state, DefaultWeights(), SearchConfig{MaxDepth: 3, TimeLimitMs: 2000})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !decision.Move.Contains(Pos{X: 3, Y: 2}) || !decision.Move.Contains(Pos{X: 3, Y: 7}) {
		t.Fatalf("expected exactly {(3,2),(3,7)}, got %v", decision.Move)
	}
	next := MustApply(state, decision.Move)
	winner, ok := next.Winner()
	if !ok || winner != PlayerBlack {
		t.Fatalf("applying the pair must win for black, status=%v", next.Status)
	}
}

// An uncapped open four spawns three overlapping winning windows with no
// shared cell; the defense must cover all of them, not just the first.
func TestSearchDefendsMultiWindowLiveFour(t *testing.T) {
	engine := NewPVSEngine()
	state := NewGameState()
	for y := 3; y <= 6; y++ {
		state.Board.Set(3, y, CellWhite)
	}
	state.ToMove = PlayerBlack
	state.MoveNumber = 6
	state.Hash = ComputeHash(state)

	oppPairs := TwoStoneWinPairs(DetectThreats(state, PlayerWhite))
	if len(oppPairs) < 3 {
		t.Fatalf("fixture should produce three winning windows, got %v", oppPairs)
	}

	decision, err := engine.Search(state, DefaultWeights(), SearchConfig{MaxDepth: 3, TimeLimitMs: 2000})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if decision.Meta.Mode != ModeVcdtRoot {
		t.Fatalf("defense must resolve at the root, mode=%s", decision.Meta.Mode)
	}
	if !decision.Move.Contains(Pos{X: 3, Y: 2}) || !decision.Move.Contains(Pos{X: 3, Y: 7}) {
		t.Fatalf("expected the covering cells {(3,2),(3,7)}, got %v", decision.Move)
	}
	next := MustApply(state, decision.Move)
	for _, threat := range DetectThreats(next, PlayerWhite) {
		if threat.IsWinning {
			t.Fatalf("defense left a winning white threat: %+v", threat)
		}
	}
}

func TestSearchHonorsDeadline(t *testing.T) {
	engine := NewPVSEngine()
	state := NewGameState()
	state = MustApply(state, NewSingleMove(PlayerBlack, Pos{X: 9, Y: 9}))
	state = MustApply(state, NewPairMove(PlayerWhite, Pos{X: 8, Y: 8}, Pos{X: 10, Y: 10}))
	state = MustApply(state, NewPairMove(PlayerBlack, Pos{X: 9, Y: 10}, Pos{X: 9, Y: 8}))

	start := time.Now()
	decision, err := engine.Search(state, DefaultWeights(), SearchConfig{MaxDepth: 6, TimeLimitMs: 400})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if decision.Move.StoneCount() != 2 {
		t.Fatalf("expected a pair move, got %v", decision.Move)
	}
	if elapsed > 5*time.Second {
		t.Fatalf("deadline ignored: took %v", elapsed)
	}
}

func TestSearchOnTerminalStateFails(t *testing.T) {
	engine := NewPVSEngine()
	state := NewGameState()
	for i := 0; i < 6; i++ {
		state.Board.Set(3+i, 3, CellBlack)
	}
	state.Status, _ = checkWinner(state.Board)
	if _, err := engine.Search(state, DefaultWeights(), SearchConfig{MaxDepth: 2, TimeLimitMs: 100}); err == nil {
		t.Fatalf("terminal state must be rejected")
	}
}

func TestKillerAndHistoryBookkeeping(t *testing.T) {
	engine := NewPVSEngine()
	engine.killers = make([][2]Move, 4)
	engine.killerSlot = make([]int, 4)

	a := NewPairMove(PlayerBlack, Pos{X: 1, Y: 1}, Pos{X: 2, Y: 2})
	b := NewPairMove(PlayerBlack, Pos{X: 3, Y: 3}, Pos{X: 4, Y: 4})
	c := NewPairMove(PlayerBlack, Pos{X: 5, Y: 5}, Pos{X: 6, Y: 6})

	engine.recordKiller(1, a)
	if !engine.isKiller(1, a) {
		t.Fatalf("killer not recorded")
	}
	engine.recordKiller(1, b)
	engine.recordKiller(1, c)
	if engine.isKiller(1, a) {
		t.Fatalf("two rotating slots must have evicted the oldest killer")
	}
	if !engine.isKiller(1, b) || !engine.isKiller(1, c) {
		t.Fatalf("latest two killers must be present")
	}
	// Re-recording an existing killer must not consume a slot.
	engine.recordKiller(1, c)
	if !engine.isKiller(1, b) {
		t.Fatalf("duplicate killer insert evicted a live slot")
	}

	engine.recordHistory(a, 3)
	if engine.history[a.Positions[0].Index()] != 9 {
		t.Fatalf("history bump should be depth squared")
	}
}

func TestNoCandidateFallbackDecision(t *testing.T) {
	engine := NewPVSEngine()
	state := NewGameState()
	// BBBWWW stripes shifted by three per row never align six of a kind;
	// leaving a single empty makes pair enumeration impossible.
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			cell := CellBlack
			if (x+3*y)%6 >= 3 {
				cell = CellWhite
			}
			state.Board.Set(x, y, cell)
		}
	}
	status, _ := checkWinner(state.Board)
	if status != StatusRunning && status != StatusDraw {
		t.Fatalf("stripe fixture unexpectedly has a winner")
	}
	state.Board.Set(0, 0, CellEmpty)
	state.ToMove = PlayerBlack
	state.MoveNumber = 100
	state.Hash = ComputeHash(state)

	decision, err := engine.Search(state, DefaultWeights(), SearchConfig{MaxDepth: 2, TimeLimitMs: 500})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if decision.Meta.Mode != ModeNoCandidateFallback {
		t.Fatalf("expected fallback mode, got %s", decision.Meta.Mode)
	}
	if !decision.Move.Contains(Pos{X: 0, Y: 0}) {
		t.Fatalf("fallback must use the remaining empty cell, got %v", decision.Move)
	}
}
