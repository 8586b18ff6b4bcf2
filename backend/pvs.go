package main

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	pvsWinScore      = 1000000.0
	winDepthBonus    = 10000.0
	aspirationWindow = 50000.0
	deadlineMarginMs = 100
	killerBoost      = 8000.0
	quiescenceDepth  = 2
	quiescenceCands  = 30
	quiescenceMoves  = 30

	orderMateBonus     = 200000.0
	orderPairMateBonus = 100000.0
	orderFourBonus     = 10000.0
	orderOppMatePen    = 180000.0
	orderOppPairPen    = 90000.0
	orderOppFourPen    = 80000.0
)

// PVSEngine is the principal-variation searcher: iterative deepening with
// aspiration windows over null-window re-searches, a transposition table,
// killer and history ordering, a two-ply quiescence extension, and VCDT
// forcing at the root. One instance owns its tables; keep it across moves
// of the same game, reset it between unrelated positions.
type PVSEngine struct {
	tt          *TranspositionTable
	killers     [][2]Move
	killerSlot  []int
	history     []int64
	weights     EvaluationWeights
	nodes       int64
	deadline    time.Time
	hasDeadline bool
	aborted     bool
}

func NewPVSEngine() *PVSEngine {
	return &PVSEngine{
		tt:      NewTranspositionTable(),
		history: make([]int64, BoardSize*BoardSize),
	}
}

// Reset clears every per-search table, including the transposition table.
// Use it when switching to an unrelated position.
func (e *PVSEngine) Reset() {
	e.tt.Clear()
	e.history = make([]int64, BoardSize*BoardSize)
	e.killers = nil
	e.killerSlot = nil
}

// Search returns the best move for the side to move in state.
func (e *PVSEngine) Search(state GameState, weights EvaluationWeights, config SearchConfig) (Decision, error) {
	if state.IsTerminal() {
		return Decision{}, ErrTerminalState
	}
	if config.MaxDepth < 1 {
		config.MaxDepth = 1
	}
	config = adaptSearchConfig(config, state.MoveNumber)

	e.weights = weights
	e.nodes = 0
	e.aborted = false
	e.killers = make([][2]Move, config.MaxDepth+quiescenceDepth+2)
	e.killerSlot = make([]int, config.MaxDepth+quiescenceDepth+2)
	if config.TimeLimitMs > 0 {
		e.deadline = time.Now().Add(time.Duration(config.TimeLimitMs-deadlineMarginMs) * time.Millisecond)
		e.hasDeadline = true
	} else {
		e.hasDeadline = false
	}

	player := state.ToMove

	// Opening book: Black's single opening stone goes to the center.
	if StonesToPlace(state.MoveNumber) == 1 {
		move := NewSingleMove(player, boardCenter())
		child := MustApply(state, move)
		return Decision{
			Move:  move,
			Score: EvaluateState(child, player, weights),
			Meta:  DecisionMeta{Engine: EnginePVS, Mode: ModeNormal, Depth: 0, Nodes: e.nodes, TTSize: e.tt.Size()},
		}, nil
	}

	if decision, ok := e.rootForcing(state, player); ok {
		return decision, nil
	}

	candidates := CollectCandidates(state, player)
	moves := EnumeratePairMoves(state, player, candidates)
	if len(moves) == 0 {
		move := fallbackMove(state, player)
		if move.StoneCount() == 0 {
			return Decision{}, ErrTerminalState
		}
		return Decision{
			Move:  move,
			Score: 0,
			Meta:  DecisionMeta{Engine: EnginePVS, Mode: ModeNoCandidateFallback, Nodes: e.nodes, TTSize: e.tt.Size()},
		}, nil
	}

	return e.iterativeDeepening(state, player, moves, config), nil
}

// rootForcing resolves the position by threats alone when possible:
// own mates first, then mandatory defense against opponent mates and
// live-fours.
func (e *PVSEngine) rootForcing(state GameState, player PlayerColor) (Decision, bool) {
	forced := func(move Move, score float64) (Decision, bool) {
		return Decision{
			Move:  move,
			Score: score,
			Meta:  DecisionMeta{Engine: EnginePVS, Mode: ModeVcdtRoot, Nodes: e.nodes, TTSize: e.tt.Size()},
		}, true
	}

	myThreats := DetectThreats(state, player)
	if singles := SinglePointWins(myThreats); len(singles) > 0 {
		return forced(padToPair(state, player, singles[0]), pvsWinScore)
	}
	if pairs := TwoStoneWinPairs(myThreats); len(pairs) > 0 {
		pair := pickTightWinPair(state, player, pairs)
		return forced(NewPairMove(player, pair[0], pair[1]), pvsWinScore)
	}

	oppThreats := DetectThreats(state, otherPlayer(player))
	if oppPairs := TwoStoneWinPairs(oppThreats); len(oppPairs) > 0 {
		if len(oppPairs) == 1 {
			// A lone live-four window may fall to a single end plus a free
			// stone; a composed pair of mate points needs both cells.
			if fours := LiveFours(oppThreats); len(fours) == 1 {
				move := BuildSmartDefense(state, player, fours[0])
				return forced(move, e.evalAfter(state, move))
			}
			move := NewPairMove(player, oppPairs[0][0], oppPairs[0][1])
			return forced(move, e.evalAfter(state, move))
		}
		// A cell shared by every pair kills them all with one stone.
		if common, ok := commonPairCell(oppPairs); ok {
			move := padToPair(state, player, common)
			return forced(move, e.evalAfter(state, move))
		}
		// Several windows with no shared cell: defending any single window
		// leaves the others open, so spend both stones on the two cells
		// covering the most pairs.
		a, b := topCoverageCells(oppPairs)
		move := NewPairMove(player, a, b)
		return forced(move, e.evalAfter(state, move))
	}
	// No pairs implies no live-fours either; only a lone mate point can
	// remain.
	if oppSingles := SinglePointWins(oppThreats); len(oppSingles) > 0 {
		move := padToPair(state, player, oppSingles[0])
		return forced(move, e.evalAfter(state, move))
	}
	return Decision{}, false
}

func (e *PVSEngine) evalAfter(state GameState, move Move) float64 {
	child, err := ApplyMove(state, move)
	if err != nil {
		return 0
	}
	return EvaluateState(child, move.Player, e.weights)
}

// pickTightWinPair prefers the winning pair whose cells both touch own
// stones along a line: for a four in a row that is the pair capping both
// ends, not a window sliding past one of them.
func pickTightWinPair(state GameState, player PlayerColor, pairs [][2]Pos) [2]Pos {
	cell := CellFromPlayer(player)
	best := pairs[0]
	bestTouch := -1
	for _, pair := range pairs {
		touch := 0
		for _, p := range pair {
			if touchesOwnStone(state.Board, p, cell) {
				touch++
			}
		}
		if touch > bestTouch {
			best = pair
			bestTouch = touch
		}
	}
	return best
}

func touchesOwnStone(board Board, p Pos, cell Cell) bool {
	for _, dir := range lineDirections {
		for _, sign := range []int{1, -1} {
			x, y := p.X+dir[0]*sign, p.Y+dir[1]*sign
			if board.InBounds(x, y) && board.At(x, y) == cell {
				return true
			}
		}
	}
	return false
}

// commonPairCell finds a cell present in every opponent two-stone-win pair.
func commonPairCell(pairs [][2]Pos) (Pos, bool) {
	counts := map[Pos]int{}
	for _, pair := range pairs {
		counts[pair[0]]++
		counts[pair[1]]++
	}
	best := Pos{}
	found := false
	for cell, n := range counts {
		if n == len(pairs) {
			if !found || cell.Index() < best.Index() {
				best = cell
				found = true
			}
		}
	}
	return best, found
}

// topCoverageCells picks the two cells covering the most pairs.
func topCoverageCells(pairs [][2]Pos) (Pos, Pos) {
	counts := map[Pos]int{}
	for _, pair := range pairs {
		counts[pair[0]]++
		counts[pair[1]]++
	}
	cells := make([]Pos, 0, len(counts))
	for cell := range counts {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool {
		if counts[cells[i]] != counts[cells[j]] {
			return counts[cells[i]] > counts[cells[j]]
		}
		return cells[i].Index() < cells[j].Index()
	})
	return cells[0], cells[1]
}

func (e *PVSEngine) iterativeDeepening(state GameState, player PlayerColor, moves []Move, config SearchConfig) Decision {
	start := time.Now()
	bestMove := moves[0]
	bestScore := math.Inf(-1)
	completedDepth := 0
	haveScore := false
	prevScore := 0.0

	for depth := 1; depth <= config.MaxDepth; depth++ {
		if e.timedOut() {
			break
		}
		ordered := e.orderRootMoves(state, moves)

		alpha := math.Inf(-1)
		beta := math.Inf(1)
		if depth >= 2 && haveScore {
			alpha = prevScore - aspirationWindow
			beta = prevScore + aspirationWindow
		}
		score, move, completed := e.searchRoot(state, ordered, depth, alpha, beta)
		if completed && !math.IsInf(alpha, -1) && (score <= alpha || score >= beta) {
			// Aspiration failed: redo the whole iteration wide open.
			score, move, completed = e.searchRoot(state, ordered, depth, math.Inf(-1), math.Inf(1))
		}
		if !completed {
			break
		}
		bestMove = move
		bestScore = score
		prevScore = score
		haveScore = true
		completedDepth = depth
	}

	if math.IsInf(bestScore, -1) {
		bestScore = EvaluateState(state, player, e.weights)
	}
	log.Debug().
		Int("depth", completedDepth).
		Int64("nodes", e.nodes).
		Int("tt_size", e.tt.Size()).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Str("move", bestMove.Key()).
		Msg("pvs search finished")
	return Decision{
		Move:  bestMove,
		Score: bestScore,
		Meta: DecisionMeta{
			Engine: EnginePVS,
			Mode:   ModeNormal,
			Depth:  completedDepth,
			Nodes:  e.nodes,
			TTSize: e.tt.Size(),
		},
	}
}

// searchRoot runs one PVS pass over the ordered root moves. The first move
// gets the full window, the rest a null window with re-search on fail-high.
func (e *PVSEngine) searchRoot(state GameState, moves []Move, depth int, alpha, beta float64) (float64, Move, bool) {
	bestScore := math.Inf(-1)
	bestMove := moves[0]
	for i, move := range moves {
		if e.timedOut() {
			return bestScore, bestMove, false
		}
		child := MustApply(state, move)
		var value float64
		if i == 0 {
			value = -e.pvs(child, depth-1, 1, -beta, -alpha)
		} else {
			value = -e.pvs(child, depth-1, 1, -(alpha + 1), -alpha)
			if value > alpha && value < beta && !e.aborted {
				value = -e.pvs(child, depth-1, 1, -beta, -alpha)
			}
		}
		if e.aborted {
			return bestScore, bestMove, false
		}
		if value > bestScore {
			bestScore = value
			bestMove = move
		}
		if value > alpha {
			alpha = value
		}
		if alpha >= beta {
			break
		}
	}
	return bestScore, bestMove, true
}

// pvs is the recursive negamax body. Scores are from the perspective of
// the side to move in state.
func (e *PVSEngine) pvs(state GameState, depth, ply int, alpha, beta float64) float64 {
	if e.timedOut() {
		e.aborted = true
		return EvaluateState(state, state.ToMove, e.weights)
	}
	if state.IsTerminal() {
		return e.terminalScore(state, depth)
	}
	if depth <= 0 {
		return e.quiescence(state, ply, alpha, beta, quiescenceDepth)
	}

	e.nodes++
	key := ttKeyFor(state)
	alphaOrig := alpha
	var pvMove *Move
	if entry, ok := e.tt.Probe(key); ok {
		if entry.HasMove {
			pv := entry.BestMove
			pvMove = &pv
		}
		if entry.Depth >= depth {
			switch entry.Flag {
			case TTExact:
				return entry.Score
			case TTLower:
				if entry.Score > alpha {
					alpha = entry.Score
				}
			case TTUpper:
				if entry.Score < beta {
					beta = entry.Score
				}
			}
			if alpha >= beta {
				return entry.Score
			}
		}
	}

	player := state.ToMove
	candidates := CollectCandidates(state, player)
	moves := EnumeratePairMoves(state, player, candidates)
	if len(moves) == 0 {
		return EvaluateState(state, player, e.weights)
	}
	moves = e.orderMoves(state, moves, ply, pvMove)

	best := math.Inf(-1)
	bestMove := Move{}
	for i, move := range moves {
		child := MustApply(state, move)
		var value float64
		if i == 0 {
			value = -e.pvs(child, depth-1, ply+1, -beta, -alpha)
		} else {
			value = -e.pvs(child, depth-1, ply+1, -(alpha + 1), -alpha)
			if value > alpha && value < beta && !e.aborted {
				value = -e.pvs(child, depth-1, ply+1, -beta, -alpha)
			}
		}
		if value > best {
			best = value
			bestMove = move
		}
		if value > alpha {
			alpha = value
			e.recordHistory(move, depth)
		}
		if alpha >= beta {
			e.recordKiller(ply, move)
			break
		}
		if e.aborted {
			break
		}
	}

	if !e.aborted {
		flag := TTExact
		if best <= alphaOrig {
			flag = TTUpper
		} else if best >= beta {
			flag = TTLower
		}
		e.tt.Store(key, TTEntry{Depth: depth, Score: best, Flag: flag, HasMove: true, BestMove: bestMove})
	}
	return best
}

func (e *PVSEngine) terminalScore(state GameState, depth int) float64 {
	if _, ok := state.Winner(); ok {
		// The previous mover connected six; the side to move has lost.
		// Remaining depth rewards faster wins and stalls losses.
		return -(pvsWinScore + winDepthBonus*float64(depth))
	}
	return 0
}

// quiescence extends tactically past the horizon: stand pat on the static
// evaluation, then try a bounded set of RZOP moves for up to two plies.
func (e *PVSEngine) quiescence(state GameState, ply int, alpha, beta float64, qdepth int) float64 {
	if state.IsTerminal() {
		return e.terminalScore(state, 0)
	}
	standPat := EvaluateState(state, state.ToMove, e.weights)
	if qdepth <= 0 || e.timedOut() {
		return standPat
	}
	if standPat >= beta {
		return standPat
	}
	if standPat > alpha {
		alpha = standPat
	}

	e.nodes++
	player := state.ToMove
	candidates := CollectCandidates(state, player)
	if len(candidates) > quiescenceCands {
		candidates = candidates[:quiescenceCands]
	}
	moves := EnumeratePairMoves(state, player, candidates)
	if len(moves) > quiescenceMoves {
		moves = moves[:quiescenceMoves]
	}

	best := standPat
	for _, move := range moves {
		child := MustApply(state, move)
		value := -e.quiescence(child, ply+1, -beta, -alpha, qdepth-1)
		if value > best {
			best = value
		}
		if value > alpha {
			alpha = value
		}
		if alpha >= beta {
			break
		}
		if e.aborted {
			break
		}
	}
	return best
}

// orderRootMoves ranks root moves by a blend of child evaluation, history,
// killer bonus and threat creation/neglect deltas.
func (e *PVSEngine) orderRootMoves(state GameState, moves []Move) []Move {
	return e.orderMoves(state, moves, 0, nil)
}

func (e *PVSEngine) orderMoves(state GameState, moves []Move, ply int, pvMove *Move) []Move {
	type scored struct {
		move  Move
		score float64
	}
	ranked := make([]scored, 0, len(moves))
	for _, move := range moves {
		if e.timedOut() {
			// Out of budget: leave the tail unscored rather than stall.
			ranked = append(ranked, scored{move: move, score: math.Inf(-1)})
			continue
		}
		ranked = append(ranked, scored{move: move, score: e.scoreMoveForOrdering(state, move, ply, pvMove)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	ordered := make([]Move, 0, len(ranked))
	for _, r := range ranked {
		ordered = append(ordered, r.move)
	}
	return ordered
}

func (e *PVSEngine) scoreMoveForOrdering(state GameState, move Move, ply int, pvMove *Move) float64 {
	if pvMove != nil && move.Key() == pvMove.Key() {
		return math.Inf(1)
	}
	child, err := ApplyMove(state, move)
	if err != nil {
		return math.Inf(-1)
	}
	score := EvaluateState(child, move.Player, e.weights)
	for _, p := range move.Positions {
		score += float64(e.history[p.Index()])
	}
	if e.isKiller(ply, move) {
		score += killerBoost
	}

	myThreats := DetectThreats(child, move.Player)
	if len(SinglePointWins(myThreats)) > 0 {
		score += orderMateBonus
	}
	if len(TwoStoneWinPairs(myThreats)) > 0 {
		score += orderPairMateBonus
	}
	score += orderFourBonus * float64(len(LiveFours(myThreats)))

	oppThreats := DetectThreats(child, otherPlayer(move.Player))
	if len(SinglePointWins(oppThreats)) > 0 {
		score -= orderOppMatePen
	}
	if len(TwoStoneWinPairs(oppThreats)) > 0 {
		score -= orderOppPairPen
	}
	score -= orderOppFourPen * float64(len(LiveFours(oppThreats)))
	return score
}

func (e *PVSEngine) isKiller(ply int, move Move) bool {
	if ply >= len(e.killers) {
		return false
	}
	key := move.Key()
	for _, killer := range e.killers[ply] {
		if killer.StoneCount() > 0 && killer.Key() == key {
			return true
		}
	}
	return false
}

func (e *PVSEngine) recordKiller(ply int, move Move) {
	if ply >= len(e.killers) {
		return
	}
	if e.isKiller(ply, move) {
		return
	}
	slot := e.killerSlot[ply]
	e.killers[ply][slot] = move
	e.killerSlot[ply] = (slot + 1) % 2
}

func (e *PVSEngine) recordHistory(move Move, depth int) {
	bump := int64(depth * depth)
	for _, p := range move.Positions {
		e.history[p.Index()] += bump
	}
}

func (e *PVSEngine) timedOut() bool {
	return e.hasDeadline && time.Now().After(e.deadline)
}
