package main

import "sort"

const (
	relevanceRadius  = 3
	perLineQuota     = 4
	centerBandSize   = 30
	maxPairMoves     = 1000
	highValueStones  = 3
	pureLineExtRun   = 5
)

// CollectCandidates produces the bounded, ordered cell set a search node
// branches over: the relevance zone around existing stones, urgent block
// cells always included, quiet cells filtered down by road value and
// per-line quotas.
func CollectCandidates(state GameState, player PlayerColor) []Pos {
	if state.Board.CountStones() == 0 {
		center := boardCenter()
		return []Pos{
			center,
			{X: center.X, Y: center.Y - 1},
			{X: center.X - 1, Y: center.Y},
			{X: center.X + 1, Y: center.Y},
			{X: center.X, Y: center.Y + 1},
		}
	}

	zone := relevanceZone(state.Board)
	urgent := urgentBlockCells(state, player)
	urgentSet := map[Pos]struct{}{}
	for _, p := range urgent {
		urgentSet[p] = struct{}{}
	}

	quiet := []Pos{}
	rowCount := map[int]int{}
	diagCount := map[int]int{}
	antiCount := map[int]int{}
	for _, p := range orderByCenter(zone) {
		if _, ok := urgentSet[p]; ok {
			continue
		}
		if !IsHighValueRoadCell(state, p, highValueStones) {
			continue
		}
		if isPureLineExtension(state.Board, p) {
			continue
		}
		if isDeadLineCell(state.Board, p) {
			continue
		}
		if rowCount[p.Y] >= perLineQuota || diagCount[p.X-p.Y] >= perLineQuota || antiCount[p.X+p.Y] >= perLineQuota {
			continue
		}
		rowCount[p.Y]++
		diagCount[p.X-p.Y]++
		antiCount[p.X+p.Y]++
		quiet = append(quiet, p)
	}

	candidates := append(orderByCenter(urgent), quiet...)
	if len(candidates) == 0 {
		// Over-filtered position: fall back to the raw relevance zone.
		return orderByCenter(zone)
	}
	return candidates
}

func relevanceZone(board Board) []Pos {
	zone := []Pos{}
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if board.At(x, y) != CellEmpty {
				continue
			}
			if hasStoneNearby(board, x, y, relevanceRadius) {
				zone = append(zone, Pos{X: x, Y: y})
			}
		}
	}
	return zone
}

func hasStoneNearby(board Board, x, y, radius int) bool {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if board.InBounds(nx, ny) && board.At(nx, ny) != CellEmpty {
				return true
			}
		}
	}
	return false
}

// urgentBlockCells scans every road for opponent-only shapes that demand a
// reply: five with an empty (block-mate) and four with two empties (block
// live-four). Every empty of such a road is urgent.
func urgentBlockCells(state GameState, player PlayerColor) []Pos {
	opponent := otherPlayer(player)
	urgent := []Pos{}
	seen := map[Pos]struct{}{}
	for _, road := range Roads().All() {
		counts := countRoad(state.Board, road)
		theirs, mine := counts.forPlayer(opponent)
		if mine != 0 {
			continue
		}
		blockMate := theirs >= 5 && counts.empties >= 1
		blockFour := theirs >= 4 && counts.empties >= 2
		if !blockMate && !blockFour {
			continue
		}
		for _, p := range roadEmpties(state.Board, road) {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			urgent = append(urgent, p)
		}
	}
	return urgent
}

// isPureLineExtension rejects cells that merely extend a line which already
// carries five or more contiguous stones of one color through them.
func isPureLineExtension(board Board, p Pos) bool {
	for _, target := range []Cell{CellBlack, CellWhite} {
		for _, dir := range lineDirections {
			dx, dy := dir[0], dir[1]
			run := countDirection(board, p.X, p.Y, dx, dy, target) +
				countDirection(board, p.X, p.Y, -dx, -dy, target)
			if run >= pureLineExtRun {
				return true
			}
		}
	}
	return false
}

// isDeadLineCell reports whether every road through p already holds both
// colors, making p worthless for either side.
func isDeadLineCell(board Board, p Pos) bool {
	table := Roads()
	for _, id := range table.byCell[p.Index()] {
		counts := countRoad(board, table.roads[id])
		if counts.black == 0 || counts.white == 0 {
			return false
		}
	}
	return true
}

func orderByCenter(positions []Pos) []Pos {
	ordered := append([]Pos(nil), positions...)
	center := boardCenter()
	sort.SliceStable(ordered, func(i, j int) bool {
		di := manhattan(ordered[i], center)
		dj := manhattan(ordered[j], center)
		if di != dj {
			return di < dj
		}
		return ordered[i].Index() < ordered[j].Index()
	})
	return ordered
}

// EnumeratePairMoves expands a candidate cell list into two-stone moves in
// three preference bands: VCDT-urgent pairs, center x center, then the
// center/periphery remainder. Pairs are unordered-unique and capped.
func EnumeratePairMoves(state GameState, player PlayerColor, candidates []Pos) []Move {
	moves := []Move{}
	seen := map[string]struct{}{}
	add := func(a, b Pos) bool {
		if len(moves) >= maxPairMoves {
			return false
		}
		if a == b || !state.Board.IsEmpty(a.X, a.Y) || !state.Board.IsEmpty(b.X, b.Y) {
			return true
		}
		move := NewPairMove(player, a, b)
		key := move.Key()
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
		moves = append(moves, move)
		return true
	}

	// Band one: urgent threat pairs, opponent wins blocked before own wins
	// are pushed.
	oppThreats := DetectThreats(state, otherPlayer(player))
	for _, pair := range TwoStoneWinPairs(oppThreats) {
		if !add(pair[0], pair[1]) {
			return moves
		}
	}
	myThreats := DetectThreats(state, player)
	for _, pair := range TwoStoneWinPairs(myThreats) {
		if !add(pair[0], pair[1]) {
			return moves
		}
	}

	ordered := orderByCenter(candidates)
	centerBand := ordered
	if len(centerBand) > centerBandSize {
		centerBand = centerBand[:centerBandSize]
	}
	// Band two: pairs among the cells closest to center.
	for i := 0; i < len(centerBand); i++ {
		for j := i + 1; j < len(centerBand); j++ {
			if !add(centerBand[i], centerBand[j]) {
				return moves
			}
		}
	}
	// Band three: everything touching the periphery.
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if !add(ordered[i], ordered[j]) {
				return moves
			}
		}
	}
	return moves
}

// padToPair fills a forced single-stone choice up to the two-stone quota
// with the best remaining RZOP candidate.
func padToPair(state GameState, player PlayerColor, first Pos) Move {
	for _, p := range CollectCandidates(state, player) {
		if p != first && state.Board.IsEmpty(p.X, p.Y) {
			return NewPairMove(player, first, p)
		}
	}
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			p := Pos{X: x, Y: y}
			if p != first && state.Board.AtPos(p) == CellEmpty {
				return NewPairMove(player, first, p)
			}
		}
	}
	return NewSingleMove(player, first)
}
