package main

const (
	roadWinScore = 1000000.0

	oppSingleWinPenalty = 200000.0
	oppPairWinPenalty   = 120000.0
	oppFourManyPenalty  = 80000.0
	oppFourOnePenalty   = 40000.0
	mySingleWinBonus    = 200000.0
	myPairWinBonus      = 100000.0
	myFourManyBonus     = 30000.0
	myFourOneBonus      = 10000.0
)

// EvaluationWeights is the GA-tunable weight vector. Road3 and Road4 are
// kept for profile compatibility and tuning runs but the primary evaluator
// does not read them: sub-six runs are priced by the pattern term instead.
type EvaluationWeights struct {
	Road3     float64 `json:"road_3_score"`
	Road4     float64 `json:"road_4_score"`
	Live4     float64 `json:"live_4_score"`
	Live5     float64 `json:"live_5_score"`
	VcdtBonus float64 `json:"vcdt_bonus"`
}

func DefaultWeights() EvaluationWeights {
	return EvaluationWeights{
		Road3:     100.0,
		Road4:     350.0,
		Live4:     3000.0,
		Live5:     10000.0,
		VcdtBonus: 1500.0,
	}
}

// EvaluateState scores a position from player's perspective. The terms are
// additive: terminal roads, sub-six patterns, threat defense, and a gentle
// center-occupation term.
func EvaluateState(state GameState, player PlayerColor, weights EvaluationWeights) float64 {
	score := evaluateRoads(state, player)
	score += evaluatePatterns(state, player, weights)
	score += evaluateThreatDefense(state, player)
	score += evaluatePosition(state, player)
	return score
}

// evaluateRoads prices completed six-in-a-rows only. It is exactly
// antisymmetric under color swap.
func evaluateRoads(state GameState, player PlayerColor) float64 {
	opponent := otherPlayer(player)
	myCell := CellFromPlayer(player)
	oppCell := CellFromPlayer(opponent)
	score := 0.0
	mineWon := false
	theirsWon := false
	for _, road := range Roads().All() {
		if roadMaxRun(state.Board, road, myCell) >= WinLength {
			mineWon = true
		}
		if roadMaxRun(state.Board, road, oppCell) >= WinLength {
			theirsWon = true
		}
		if mineWon && theirsWon {
			break
		}
	}
	if mineWon {
		score += roadWinScore
	}
	if theirsWon {
		score -= roadWinScore
	}
	return score
}

// roadMaxRun is the longest contiguous run of target stones inside a road.
func roadMaxRun(board Board, road Road, target Cell) int {
	best := 0
	run := 0
	for _, cell := range road.Cells {
		if board.AtPos(cell) == target {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

func evaluatePatterns(state GameState, player PlayerColor, weights EvaluationWeights) float64 {
	opponent := otherPlayer(player)
	var myLive4, myLive5, oppLive4, oppLive5 int
	for _, road := range Roads().All() {
		counts := countRoad(state.Board, road)
		if counts.white == 0 {
			switch counts.black {
			case 4:
				if player == PlayerBlack {
					myLive4++
				} else {
					oppLive4++
				}
			case 5:
				if player == PlayerBlack {
					myLive5++
				} else {
					oppLive5++
				}
			}
		}
		if counts.black == 0 {
			switch counts.white {
			case 4:
				if player == PlayerWhite {
					myLive4++
				} else {
					oppLive4++
				}
			case 5:
				if player == PlayerWhite {
					myLive5++
				} else {
					oppLive5++
				}
			}
		}
	}
	myVcdts := len(DetectThreats(state, player))
	oppVcdts := len(DetectThreats(state, opponent))
	score := float64(myLive4)*weights.Live4 + float64(myLive5)*weights.Live5
	score -= float64(oppLive4) * weights.Live4 * 0.8
	score -= float64(oppLive5) * weights.Live5 * 0.9
	score += float64(myVcdts-oppVcdts) * weights.VcdtBonus
	return score
}

// evaluateThreatDefense makes unanswered mates dominate positional shape:
// an undefended opponent win must be expressible in a single ply.
func evaluateThreatDefense(state GameState, player PlayerColor) float64 {
	score := 0.0

	oppThreats := DetectThreats(state, otherPlayer(player))
	oppSingles := len(SinglePointWins(oppThreats))
	oppPairs := len(TwoStoneWinPairs(oppThreats))
	oppFours := len(LiveFours(oppThreats))
	score -= float64(oppSingles) * oppSingleWinPenalty
	score -= float64(oppPairs) * oppPairWinPenalty
	if oppFours >= 2 {
		score -= float64(oppFours) * oppFourManyPenalty
	} else if oppFours == 1 {
		score -= oppFourOnePenalty
	}

	myThreats := DetectThreats(state, player)
	mySingles := len(SinglePointWins(myThreats))
	myPairs := len(TwoStoneWinPairs(myThreats))
	myFours := len(LiveFours(myThreats))
	score += float64(mySingles) * mySingleWinBonus
	score += float64(myPairs) * myPairWinBonus
	if myFours >= 2 {
		score += float64(myFours) * myFourManyBonus
	} else if myFours >= 1 {
		score += myFourOneBonus
	}
	return score
}

func evaluatePosition(state GameState, player PlayerColor) float64 {
	const maxDist = float64(2 * ((BoardSize - 1) / 2))
	center := boardCenter()
	myCell := CellFromPlayer(player)
	score := 0.0
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			cell := state.Board.At(x, y)
			if cell == CellEmpty {
				continue
			}
			value := 2.0 * (maxDist - float64(manhattan(Pos{X: x, Y: y}, center)))
			if cell == myCell {
				score += value
			} else {
				score -= value
			}
		}
	}
	return score
}
