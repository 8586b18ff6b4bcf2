package main

import (
	"context"
	"math"
)

const (
	hybridEarlyMoves    = 10
	hybridMidMoves      = 30
	hybridComplexityBar = 0.6
)

// PositionComplexity blends board fill with contested roads into [0,1].
func PositionComplexity(state GameState) float64 {
	stonesRatio := float64(state.Board.CountStones()) / float64(BoardSize*BoardSize)
	mixed := 0
	all := Roads().All()
	for _, road := range all {
		counts := countRoad(state.Board, road)
		if counts.black > 0 && counts.white > 0 {
			mixed++
		}
	}
	mixedRatio := float64(mixed) / float64(len(all))
	return 0.5*stonesRatio + 0.5*mixedRatio
}

// HybridSelector picks PVS, MCTS or both per turn: PVS early and late,
// both in complex middlegames, with operator overrides for either engine.
type HybridSelector struct {
	pvs  *PVSEngine
	mcts *MCTSEngine
}

func NewHybridSelector(oracle Evaluator, config Config) *HybridSelector {
	return &HybridSelector{
		pvs:  NewPVSEngine(),
		mcts: NewMCTSEngine(oracle, config.MCTS),
	}
}

func (h *HybridSelector) Decide(ctx context.Context, state GameState, config Config) (Decision, error) {
	switch config.Strategy {
	case StrategyTraditional:
		decision, err := h.pvs.Search(state, config.Weights, config.Search)
		decision.Meta.Strategy = StrategyTraditional
		return decision, err
	case StrategyDeep:
		decision, err := h.mcts.Search(ctx, state)
		decision.Meta.Strategy = StrategyDeep
		return decision, err
	}

	m := state.MoveNumber
	if m > hybridEarlyMoves && m <= hybridMidMoves {
		if c := PositionComplexity(state); c > hybridComplexityBar {
			return h.decideBoth(ctx, state, config)
		}
	}
	decision, err := h.pvs.Search(state, config.Weights, config.Search)
	decision.Meta.Strategy = "auto"
	return decision, err
}

// decideBoth runs the two engines in sequence and keeps the decision with
// the better outlook. PVS evaluator units are squashed to a win rate so
// the two scores are comparable.
func (h *HybridSelector) decideBoth(ctx context.Context, state GameState, config Config) (Decision, error) {
	pvsDecision, pvsErr := h.pvs.Search(state, config.Weights, config.Search)
	mctsDecision, mctsErr := h.mcts.Search(ctx, state)
	if pvsErr != nil && mctsErr != nil {
		return Decision{}, pvsErr
	}
	if mctsErr != nil {
		pvsDecision.Meta.Strategy = EngineHybrid
		return pvsDecision, nil
	}
	if pvsErr != nil {
		mctsDecision.Meta.Strategy = EngineHybrid
		return mctsDecision, nil
	}
	if evalToWinRate(pvsDecision.Score) >= mctsDecision.Score {
		pvsDecision.Meta.Strategy = EngineHybrid
		return pvsDecision, nil
	}
	mctsDecision.Meta.Strategy = EngineHybrid
	return mctsDecision, nil
}

// evalToWinRate maps a PVS evaluator score onto [0,1] for comparison with
// MCTS win rates; the scale puts a won position close to 1.
func evalToWinRate(score float64) float64 {
	return 1 / (1 + math.Exp(-score/100000.0))
}

// ResetSearchState clears the PVS engine's tables between unrelated games.
// The MCTS transposition tables are not cleared.
func (h *HybridSelector) ResetSearchState() {
	h.pvs.Reset()
}
