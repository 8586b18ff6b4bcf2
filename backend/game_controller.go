package main

import (
	"context"
	"sync"
)

// GameController owns the live game and its engines. All access goes
// through the mutex; one AI move runs at a time.
type GameController struct {
	mu           sync.Mutex
	state        GameState
	selector     *HybridSelector
	lastDecision Decision
	hasDecision  bool
}

func NewGameController(oracle Evaluator, config Config) *GameController {
	return &GameController{
		state:    NewGameState(),
		selector: NewHybridSelector(oracle, config),
	}
}

func (g *GameController) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone()
}

func (g *GameController) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = NewGameState()
	g.hasDecision = false
	g.selector.ResetSearchState()
}

func (g *GameController) ApplyHumanMove(move Move) (GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	next, err := ApplyMove(g.state, move)
	if err != nil {
		return GameState{}, err
	}
	g.state = next
	return next.Clone(), nil
}

// PlayAIMove asks the hybrid selector for a decision and applies it.
func (g *GameController) PlayAIMove(ctx context.Context) (Decision, GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	config := GetConfig()
	decision, err := g.selector.Decide(ctx, g.state, config)
	if err != nil {
		return Decision{}, GameState{}, err
	}
	next, err := ApplyMove(g.state, decision.Move)
	if err != nil {
		return Decision{}, GameState{}, err
	}
	g.state = next
	g.lastDecision = decision
	g.hasDecision = true
	return decision, next.Clone(), nil
}

func (g *GameController) LastDecision() (Decision, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastDecision, g.hasDecision
}
