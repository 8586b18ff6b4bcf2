package main

import "context"

// Evaluation is the oracle's answer for one position: a non-negative prior
// per cell (indexed y*BoardSize+x, need not sum to 1) and a scalar value in
// [-1,1] from the side to move's perspective.
type Evaluation struct {
	Policy []float64
	Value  float64
}

// Evaluator is the pluggable policy/value oracle. Evaluate is the only
// suspension point in the decision core; the MCTS engine is its only
// caller inside a search.
type Evaluator interface {
	Evaluate(ctx context.Context, state GameState) (Evaluation, error)
}

// UniformEvaluator is the default oracle: a flat prior and a neutral value.
type UniformEvaluator struct{}

func (UniformEvaluator) Evaluate(_ context.Context, _ GameState) (Evaluation, error) {
	policy := make([]float64, BoardSize*BoardSize)
	for i := range policy {
		policy[i] = 1.0 / float64(len(policy))
	}
	return Evaluation{Policy: policy, Value: 0}, nil
}
