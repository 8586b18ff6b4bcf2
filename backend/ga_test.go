package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomWeightsWithinRanges(t *testing.T) {
	g := NewGAOptimizer(GAConfig{PopulationSize: 4, Generations: 1, MutationRate: 0.3, Seed: 7})
	for i := 0; i < 50; i++ {
		w := g.randomWeights()
		require.GreaterOrEqual(t, w.Road3, 80.0)
		require.LessOrEqual(t, w.Road3, 120.0)
		require.GreaterOrEqual(t, w.Road4, 300.0)
		require.LessOrEqual(t, w.Road4, 400.0)
		require.GreaterOrEqual(t, w.Live4, 2500.0)
		require.LessOrEqual(t, w.Live4, 3500.0)
		require.GreaterOrEqual(t, w.Live5, 8000.0)
		require.LessOrEqual(t, w.Live5, 12000.0)
		require.GreaterOrEqual(t, w.VcdtBonus, 1000.0)
		require.LessOrEqual(t, w.VcdtBonus, 2000.0)
	}
}

func TestCrossoverIsArithmeticMean(t *testing.T) {
	g := NewGAOptimizer(DefaultGAConfig())
	a := Individual{Weights: EvaluationWeights{Road3: 100, Road4: 300, Live4: 3000, Live5: 8000, VcdtBonus: 1000}}
	b := Individual{Weights: EvaluationWeights{Road3: 120, Road4: 400, Live4: 2500, Live5: 12000, VcdtBonus: 2000}}
	child := g.crossover(a, b)
	require.Equal(t, 110.0, child.Weights.Road3)
	require.Equal(t, 350.0, child.Weights.Road4)
	require.Equal(t, 2750.0, child.Weights.Live4)
	require.Equal(t, 10000.0, child.Weights.Live5)
	require.Equal(t, 1500.0, child.Weights.VcdtBonus)
}

func TestMutationStaysWithinClamp(t *testing.T) {
	g := NewGAOptimizer(GAConfig{PopulationSize: 4, Generations: 1, MutationRate: 1.0, Seed: 3})
	ind := Individual{Weights: EvaluationWeights{Road3: 55, Road4: 19990, Live4: 3000, Live5: 10000, VcdtBonus: 1500}}
	for i := 0; i < 100; i++ {
		g.mutate(&ind)
		for _, v := range []float64{ind.Weights.Road3, ind.Weights.Road4, ind.Weights.Live4, ind.Weights.Live5, ind.Weights.VcdtBonus} {
			require.GreaterOrEqual(t, v, gaWeightFloor)
			require.LessOrEqual(t, v, gaWeightCeil)
		}
	}
}

func TestMutationJitterIsBounded(t *testing.T) {
	g := NewGAOptimizer(GAConfig{PopulationSize: 4, Generations: 1, MutationRate: 1.0, Seed: 9})
	ind := Individual{Weights: EvaluationWeights{Road3: 1000, Road4: 1000, Live4: 1000, Live5: 1000, VcdtBonus: 1000}}
	g.mutate(&ind)
	for _, v := range []float64{ind.Weights.Road3, ind.Weights.Road4, ind.Weights.Live4, ind.Weights.Live5, ind.Weights.VcdtBonus} {
		require.GreaterOrEqual(t, v, 1000*(1-gaMutationJitter))
		require.LessOrEqual(t, v, 1000*(1+gaMutationJitter))
	}
}

func TestSelectionPrefersFitterIndividuals(t *testing.T) {
	g := NewGAOptimizer(GAConfig{PopulationSize: 2, Generations: 1, MutationRate: 0.3, Seed: 11})
	g.population = []Individual{
		{ID: "weak", Fitness: 0.01},
		{ID: "strong", Fitness: 10.0},
	}
	strong := 0
	for i := 0; i < 200; i++ {
		if g.selectParent().ID == "strong" {
			strong++
		}
	}
	require.Greater(t, strong, 150, "fitness-proportionate selection should favor the strong individual")
}

func TestGAExportRoundTrip(t *testing.T) {
	champion := Individual{ID: "champ", Weights: DefaultWeights(), Fitness: 1.25}
	searchConfig := SearchConfig{MaxDepth: 5, TimeLimitMs: 900}
	export := NewGAExport(champion, searchConfig, "test run")
	require.NotEmpty(t, export.Name)
	require.NotEmpty(t, export.ExportedAt)

	data, err := json.Marshal(export)
	require.NoError(t, err)
	parsed, err := ImportGAExport(data)
	require.NoError(t, err)
	require.Equal(t, export.Weights, parsed.Weights)
	require.Equal(t, export.SearchConfig, parsed.SearchConfig)
	require.Equal(t, export.Note, parsed.Note)

	cfg := DefaultConfig()
	cfg.Strategy = StrategyDeep
	applied := ApplyGAExport(cfg, parsed)
	require.Equal(t, parsed.Weights, applied.Weights)
	require.Equal(t, parsed.SearchConfig, applied.Search)
	// Only the exported fields may change.
	require.Equal(t, StrategyDeep, applied.Strategy)
	require.Equal(t, cfg.MCTS, applied.MCTS)
}

func TestImportGAExportRejectsGarbage(t *testing.T) {
	_, err := ImportGAExport([]byte("not json"))
	require.Error(t, err)
}
