package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

const (
	gaMatchCount      = 4
	gaMaxPlies        = 36
	gaShallowPlies    = 10
	gaShallowDepth    = 2
	gaDeepDepth       = 3
	gaPlyBudgetMs     = 120
	gaMutationJitter  = 0.075
	gaWeightFloor     = 50.0
	gaWeightCeil      = 20000.0
	gaLongevityScale  = 40.0
	gaLongevityWeight = 0.1
	gaStabilityScale  = 50000.0
	gaStabilityWeight = 0.05
)

type Individual struct {
	ID      string            `json:"id"`
	Weights EvaluationWeights `json:"weights"`
	Fitness float64           `json:"fitness"`
}

type GAConfig struct {
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	MutationRate   float64 `json:"mutation_rate"`
	Seed           uint64  `json:"seed"`
}

func DefaultGAConfig() GAConfig {
	return GAConfig{
		PopulationSize: 8,
		Generations:    5,
		MutationRate:   0.3,
		Seed:           1,
	}
}

type GAProgress struct {
	Generation  int        `json:"generation"`
	BestFitness float64    `json:"best_fitness"`
	AvgFitness  float64    `json:"avg_fitness"`
	Champion    Individual `json:"champion"`
}

// GAOptimizer tunes the evaluation weight vector by self-play tournaments:
// fitness-proportionate selection, arithmetic crossover and multiplicative
// jitter mutation, with the best individual tracked across generations.
type GAOptimizer struct {
	config     GAConfig
	rng        *rand.Rand
	population []Individual
	best       Individual
	haveBest   bool
	OnProgress func(GAProgress)
}

func NewGAOptimizer(config GAConfig) *GAOptimizer {
	if config.PopulationSize < 2 {
		config.PopulationSize = DefaultGAConfig().PopulationSize
	}
	if config.Generations < 1 {
		config.Generations = DefaultGAConfig().Generations
	}
	if config.MutationRate <= 0 {
		config.MutationRate = DefaultGAConfig().MutationRate
	}
	seed := config.Seed
	if seed == 0 {
		seed = 1
	}
	return &GAOptimizer{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Run executes the configured number of generations and returns the
// champion. Cancelling the context stops after the current match.
func (g *GAOptimizer) Run(ctx context.Context) (Individual, error) {
	g.population = make([]Individual, g.config.PopulationSize)
	for i := range g.population {
		g.population[i] = Individual{ID: uuid.NewString(), Weights: g.randomWeights()}
	}

	for generation := 0; generation < g.config.Generations; generation++ {
		total := 0.0
		for i := range g.population {
			if err := ctx.Err(); err != nil {
				return g.champion(), err
			}
			g.population[i].Fitness = g.evaluateFitness(ctx, g.population[i].Weights)
			total += g.population[i].Fitness
			if !g.haveBest || g.population[i].Fitness > g.best.Fitness {
				g.best = g.population[i]
				g.haveBest = true
			}
		}
		progress := GAProgress{
			Generation:  generation,
			BestFitness: g.best.Fitness,
			AvgFitness:  total / float64(len(g.population)),
			Champion:    g.best,
		}
		log.Info().
			Int("generation", progress.Generation).
			Float64("best_fitness", progress.BestFitness).
			Float64("avg_fitness", progress.AvgFitness).
			Str("champion", progress.Champion.ID).
			Msg("ga generation finished")
		if g.OnProgress != nil {
			g.OnProgress(progress)
		}

		next := make([]Individual, 0, g.config.PopulationSize)
		for len(next) < g.config.PopulationSize {
			a := g.selectParent()
			b := g.selectParent()
			child := g.crossover(a, b)
			g.mutate(&child)
			child.ID = uuid.NewString()
			next = append(next, child)
		}
		g.population = next
	}
	return g.champion(), nil
}

func (g *GAOptimizer) champion() Individual {
	return g.best
}

func (g *GAOptimizer) randomWeights() EvaluationWeights {
	in := func(lo, hi float64) float64 {
		return lo + g.rng.Float64()*(hi-lo)
	}
	return EvaluationWeights{
		Road3:     in(80, 120),
		Road4:     in(300, 400),
		Live4:     in(2500, 3500),
		Live5:     in(8000, 12000),
		VcdtBonus: in(1000, 2000),
	}
}

// evaluateFitness plays self-games with the candidate weights on both
// sides. Match openings alternate around the center so the four games do
// not collapse into one deterministic line.
func (g *GAOptimizer) evaluateFitness(ctx context.Context, weights EvaluationWeights) float64 {
	total := 0.0
	for match := 0; match < gaMatchCount; match++ {
		if ctx.Err() != nil {
			break
		}
		total += g.playMatch(weights, match)
	}
	return total / float64(gaMatchCount)
}

func (g *GAOptimizer) playMatch(weights EvaluationWeights, match int) float64 {
	engine := NewPVSEngine()
	state := NewGameState()

	opening := boardCenter()
	if match%2 == 1 {
		opening = Pos{X: opening.X + 1, Y: opening.Y}
	}
	state = MustApply(state, NewSingleMove(PlayerBlack, opening))

	steps := 1
	for !state.IsTerminal() && steps < gaMaxPlies {
		depth := gaDeepDepth
		if steps < gaShallowPlies {
			depth = gaShallowDepth
		}
		decision, err := engine.Search(state, weights, SearchConfig{MaxDepth: depth, TimeLimitMs: gaPlyBudgetMs})
		if err != nil {
			break
		}
		next, err := ApplyMove(state, decision.Move)
		if err != nil {
			// A bad sampled move never aborts the tournament.
			log.Warn().Err(err).Msg("ga self-play produced an illegal move")
			break
		}
		state = next
		steps++
	}

	// Unfinished games score like draws.
	winBonus := 0.5
	if winner, ok := state.Winner(); ok {
		if winner == PlayerBlack {
			winBonus = 1.0
		} else {
			winBonus = 0.0
		}
	}
	longevity := float64(steps) / gaLongevityScale * gaLongevityWeight
	stability := EvaluateState(state, PlayerBlack, weights) / gaStabilityScale * gaStabilityWeight
	return winBonus + longevity + stability
}

func (g *GAOptimizer) selectParent() Individual {
	total := 0.0
	for _, ind := range g.population {
		if ind.Fitness > 0 {
			total += ind.Fitness
		}
	}
	if total <= 0 {
		return g.population[g.rng.Intn(len(g.population))]
	}
	pick := g.rng.Float64() * total
	acc := 0.0
	for _, ind := range g.population {
		if ind.Fitness > 0 {
			acc += ind.Fitness
		}
		if pick <= acc {
			return ind
		}
	}
	return g.population[len(g.population)-1]
}

func (g *GAOptimizer) crossover(a, b Individual) Individual {
	return Individual{
		Weights: EvaluationWeights{
			Road3:     (a.Weights.Road3 + b.Weights.Road3) / 2,
			Road4:     (a.Weights.Road4 + b.Weights.Road4) / 2,
			Live4:     (a.Weights.Live4 + b.Weights.Live4) / 2,
			Live5:     (a.Weights.Live5 + b.Weights.Live5) / 2,
			VcdtBonus: (a.Weights.VcdtBonus + b.Weights.VcdtBonus) / 2,
		},
	}
}

func (g *GAOptimizer) mutate(ind *Individual) {
	fields := []*float64{
		&ind.Weights.Road3,
		&ind.Weights.Road4,
		&ind.Weights.Live4,
		&ind.Weights.Live5,
		&ind.Weights.VcdtBonus,
	}
	for _, field := range fields {
		if g.rng.Float64() >= g.config.MutationRate {
			continue
		}
		jitter := 1 + (g.rng.Float64()*2-1)*gaMutationJitter
		*field = clampWeight(*field * jitter)
	}
}

func clampWeight(v float64) float64 {
	if v < gaWeightFloor {
		return gaWeightFloor
	}
	if v > gaWeightCeil {
		return gaWeightCeil
	}
	return v
}

// GAExport is the portable profile document for a tuned weight vector.
type GAExport struct {
	Name         string            `json:"name"`
	ExportedAt   string            `json:"exported_at"`
	Weights      EvaluationWeights `json:"weights"`
	SearchConfig SearchConfig      `json:"search_config"`
	Note         string            `json:"note"`
}

func NewGAExport(champion Individual, searchConfig SearchConfig, note string) GAExport {
	return GAExport{
		Name:         fmt.Sprintf("connect6-profile-%s", uuid.NewString()[:8]),
		ExportedAt:   time.Now().UTC().Format(time.RFC3339),
		Weights:      champion.Weights,
		SearchConfig: searchConfig,
		Note:         note,
	}
}

// ImportGAExport parses a profile document. Re-ingestion touches only the
// exported fields; everything else in the running config stays put.
func ImportGAExport(data []byte) (GAExport, error) {
	var export GAExport
	if err := json.Unmarshal(data, &export); err != nil {
		return GAExport{}, fmt.Errorf("parse ga export: %w", err)
	}
	return export, nil
}

func ApplyGAExport(cfg Config, export GAExport) Config {
	cfg.Weights = export.Weights
	cfg.Search = export.SearchConfig
	return cfg
}
