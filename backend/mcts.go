package main

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

var ErrEmptyMCTSRoot = errors.New("mcts root has no expandable children")

const (
	dirichletAlpha    = 0.3
	defaultCellPrior  = 1e-4
	skipVisitsCutoff  = 5
	tableKeepRatio    = 0.9
	expandPoolFactor  = 3
)

// mctsChild is an edge handle: the transposition tables are the sole
// owners of nodes, parents keep only the move, the child key and the
// prior. An evicted child is re-created on the next descent.
type mctsChild struct {
	move  Move
	key   uint64
	prior float64
}

type mctsNode struct {
	state     GameState
	player    PlayerColor
	visits    int
	winsSum   float64
	expanded  bool
	terminal  bool
	lastVisit uint64
	children  []mctsChild
}

func (n *mctsNode) winRate() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.winsSum / float64(n.visits)
}

type nodeTable struct {
	nodes map[uint64]*mctsNode
}

func newNodeTable() *nodeTable {
	return &nodeTable{nodes: make(map[uint64]*mctsNode)}
}

// pruneLRU keeps the most recently visited share of the table.
func (t *nodeTable) pruneLRU(max int) {
	if len(t.nodes) <= max {
		return
	}
	type ranked struct {
		key  uint64
		tick uint64
	}
	all := make([]ranked, 0, len(t.nodes))
	for key, node := range t.nodes {
		all = append(all, ranked{key: key, tick: node.lastVisit})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].tick != all[j].tick {
			return all[i].tick > all[j].tick
		}
		return all[i].key < all[j].key
	})
	keep := int(float64(max) * tableKeepRatio)
	for _, victim := range all[keep:] {
		delete(t.nodes, victim.key)
	}
}

// MCTSEngine runs PUCT tree search with Dirichlet-perturbed root priors,
// per-side transposition tables with LRU eviction and bounded semi-random
// rollouts guided by the oracle policy.
type MCTSEngine struct {
	oracle     Evaluator
	config     MCTSConfig
	rng        *rand.Rand
	selfTable  *nodeTable
	oppTable   *nodeTable
	rootPlayer PlayerColor
	tick       uint64
}

func NewMCTSEngine(oracle Evaluator, config MCTSConfig) *MCTSEngine {
	if config.SimulationCount <= 0 {
		config.SimulationCount = DefaultMCTSConfig().SimulationCount
	}
	if config.ExpandNodes <= 0 {
		config.ExpandNodes = DefaultMCTSConfig().ExpandNodes
	}
	if config.UcbConstant <= 0 {
		config.UcbConstant = DefaultMCTSConfig().UcbConstant
	}
	if config.DirichletEpsilon <= 0 {
		config.DirichletEpsilon = DefaultMCTSConfig().DirichletEpsilon
	}
	if config.MaxTranspositionSize <= 0 {
		config.MaxTranspositionSize = DefaultMCTSConfig().MaxTranspositionSize
	}
	if config.RolloutTopK <= 0 {
		config.RolloutTopK = DefaultMCTSConfig().RolloutTopK
	}
	seed := config.Seed
	if seed == 0 {
		seed = 1
	}
	return &MCTSEngine{
		oracle:    oracle,
		config:    config,
		rng:       rand.New(rand.NewSource(seed)),
		selfTable: newNodeTable(),
		oppTable:  newNodeTable(),
	}
}

// Search runs simulationCount PUCT episodes and returns the most visited
// root child. Scores are win rates in [0,1] from the root player's view.
func (e *MCTSEngine) Search(ctx context.Context, state GameState) (Decision, error) {
	if state.IsTerminal() {
		return Decision{}, ErrTerminalState
	}
	e.rootPlayer = state.ToMove
	root := e.nodeFor(state)
	if !root.expanded {
		if err := e.expand(ctx, root, true); err != nil {
			return Decision{}, err
		}
	}
	if len(root.children) == 0 {
		return Decision{}, ErrEmptyMCTSRoot
	}

	for i := 0; i < e.config.SimulationCount; i++ {
		if err := e.runSimulation(ctx, root); err != nil {
			return Decision{}, err
		}
	}

	best := root.children[0]
	bestNode := e.lookup(best.key)
	for _, child := range root.children[1:] {
		node := e.lookup(child.key)
		if node == nil {
			continue
		}
		if bestNode == nil || node.visits > bestNode.visits ||
			(node.visits == bestNode.visits && node.winRate() > bestNode.winRate()) {
			best = child
			bestNode = node
		}
	}
	score := 0.0
	if bestNode != nil {
		score = bestNode.winRate()
	}
	log.Debug().
		Int("simulations", e.config.SimulationCount).
		Int("root_visits", root.visits).
		Int("tt_self", len(e.selfTable.nodes)).
		Int("tt_opp", len(e.oppTable.nodes)).
		Str("move", best.move.Key()).
		Msg("mcts search finished")
	return Decision{
		Move:  best.move,
		Score: score,
		Meta: DecisionMeta{
			Engine: EngineMCTS,
			Mode:   ModeNormal,
			Nodes:  int64(root.visits),
			TTSize: len(e.selfTable.nodes) + len(e.oppTable.nodes),
		},
	}, nil
}

// tableFor classifies a node by the player who moved into it.
func (e *MCTSEngine) tableFor(toMove PlayerColor) *nodeTable {
	if otherPlayer(toMove) == e.rootPlayer {
		return e.selfTable
	}
	return e.oppTable
}

func (e *MCTSEngine) nodeFor(state GameState) *mctsNode {
	table := e.tableFor(state.ToMove)
	key := mctsKeyFor(state)
	if node, ok := table.nodes[key]; ok {
		return node
	}
	node := &mctsNode{
		state:    state.Clone(),
		player:   state.ToMove,
		terminal: state.IsTerminal(),
	}
	table.nodes[key] = node
	return node
}

func (e *MCTSEngine) lookup(key uint64) *mctsNode {
	if node, ok := e.selfTable.nodes[key]; ok {
		return node
	}
	if node, ok := e.oppTable.nodes[key]; ok {
		return node
	}
	return nil
}

func (e *MCTSEngine) runSimulation(ctx context.Context, root *mctsNode) error {
	path := []*mctsNode{root}
	node := root

	// Selection: walk expanded nodes by PUCT.
	for node.expanded && !node.terminal {
		child := e.selectChild(node)
		if child == nil {
			break
		}
		next := e.lookup(child.key)
		if next == nil {
			// Evicted by the LRU: re-attach a fresh node for the edge.
			next = e.nodeFor(MustApply(node.state, child.move))
		}
		path = append(path, next)
		node = next
	}

	var value float64
	switch {
	case node.terminal:
		value = terminalWinRate(node.state, e.rootPlayer)
	default:
		if !node.expanded {
			if err := e.expand(ctx, node, false); err != nil {
				return err
			}
		}
		rolled, err := e.rollout(ctx, node.state)
		if err != nil {
			return err
		}
		value = rolled
	}

	// Backup: flip the outcome into each node's mover perspective.
	for _, n := range path {
		n.visits++
		e.tick++
		n.lastVisit = e.tick
		if otherPlayer(n.player) == e.rootPlayer {
			n.winsSum += value
		} else {
			n.winsSum += 1 - value
		}
	}

	if len(e.selfTable.nodes)+len(e.oppTable.nodes) > e.config.MaxTranspositionSize {
		half := e.config.MaxTranspositionSize / 2
		e.selfTable.pruneLRU(half)
		e.oppTable.pruneLRU(half)
	}
	return nil
}

func (e *MCTSEngine) selectChild(node *mctsNode) *mctsChild {
	var best *mctsChild
	bestValue := math.Inf(-1)
	sqrtParent := math.Sqrt(float64(node.visits))
	for i := range node.children {
		child := &node.children[i]
		q := 0.0
		visits := 0
		if n := e.lookup(child.key); n != nil {
			q = n.winRate()
			visits = n.visits
		}
		value := q + e.config.UcbConstant*child.prior*sqrtParent/float64(1+visits)
		if value > bestValue {
			bestValue = value
			best = child
		}
	}
	return best
}

// expand consults the oracle, scores RZOP candidates by the policy (with
// Dirichlet noise blended in at the root) and materializes up to
// expandNodes children from the top cells.
func (e *MCTSEngine) expand(ctx context.Context, node *mctsNode, isRoot bool) error {
	eval, err := e.oracle.Evaluate(ctx, node.state)
	if err != nil {
		return err
	}
	candidates := CollectCandidates(node.state, node.player)
	if len(candidates) == 0 {
		node.expanded = true
		return nil
	}

	scores := make([]float64, len(candidates))
	for i, p := range candidates {
		score := defaultCellPrior
		if idx := p.Index(); idx < len(eval.Policy) && eval.Policy[idx] > 0 {
			score = eval.Policy[idx]
		}
		scores[i] = score
	}
	if isRoot {
		noise := e.sampleDirichlet(len(candidates))
		eps := e.config.DirichletEpsilon
		for i := range scores {
			scores[i] = (1-eps)*scores[i] + eps*noise[i]
		}
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	pool := order
	if limit := expandPoolFactor * e.config.ExpandNodes; len(pool) > limit {
		pool = pool[:limit]
	}

	stones := StonesToPlace(node.state.MoveNumber)
	type pending struct {
		move  Move
		prior float64
	}
	pendings := []pending{}
	seen := map[string]struct{}{}
	addMove := func(move Move, prior float64) {
		key := move.Key()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		pendings = append(pendings, pending{move: move, prior: prior})
	}
	if stones == 1 {
		for _, i := range pool {
			if len(pendings) >= e.config.ExpandNodes {
				break
			}
			addMove(NewSingleMove(node.player, candidates[i]), scores[i])
		}
	} else {
		for _, i := range pool {
			if len(pendings) >= e.config.ExpandNodes {
				break
			}
			for _, j := range pool {
				if i == j {
					continue
				}
				if len(pendings) >= e.config.ExpandNodes {
					break
				}
				addMove(NewPairMove(node.player, candidates[i], candidates[j]), scores[i]*scores[j])
			}
		}
	}

	total := 0.0
	for _, p := range pendings {
		total += p.prior
	}
	children := []mctsChild{}
	skipped := []mctsChild{}
	for _, p := range pendings {
		prior := p.prior
		if total > 0 {
			prior /= total
		}
		childState := MustApply(node.state, p.move)
		key := mctsKeyFor(childState)
		child := mctsChild{move: p.move, key: key, prior: prior}
		if existing := e.lookup(key); existing != nil &&
			existing.visits > skipVisitsCutoff &&
			existing.winRate() < e.config.MinWinRateThreshold {
			skipped = append(skipped, child)
			continue
		}
		e.nodeFor(childState)
		children = append(children, child)
	}
	if len(children) == 0 && len(skipped) > 0 {
		// Retain at least one child even when everything looks lost.
		children = skipped[:1]
	}
	node.children = children
	node.expanded = true
	return nil
}

// rollout plays a bounded semi-random continuation: each stone is sampled
// from a top-K slice of the policy over RZOP candidates, proportional to
// its score.
func (e *MCTSEngine) rollout(ctx context.Context, state GameState) (float64, error) {
	cur := state
	for step := 0; step < e.config.SimulationSteps; step++ {
		if cur.IsTerminal() {
			return terminalWinRate(cur, e.rootPlayer), nil
		}
		eval, err := e.oracle.Evaluate(ctx, cur)
		if err != nil {
			return 0, err
		}
		candidates := CollectCandidates(cur, cur.ToMove)
		if len(candidates) == 0 {
			break
		}
		stones := StonesToPlace(cur.MoveNumber)
		positions := []Pos{}
		for len(positions) < stones {
			p, ok := e.samplePolicyCell(candidates, eval.Policy, positions)
			if !ok {
				break
			}
			positions = append(positions, p)
		}
		if len(positions) < stones {
			break
		}
		cur = MustApply(cur, Move{Player: cur.ToMove, Positions: positions})
	}
	if cur.IsTerminal() {
		return terminalWinRate(cur, e.rootPlayer), nil
	}
	eval, err := e.oracle.Evaluate(ctx, cur)
	if err != nil {
		return 0, err
	}
	value := (eval.Value + 1) / 2
	if cur.ToMove != e.rootPlayer {
		value = 1 - value
	}
	return value, nil
}

func (e *MCTSEngine) samplePolicyCell(candidates []Pos, policy []float64, taken []Pos) (Pos, bool) {
	type scoredCell struct {
		pos   Pos
		score float64
	}
	pool := []scoredCell{}
	for _, p := range candidates {
		used := false
		for _, t := range taken {
			if t == p {
				used = true
				break
			}
		}
		if used {
			continue
		}
		score := defaultCellPrior
		if idx := p.Index(); idx < len(policy) && policy[idx] > 0 {
			score = policy[idx]
		}
		pool = append(pool, scoredCell{pos: p, score: score})
	}
	if len(pool) == 0 {
		return Pos{}, false
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].score > pool[j].score
	})
	if len(pool) > e.config.RolloutTopK {
		pool = pool[:e.config.RolloutTopK]
	}
	total := 0.0
	for _, c := range pool {
		total += c.score
	}
	pick := e.rng.Float64() * total
	acc := 0.0
	for _, c := range pool {
		acc += c.score
		if pick <= acc {
			return c.pos, true
		}
	}
	return pool[len(pool)-1].pos, true
}

func terminalWinRate(state GameState, rootPlayer PlayerColor) float64 {
	if winner, ok := state.Winner(); ok {
		if winner == rootPlayer {
			return 1
		}
		return 0
	}
	return 0.5
}

// sampleDirichlet draws a symmetric Dirichlet(alpha) vector via gamma
// sampling (Marsaglia-Tsang, with the alpha<1 boost).
func (e *MCTSEngine) sampleDirichlet(n int) []float64 {
	out := make([]float64, n)
	total := 0.0
	for i := range out {
		out[i] = e.sampleGamma(dirichletAlpha)
		total += out[i]
	}
	if total <= 0 {
		for i := range out {
			out[i] = 1.0 / float64(n)
		}
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func (e *MCTSEngine) sampleGamma(alpha float64) float64 {
	if alpha < 1 {
		u := e.rng.Float64()
		for u == 0 {
			u = e.rng.Float64()
		}
		return e.sampleGamma(alpha+1) * math.Pow(u, 1/alpha)
	}
	d := alpha - 1.0/3
	c := 1 / math.Sqrt(9*d)
	for {
		x := e.rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := e.rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
