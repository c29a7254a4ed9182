package ga

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/nanosatlab/aeodss/internal/config"
	"github.com/nanosatlab/aeodss/internal/intent"
	"github.com/nanosatlab/aeodss/internal/randsrc"
)

// Reward is one (time, value) sample of the reward vector, kept ordered by
// Time so fitness evaluation can binary-search into it, mirroring
// GASReward/GAScheduler::m_rewards.
type Reward struct {
	Time  float64
	Value float64
}

// Scheduler runs the GA population loop described in spec.md §4.7, grounded
// on GAScheduler.{hpp,cpp}.
type Scheduler struct {
	cfg         config.Config
	rng         *randsrc.Source
	population  []*Chromosome
	windowStart float64
	windowEnd   float64
	initRes     float64
	rewards     []Reward
}

// New creates a Scheduler with an empty population.
func New(cfg config.Config, rng *randsrc.Source) *Scheduler {
	return &Scheduler{cfg: cfg, rng: rng}
}

// SetRewards installs the reward vector for the current scheduling window,
// one value per time_step starting at t0.
func (s *Scheduler) SetRewards(rewards []float64, t0 float64) {
	s.rewards = make([]Reward, len(rewards))
	t := t0
	for i, r := range rewards {
		s.rewards[i] = Reward{Time: t, Value: r}
		t += s.cfg.TimeStep
	}
}

// SetSchedulingWindow sets [t0, t1], normalizing order.
func (s *Scheduler) SetSchedulingWindow(t0, t1 float64) {
	if t0 <= t1 {
		s.windowStart, s.windowEnd = t0, t1
	} else {
		s.windowStart, s.windowEnd = t1, t0
	}
}

// SetInitialResource sets r0 for the resource-feasibility walk.
func (s *Scheduler) SetInitialResource(r0 float64) {
	s.initRes = r0
}

func (s *Scheduler) span() int {
	n := int((s.windowEnd - s.windowStart) / s.cfg.TimeStep)
	if n < 1 {
		n = 1
	}
	return n
}

// InitPopulation seeds a fresh population of ga_population_size random
// chromosomes.
func (s *Scheduler) InitPopulation() {
	s.population = make([]*Chromosome, s.cfg.GAPopulationSize)
	span := s.span()
	for i := range s.population {
		s.population[i] = NewRandom(s.cfg.MaxTasks, span, s.cfg.MaxTaskDuration, s.rng)
	}
}

func stopGeneration(cfg config.Config, gencount int, prevFitMax, fitMax float64) bool {
	if gencount < cfg.GAGenerations {
		return false
	}
	if gencount >= cfg.GAGenerations*2 {
		return true
	}
	if fitMax == 0 {
		return false
	}
	return (fitMax-prevFitMax)/fitMax <= 0.001
}

// Schedule runs the generation loop to termination and converts the best
// feasible chromosome into a set of Intents. Returns nil (logged) if the
// best solution violates resource constraints.
func (s *Scheduler) Schedule(ctx context.Context, agentID string) ([]intent.Intent, error) {
	if len(s.population) == 0 {
		s.InitPopulation()
	}

	var best *Chromosome
	prevFitMax, fitMax := 0.0, 0.0
	generation := 0

	for !stopGeneration(s.cfg, generation, prevFitMax, fitMax) {
		generation++

		pool := make([]*Chromosome, len(s.population))
		copy(pool, s.population)

		children := make([]*Chromosome, 0, len(s.population))
		rmax := 0.0
		for len(children) < len(s.population) {
			p1 := s.selectParent(&pool)
			p2 := s.selectParent(&pool)
			c1, c2 := Crossover(p1, p2, s.cfg.GACrossoverOp, s.cfg.GACrossoverPoints, s.rng)
			c1.Mutate(s.cfg, s.rng)
			c2.Mutate(s.cfg, s.rng)
			c1.Repair(s.rng)
			c2.Repair(s.rng)
			if c := s.computeConsumption(c1); c > rmax {
				rmax = c
			}
			if c := s.computeConsumption(c2); c > rmax {
				rmax = c
			}
			children = append(children, c1, c2)
		}

		if err := s.evaluateFitness(ctx, children, rmax); err != nil {
			return nil, err
		}

		best = s.combine(s.population, children)
		prevFitMax = fitMax
		fitMax = best.Fitness
	}

	if best == nil || !s.satisfiesConstraints(best) {
		log.Warn().Str("agent", agentID).Msg("ga: best solution violates resource constraints, returning empty schedule")
		return nil, nil
	}

	var out []intent.Intent
	for _, a := range best.Alleles {
		if !a.Enabled {
			continue
		}
		start := s.windowStart + float64(a.Start)*s.cfg.TimeStep
		end := start + float64(a.Duration)*s.cfg.TimeStep
		out = append(out, intent.New(agentID, start, end, 0))
	}
	return out, nil
}

// evaluateFitness computes fitness for every child, in parallel across a
// deterministic per-child substream split from s.rng, grounded on the
// row-sharded worker pool pattern in YimiaoHao-wator-project/step_par.go.
func (s *Scheduler) evaluateFitness(ctx context.Context, children []*Chromosome, rmax float64) error {
	g, _ := errgroup.WithContext(ctx)
	for i, c := range children {
		i, c := i, c
		sub := s.rng.Split(i)
		g.Go(func() error {
			s.computeFitness(c, rmax, sub)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) computeConsumption(c *Chromosome) float64 {
	acc := 0.0
	for _, a := range c.Alleles {
		if a.Enabled {
			acc += float64(a.Duration) * s.cfg.CapacityConsume
		}
	}
	return acc
}

// computeFitness implements the exact formula from spec.md §4.7:
// fitness = reward(c) * penalty(c) * modifier(c). rng is unused by this
// deterministic formula but threaded through so future stochastic reward
// sampling can use the caller's own substream rather than a shared one.
func (s *Scheduler) computeFitness(c *Chromosome, rnormFactor float64, _ *randsrc.Source) {
	acc, accResources := 0.0, 0.0
	for _, a := range c.Alleles {
		if !a.Enabled {
			continue
		}
		acc += s.sumRewards(float64(a.Start), float64(a.Start+a.Duration))
		accResources += float64(a.Duration) * s.cfg.CapacityConsume
	}
	if rnormFactor > 0 {
		accResources = 1 - accResources/rnormFactor
	} else {
		accResources = 1
	}
	modifier := 1e-5
	if s.satisfiesConstraints(c) {
		modifier = 1
	}
	c.Fitness = acc * accResources * modifier
}

// sumRewards sums reward values over the half-open index range [t0, t1) in
// the reward vector, located with a pair of lower-bound binary searches.
func (s *Scheduler) sumRewards(t0, t1 float64) float64 {
	i0 := sort.Search(len(s.rewards), func(i int) bool { return s.rewards[i].Time >= t0 })
	i1 := sort.Search(len(s.rewards), func(i int) bool { return s.rewards[i].Time >= t1 })
	if i0 >= len(s.rewards) || i1 > len(s.rewards) {
		return 0
	}
	sum := 0.0
	for i := i0; i < i1; i++ {
		if s.rewards[i].Value != 0 {
			sum += s.rewards[i].Value
		}
	}
	return sum
}

// satisfiesConstraints walks enabled intervals in time order from r0,
// charging at capacity_restore between intervals (capped at max_capacity)
// and draining at capacity_restore-capacity_consume inside them. Infeasible
// iff resource ever goes negative.
func (s *Scheduler) satisfiesConstraints(c *Chromosome) bool {
	type interval struct{ t0, t1 int }
	var ivals []interval
	for _, a := range c.Alleles {
		if a.Enabled {
			ivals = append(ivals, interval{a.Start, a.Start + a.Duration})
		}
	}
	sort.Slice(ivals, func(i, j int) bool { return ivals[i].t0 < ivals[j].t0 })

	r := s.initRes
	t := 0.0
	for _, iv := range ivals {
		t0, t1 := float64(iv.t0), float64(iv.t1)
		if r+s.cfg.CapacityRestore*(t0-t) >= s.cfg.MaxCapacity {
			r = s.cfg.MaxCapacity
		} else {
			r += s.cfg.CapacityRestore * (t0 - t)
		}
		r += (s.cfg.CapacityRestore - s.cfg.CapacityConsume) * (t1 - t0)
		t = t1
		if r < 0 {
			return false
		}
	}
	return true
}

// selectParent runs a k-tournament over pool, removing the winner from pool
// afterward so it cannot be re-selected this round.
func (s *Scheduler) selectParent(pool *[]*Chromosome) *Chromosome {
	p := *pool
	var winner *Chromosome
	winIdx := -1
	for k := 0; k < s.cfg.GATournamentK; k++ {
		idx := s.rng.UniformInt(0, len(p)-1)
		if winner == nil || p[idx].Fitness > winner.Fitness {
			winner = p[idx]
			winIdx = idx
		}
	}
	*pool = append(p[:winIdx], p[winIdx+1:]...)
	return winner
}

// combine applies the configured environmental-selection operator and
// returns the new best individual, updating s.population in place.
func (s *Scheduler) combine(parents, children []*Chromosome) *Chromosome {
	switch s.cfg.GAEnvironSelOp {
	case config.EnvironSelGenerational:
		pop := make([]*Chromosome, len(children))
		copy(pop, children)
		sort.Slice(pop, func(i, j int) bool { return pop[i].Fitness > pop[j].Fitness })
		s.population = pop
	default: // EnvironSelTruncation
		pc := make([]*Chromosome, 0, len(parents)+len(children))
		pc = append(pc, parents...)
		pc = append(pc, children...)
		sort.Slice(pc, func(i, j int) bool { return pc[i].Fitness > pc[j].Fitness })
		if len(pc) > s.cfg.GAPopulationSize {
			pc = pc[:s.cfg.GAPopulationSize]
		}
		s.population = pc
	}
	return s.population[0]
}
