package ga

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nanosatlab/aeodss/internal/config"
	"github.com/nanosatlab/aeodss/internal/randsrc"
)

func baseSchedulerConfig() config.Config {
	cfg := config.Default()
	cfg.MaxTasks = 4
	cfg.MaxTaskDuration = 100
	cfg.CapacityRestore = 0.05
	cfg.CapacityConsume = 0.10
	cfg.MaxCapacity = 10
	cfg.GAGenerations = 20
	cfg.GAPopulationSize = 16
	cfg.GATournamentK = 2
	return cfg
}

// TestSatisfiesConstraints_SingleTaskFeasibility is scenario S3: a 100-step
// window, r0=R_max=10, one enabled allele (0,100) nets 0.05 drain per step
// -> feasible (r=5); the same allele with duration=250 is infeasible.
func TestSatisfiesConstraints_SingleTaskFeasibility(t *testing.T) {
	cfg := baseSchedulerConfig()
	rng := randsrc.New(10)
	s := New(cfg, rng)
	s.SetSchedulingWindow(0, 100)
	s.SetInitialResource(10)

	feasible := &Chromosome{
		span: 100,
		Alleles: []Allele{
			{Enabled: true, Start: 0, Duration: 100},
		},
	}
	assert.True(t, s.satisfiesConstraints(feasible))

	infeasible := &Chromosome{
		span: 250,
		Alleles: []Allele{
			{Enabled: true, Start: 0, Duration: 250},
		},
	}
	assert.False(t, s.satisfiesConstraints(infeasible))
}

// TestSchedule_ResourceFeasibility is Testable Property 6: the resource
// walk on the returned intent set never produces r<0.
func TestSchedule_ResourceFeasibility(t *testing.T) {
	cfg := baseSchedulerConfig()
	rng := randsrc.New(11)
	s := New(cfg, rng)
	s.SetSchedulingWindow(0, 100)
	s.SetInitialResource(cfg.MaxCapacity)
	rewards := make([]float64, 100)
	for i := range rewards {
		rewards[i] = 1
	}
	s.SetRewards(rewards, 0)

	intents, err := s.Schedule(context.Background(), "agent-test")
	assert.NoError(t, err)
	sort.Slice(intents, func(i, j int) bool { return intents[i].TStart < intents[j].TStart })

	r := cfg.MaxCapacity
	t0 := 0.0
	for _, iv := range intents {
		if r+cfg.CapacityRestore*(iv.TStart-t0) >= cfg.MaxCapacity {
			r = cfg.MaxCapacity
		} else {
			r += cfg.CapacityRestore * (iv.TStart - t0)
		}
		r += (cfg.CapacityRestore - cfg.CapacityConsume) * (iv.TEnd - iv.TStart)
		t0 = iv.TEnd
		assert.GreaterOrEqual(t, r, 0.0)
	}
}

// TestSchedule_FitnessMonotonicity is Testable Property 7: across
// generations, fit_max is non-decreasing under truncation/elitist
// environmental selection.
func TestSchedule_FitnessMonotonicity(t *testing.T) {
	cfg := baseSchedulerConfig()
	cfg.GAEnvironSelOp = config.EnvironSelTruncation
	rng := randsrc.New(12)
	s := New(cfg, rng)
	s.SetSchedulingWindow(0, 60)
	s.SetInitialResource(cfg.MaxCapacity)
	rewards := make([]float64, 60)
	for i := range rewards {
		rewards[i] = float64(i)
	}
	s.SetRewards(rewards, 0)
	s.InitPopulation()

	prevFitMax := 0.0
	for gen := 0; gen < 10; gen++ {
		pool := make([]*Chromosome, len(s.population))
		copy(pool, s.population)
		var children []*Chromosome
		rmax := 0.0
		for len(children) < len(s.population) {
			p1 := s.selectParent(&pool)
			p2 := s.selectParent(&pool)
			c1, c2 := Crossover(p1, p2, cfg.GACrossoverOp, cfg.GACrossoverPoints, rng)
			c1.Mutate(cfg, rng)
			c2.Mutate(cfg, rng)
			c1.Repair(rng)
			c2.Repair(rng)
			if c := s.computeConsumption(c1); c > rmax {
				rmax = c
			}
			if c := s.computeConsumption(c2); c > rmax {
				rmax = c
			}
			children = append(children, c1, c2)
		}
		assert.NoError(t, s.evaluateFitness(context.Background(), children, rmax))
		best := s.combine(s.population, children)
		assert.GreaterOrEqual(t, best.Fitness, prevFitMax)
		prevFitMax = best.Fitness
	}
}

// TestSchedule_GAImprovement is scenario S6: a deterministic reward vector
// with a single positive spike at step 42 of width 10; after evolution the
// returned schedule has an intent overlapping [42,52) and the best
// chromosome's fitness exceeds the all-zero baseline.
func TestSchedule_GAImprovement(t *testing.T) {
	cfg := baseSchedulerConfig()
	cfg.MaxCapacity = 1000
	cfg.CapacityRestore = 1
	cfg.CapacityConsume = 0
	cfg.GAGenerations = 30
	rng := randsrc.New(13)
	s := New(cfg, rng)
	s.SetSchedulingWindow(0, 100)
	s.SetInitialResource(cfg.MaxCapacity)

	rewards := make([]float64, 100)
	for i := 42; i < 52; i++ {
		rewards[i] = 10
	}
	s.SetRewards(rewards, 0)

	intents, err := s.Schedule(context.Background(), "agent-spike")
	assert.NoError(t, err)
	assert.NotEmpty(t, intents)

	overlapsSpike := false
	for _, iv := range intents {
		if iv.TStart < 52 && iv.TEnd > 42 {
			overlapsSpike = true
		}
	}
	assert.True(t, overlapsSpike, "expected the scheduled intent to cover the reward spike")
	assert.Greater(t, s.population[0].Fitness, 0.0)
}
