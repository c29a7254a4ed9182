package ga

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nanosatlab/aeodss/internal/config"
	"github.com/nanosatlab/aeodss/internal/randsrc"
)

func overlaps(a, b Allele) bool {
	ea, eb := a.Start+a.Duration, b.Start+b.Duration
	return (b.Start <= ea && b.Start >= a.Start) || (a.Start <= eb && a.Start >= b.Start)
}

// TestRepair_NoOverlaps is Testable Property 5: after repair(), no two
// enabled alleles in a chromosome have overlapping intervals.
func TestRepair_NoOverlaps(t *testing.T) {
	rng := randsrc.New(1)
	for trial := 0; trial < 50; trial++ {
		c := NewRandom(8, 200, 100, rng)
		c.Repair(rng)
		for i := 0; i < len(c.Alleles); i++ {
			if !c.Alleles[i].Enabled {
				continue
			}
			for j := i + 1; j < len(c.Alleles); j++ {
				if !c.Alleles[j].Enabled {
					continue
				}
				assert.False(t, overlaps(c.Alleles[i], c.Alleles[j]),
					"alleles %d and %d overlap after repair", i, j)
			}
		}
	}
}

// TestRepair_OverlapMerge is scenario S4: two enabled alleles (0,50) and
// (30,40) merge into (0,70); the other is disabled.
func TestRepair_OverlapMerge(t *testing.T) {
	rng := randsrc.New(2)
	c := &Chromosome{
		span:        200,
		maxDuration: 100,
		Alleles: []Allele{
			{Enabled: true, Start: 0, Duration: 50},
			{Enabled: true, Start: 30, Duration: 40},
		},
	}
	c.Repair(rng)

	assert.True(t, c.Alleles[0].Enabled)
	assert.Equal(t, 0, c.Alleles[0].Start)
	assert.Equal(t, 70, c.Alleles[0].Duration)
	assert.False(t, c.Alleles[1].Enabled)
}

func TestCrossover_SinglePointPreservesLength(t *testing.T) {
	rng := randsrc.New(3)
	p1 := NewRandom(8, 100, 50, rng)
	p2 := NewRandom(8, 100, 50, rng)
	c1, c2 := Crossover(p1, p2, config.CrossoverSinglePoint, 2, rng)
	assert.Len(t, c1.Alleles, 8)
	assert.Len(t, c2.Alleles, 8)
}

func TestCrossover_ResetsPointCountWhenTooLarge(t *testing.T) {
	rng := randsrc.New(5)
	p1 := NewRandom(4, 100, 50, rng)
	p2 := NewRandom(4, 100, 50, rng)
	assert.NotPanics(t, func() {
		Crossover(p1, p2, config.CrossoverMultiPoint, 10, rng)
	})
}

func mutateTestConfig() config.Config {
	cfg := config.Default()
	cfg.GAMutationRateTimes = 1.0
	cfg.GAMutationRateEnable = 1.0
	return cfg
}

func TestMutate_KeepsAllelesWithinWindow(t *testing.T) {
	rng := randsrc.New(4)
	cfg := mutateTestConfig()
	c := NewRandom(8, 50, 20, rng)
	for i := 0; i < 100; i++ {
		c.Mutate(cfg, rng)
		for _, a := range c.Alleles {
			assert.GreaterOrEqual(t, a.Start, 0)
			assert.Less(t, a.Start, c.span)
			assert.GreaterOrEqual(t, a.Duration, 1)
			assert.LessOrEqual(t, a.Start+a.Duration, c.span)
		}
	}
}
