// Package ga implements the GA chromosome and scheduler from spec.md
// §4.6-§4.7, grounded on
// original_source/prot-2-env-sfml/src/scheduler/GASChromosome.{hpp,cpp} and
// GAScheduler.{hpp,cpp}.
package ga

import (
	"github.com/nanosatlab/aeodss/internal/config"
	"github.com/nanosatlab/aeodss/internal/randsrc"
)

// Allele is one candidate activation interval, expressed in scheduling
// window time indices.
type Allele struct {
	Enabled  bool
	Start    int
	Duration int
}

// Chromosome is a fixed-length genome of max_tasks alleles plus a cached
// fitness value.
type Chromosome struct {
	Alleles     []Allele
	Fitness     float64
	span        int
	maxDuration int
}

// NewRandom builds a chromosome of maxTasks alleles, randomly initialized
// per spec.md §4.6: enabled ~ Bernoulli(1/2), t_start uniform in
// [0, span-1], duration uniform in [1, min(span-t_start, maxDuration)].
func NewRandom(maxTasks, span, maxDuration int, rng *randsrc.Source) *Chromosome {
	c := &Chromosome{span: span, maxDuration: maxDuration}
	c.Alleles = make([]Allele, maxTasks)
	for i := range c.Alleles {
		c.Alleles[i] = randomAllele(span, maxDuration, rng)
	}
	return c
}

func randomAllele(span, maxDuration int, rng *randsrc.Source) Allele {
	start := rng.UniformInt(0, span-1)
	maxD := span - start
	if maxDuration < maxD {
		maxD = maxDuration
	}
	if maxD < 1 {
		maxD = 1
	}
	return Allele{
		Enabled:  rng.Bool(),
		Start:    start,
		Duration: rng.UniformInt(1, maxD),
	}
}

// Clone returns a deep copy of c.
func (c *Chromosome) Clone() *Chromosome {
	cp := &Chromosome{
		Fitness:     c.Fitness,
		span:        c.span,
		maxDuration: c.maxDuration,
		Alleles:     make([]Allele, len(c.Alleles)),
	}
	copy(cp.Alleles, c.Alleles)
	return cp
}

// ActiveSlotCount returns the number of enabled alleles.
func (c *Chromosome) ActiveSlotCount() int {
	n := 0
	for _, a := range c.Alleles {
		if a.Enabled {
			n++
		}
	}
	return n
}

// Crossover produces two children from two parents using the configured
// crossover operator. If cfg.GACrossoverPoints >= len(alleles), it is reset
// to a uniformly drawn value in [1, len(alleles)-1] per spec.md §4.6.
func Crossover(p1, p2 *Chromosome, op config.CrossoverOp, crossoverPoints int, rng *randsrc.Source) (*Chromosome, *Chromosome) {
	n := len(p1.Alleles)
	c1 := &Chromosome{span: p1.span, maxDuration: p1.maxDuration, Alleles: make([]Allele, n)}
	c2 := &Chromosome{span: p2.span, maxDuration: p2.maxDuration, Alleles: make([]Allele, n)}

	if crossoverPoints >= n && n > 1 {
		crossoverPoints = rng.UniformInt(1, n-1)
	}

	switch op {
	case config.CrossoverSinglePoint:
		xoAt := rng.UniformInt(0, n-2)
		for i := 0; i < n; i++ {
			if i <= xoAt {
				c1.Alleles[i], c2.Alleles[i] = p1.Alleles[i], p2.Alleles[i]
			} else {
				c1.Alleles[i], c2.Alleles[i] = p2.Alleles[i], p1.Alleles[i]
			}
		}
	case config.CrossoverUniform:
		for i := 0; i < n; i++ {
			if rng.Bool() {
				c1.Alleles[i], c2.Alleles[i] = p1.Alleles[i], p2.Alleles[i]
			} else {
				c1.Alleles[i], c2.Alleles[i] = p2.Alleles[i], p1.Alleles[i]
			}
		}
	default: // CrossoverMultiPoint
		points := make([]int, n-1)
		for i := range points {
			points[i] = i
		}
		toRemove := (n - 1) - crossoverPoints
		for i := 0; i < toRemove; i++ {
			if len(points) == 0 {
				break
			}
			idx := rng.UniformInt(0, len(points)-1)
			points = append(points[:idx], points[idx+1:]...)
		}
		flag := true
		idx := 0
		for i := 0; i < n; i++ {
			if flag {
				c1.Alleles[i], c2.Alleles[i] = p1.Alleles[i], p2.Alleles[i]
			} else {
				c1.Alleles[i], c2.Alleles[i] = p2.Alleles[i], p1.Alleles[i]
			}
			if idx < len(points) && i == points[idx] {
				flag = !flag
				if len(points) > 1 {
					points = points[1:]
				}
			}
		}
	}
	return c1, c2
}

// Mutate perturbs each allele independently per spec.md §4.6: enable flip
// with probability mutationRateEnable; start/duration perturbed by
// round(k*Gaussian(0,std)) with probability mutationRateTimes, clamped to
// stay within the scheduling window.
func (c *Chromosome) Mutate(cfg config.Config, rng *randsrc.Source) {
	for i := range c.Alleles {
		a := &c.Alleles[i]
		if rng.UniformReal(0, 1) <= cfg.GAMutationRateEnable {
			a.Enabled = !a.Enabled
		}
		if rng.UniformReal(0, 1) <= cfg.GAMutationRateTimes {
			delta := roundf(cfg.GAGaussianMutationK1 * rng.Gaussian(0, cfg.GAGaussianMutationStd))
			a.Start += delta
			if a.Start < 0 {
				a.Start = 0
			} else if a.Start >= c.span-1 {
				a.Start = c.span - 2
				if a.Start < 0 {
					a.Start = 0
				}
			}
			if a.Start+a.Duration > c.span {
				a.Duration = c.span - a.Start
			}
		}
		if rng.UniformReal(0, 1) <= cfg.GAMutationRateTimes {
			delta := roundf(cfg.GAGaussianMutationK2 * rng.Gaussian(0, cfg.GAGaussianMutationStd))
			a.Duration += delta
			if a.Duration < 1 {
				a.Duration = 1
			} else if a.Start+a.Duration > c.span {
				a.Duration = c.span - a.Start
			}
		}
	}
}

func roundf(f float64) int {
	if f >= 0 {
		return int(f + 0.5)
	}
	return -int(-f + 0.5)
}

// Repair resolves overlaps between enabled alleles: for each overlapping
// pair (i, j), merges into i (union of bounds) and re-randomizes j as
// disabled with a fresh start/duration. O(max_tasks^2), as in the original.
func (c *Chromosome) Repair(rng *randsrc.Source) {
	n := len(c.Alleles)
	for i := 0; i < n; i++ {
		if !c.Alleles[i].Enabled {
			continue
		}
		for j := 0; j < n; j++ {
			if i == j || !c.Alleles[j].Enabled {
				continue
			}
			si, ei := c.Alleles[i].Start, c.Alleles[i].Start+c.Alleles[i].Duration
			sj, ej := c.Alleles[j].Start, c.Alleles[j].Start+c.Alleles[j].Duration
			if (sj <= ei && sj >= si) || (si <= ej && si >= sj) {
				tEnd := max(ei, ej)
				c.Alleles[i].Start = min(si, sj)
				c.Alleles[i].Duration = tEnd - c.Alleles[i].Start
				c.Alleles[j] = randomAllele(c.span, c.maxDuration, rng)
				c.Alleles[j].Enabled = false
			}
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
