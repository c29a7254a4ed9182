// Package predictor implements the per-agent trajectory predictor from
// spec.md §4.3, grounded on Agent::propagateState and
// Agent::recomputeResource in
// original_source/prot-2-env-sfml/src/model/Agent.cpp.
package predictor

import (
	"sort"

	"github.com/nanosatlab/aeodss/internal/motion"
	"github.com/nanosatlab/aeodss/internal/vector"
)

// State is an agent's physical and resource state at one instant.
type State struct {
	Position vector.Vector2
	Velocity vector.Vector2
	Resource float64
}

// Step is one (time, state) pair of a PredictionHorizon.
type Step struct {
	Time  float64
	State State
}

// Horizon is a time-ordered, front-trimmed/back-extended sequence of future
// states, bounded to PredictSize entries.
type Horizon struct {
	Steps       []Step
	PredictSize int
	TimeStep    float64
	WorldW      float64
	WorldH      float64
	RestoreRate float64
	MaxCapacity float64
}

// New creates a Horizon seeded with a single initial step.
func New(initial State, t0 float64, predictSize int, dt, worldW, worldH, restore, maxCapacity float64) *Horizon {
	h := &Horizon{
		PredictSize: predictSize,
		TimeStep:    dt,
		WorldW:      worldW,
		WorldH:      worldH,
		RestoreRate: restore,
		MaxCapacity: maxCapacity,
	}
	h.Steps = append(h.Steps, Step{Time: t0, State: initial})
	h.Extend()
	return h
}

// Extend appends states (free-charging resource rule, reflective motion)
// until the horizon reaches PredictSize entries.
func (h *Horizon) Extend() {
	for len(h.Steps) < h.PredictSize {
		if len(h.Steps) == 0 {
			return
		}
		last := h.Steps[len(h.Steps)-1]
		t := last.Time + h.TimeStep
		dp := last.State.Velocity.Scale(h.TimeStep)
		p, v := motion.Move(last.State.Position, last.State.Velocity, dp, h.WorldW, h.WorldH)
		r := last.State.Resource + h.RestoreRate
		if r > h.MaxCapacity {
			r = h.MaxCapacity
		}
		h.Steps = append(h.Steps, Step{Time: t, State: State{Position: p, Velocity: v, Resource: r}})
	}
}

// Advance pops and returns the head step (the new "current" state), then
// re-extends the tail.
func (h *Horizon) Advance() Step {
	if len(h.Steps) == 0 {
		return Step{}
	}
	head := h.Steps[0]
	h.Steps = h.Steps[1:]
	h.Extend()
	return head
}

// Current returns the head step without consuming it.
func (h *Horizon) Current() Step {
	if len(h.Steps) == 0 {
		return Step{}
	}
	return h.Steps[0]
}

// FatalResourceError is raised when RecomputeResource would drive the
// resource negative: per spec.md §7, this is a bug, not a runtime condition,
// and is never recovered except at the top of main to log and exit(1).
type FatalResourceError struct {
	AgentID string
	Time    float64
	Value   float64
}

func (e *FatalResourceError) Error() string {
	return "predictor: negative resource capacity reached"
}

// RecomputeResource re-walks the horizon from its current head forward,
// subtracting consumeRate*activeOwnIntents(t) in addition to the restore
// rate at each step after the head (capped at MaxCapacity), per spec.md
// §4.3 rule 3. The head's resource is kept as is. It panics with
// *FatalResourceError if any step would go negative.
func (h *Horizon) RecomputeResource(agentID string, consumeRate float64, activeOwnIntentsAt func(t float64) int) {
	if len(h.Steps) == 0 {
		return
	}
	r := h.Steps[0].State.Resource
	for i := 1; i < len(h.Steps); i++ {
		active := activeOwnIntentsAt(h.Steps[i].Time)
		r += h.RestoreRate - float64(active)*consumeRate
		if r > h.MaxCapacity {
			r = h.MaxCapacity
		}
		h.Steps[i].State.Resource = r
		if r < 0 {
			panic(&FatalResourceError{AgentID: agentID, Time: h.Steps[i].Time, Value: r})
		}
	}
}

// TimesAfter returns the horizon steps with time strictly greater than t,
// in time order (horizon steps are already ordered; the result is still
// sorted by time as a defensive measure).
func (h *Horizon) TimesAfter(t float64) []Step {
	out := make([]Step, 0, len(h.Steps))
	for _, s := range h.Steps {
		if s.Time > t {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
