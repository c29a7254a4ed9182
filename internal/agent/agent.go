// Package agent implements the per-tick orchestration described in
// spec.md §4.8, grounded end to end on
// original_source/prot-2-env-sfml/src/model/Agent.{hpp,cpp}.
package agent

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/nanosatlab/aeodss/internal/config"
	"github.com/nanosatlab/aeodss/internal/envmodel"
	"github.com/nanosatlab/aeodss/internal/ga"
	"github.com/nanosatlab/aeodss/internal/intent"
	"github.com/nanosatlab/aeodss/internal/predictor"
	"github.com/nanosatlab/aeodss/internal/randsrc"
	"github.com/nanosatlab/aeodss/internal/vector"
)

// concurrentIntentCap is the Agent policy limit from spec.md §4.2: no more
// than 3 concurrently-live intents per agent.
const concurrentIntentCap = 3

// minIntentDuration is the greedy planner's minimum viable intent length
// (time units), ported verbatim from Agent::plan's `i_duration >= 60.f`.
const minIntentDuration = 60.0

// Agent is one autonomous sensor: a predicted trajectory, an intent
// handler, and an owned environment model, orchestrated once per tick.
type Agent struct {
	ID    string
	Swath float64
	Range float64
	Speed float64

	cfg       config.Config
	rng       *randsrc.Source
	horizon   *predictor.Horizon
	intents   *intent.Handler
	env       *envmodel.Model
	scheduler *ga.Scheduler

	currentTime float64
	worldW      float64
	worldH      float64
}

// New creates an Agent at a uniformly random position with a random
// heading, swath and communication range, per Agent's randomized
// constructor.
func New(id string, cfg config.Config, rng *randsrc.Source) *Agent {
	pos := vector.Vector2{
		X: rng.UniformReal(0, cfg.WorldWidth),
		Y: rng.UniformReal(0, cfg.WorldHeight),
	}
	return newAt(id, cfg, rng, pos)
}

func newAt(id string, cfg config.Config, rng *randsrc.Source, pos vector.Vector2) *Agent {
	swath := rng.UniformReal(cfg.AgentSwathMax, cfg.AgentSwathMin)
	rng2 := rng.UniformReal(cfg.AgentRangeMax, cfg.AgentRangeMin)
	theta := rng.UniformReal(0, 360) * math.Pi / 180

	vel := vector.Vector2{X: cfg.AgentSpeed * math.Cos(theta), Y: cfg.AgentSpeed * math.Sin(theta)}
	predictSize := rng.UniformInt(1, cfg.AgentPropagationSize)

	a := &Agent{
		ID:      id,
		Swath:   swath,
		Range:   rng2,
		Speed:   cfg.AgentSpeed,
		cfg:     cfg,
		rng:     rng,
		intents: intent.NewHandler(id),
		env:     envmodel.New(cfg.ModelWidth(), cfg.ModelHeight(), cfg.WorldWidth, cfg.WorldHeight, 1),
		worldW:  cfg.WorldWidth,
		worldH:  cfg.WorldHeight,
	}

	initial := predictor.State{Position: pos, Velocity: vel, Resource: 0}
	a.horizon = predictor.New(initial, 0, predictSize, cfg.TimeStep, cfg.WorldWidth, cfg.WorldHeight, cfg.CapacityRestore, cfg.MaxCapacity)

	a.env.SetLayerFunction(0, envmodel.FreshnessUpdate(func() float64 { return a.currentTime }, cfg.MaxRevisitTime))

	if cfg.PlannerKind == config.PlannerGA {
		a.scheduler = ga.New(cfg, rng)
	}
	return a
}

// Position returns the agent's current-step world position.
func (a *Agent) Position() vector.Vector2 { return a.horizon.Current().State.Position }

// Velocity returns the agent's current-step velocity.
func (a *Agent) Velocity() vector.Vector2 { return a.horizon.Current().State.Velocity }

// Resource returns the agent's current-step resource level.
func (a *Agent) Resource() float64 { return a.horizon.Current().State.Resource }

// Time returns the agent's current simulation time.
func (a *Agent) Time() float64 { return a.currentTime }

// Intents returns the agent's intent handler, for the Communication Medium
// to exchange with peers.
func (a *Agent) Intents() *intent.Handler { return a.intents }

// SegmentViews exposes the intent handler's telemetry view table.
func (a *Agent) SegmentViews() intent.SegmentTable { return a.intents.Views() }

// Tick advances the agent by one time step: advance (pop the horizon head
// and re-extend the tail) -> plan -> execute -> refresh.
func (a *Agent) Tick(ctx context.Context) {
	head := a.horizon.Advance()
	a.currentTime = head.Time

	a.plan(ctx)
	a.execute()
	a.env.UpdateAll()
}

// plan invokes either the greedy planner (default) or, when configured, the
// GA-backed scheduler, per spec.md §9's resolved Open Question.
func (a *Agent) plan(ctx context.Context) {
	if a.intents.IntentCount(a.ID, a.currentTime) >= concurrentIntentCap {
		return
	}
	if a.cfg.PlannerKind == config.PlannerGA {
		a.planGA(ctx)
		return
	}
	a.planGreedy()
}

// planGreedy is a direct port of Agent::plan: it walks the prediction
// horizon and opens a run at a step where resource is at least 70% of
// capacity and the agent is not close to the world boundary, closes the run
// when the projected resource would fall to 10% of capacity or below, the
// agent comes close to the boundary, or the horizon ends, and commits it as
// a new intent only if it is at least 60 time units long.
func (a *Agent) planGreedy() {
	lastIntentTime := a.intents.LastIntentTime(a.ID)
	steps := a.horizon.TimesAfter(lastIntentTime)

	creating := false
	continueRun := false
	var tStart float64
	var pStart vector.Vector2
	var startResource float64

	for idx, s := range steps {
		if a.intents.IntentCount(a.ID, a.currentTime) >= concurrentIntentCap {
			break
		}
		isLast := idx == len(steps)-1

		if !creating {
			if s.State.Resource >= a.cfg.MaxCapacity*0.7 && !a.isCloseToBounds(s.State.Position) && !isLast {
				creating = true
				continueRun = true
				startResource = s.State.Resource
				tStart = s.Time
				pStart = s.State.Position
			}
			continue
		}

		duration := s.Time - tStart
		continueRun = continueRun &&
			startResource-duration*(a.cfg.CapacityConsume-a.cfg.CapacityRestore) > a.cfg.MaxCapacity*0.1 &&
			!a.isCloseToBounds(s.State.Position) &&
			!isLast

		if !continueRun {
			if duration >= minIntentDuration {
				i := intent.New(a.ID, tStart, s.Time, a.Swath)
				i.Positions[tStart] = pStart
				i.Positions[s.Time] = s.State.Position
				a.intents.CreateIntent(i)
				lastIntentTime = s.Time
				a.recomputeResource()
			}
			creating = false
		}
	}
	_ = lastIntentTime
}

// planGA routes planning through the GA scheduler: rewards are sampled
// along the prediction horizon from the agent's own environment model, and
// the returned intents are committed directly.
func (a *Agent) planGA(ctx context.Context) {
	steps := a.horizon.TimesAfter(a.currentTime)
	if len(steps) == 0 {
		return
	}
	rewards := make([]float64, len(steps))
	for i, s := range steps {
		rewards[i] = a.computeRewardAt(s.State.Position)
	}
	a.scheduler.SetSchedulingWindow(steps[0].Time, steps[len(steps)-1].Time)
	// Rewards are indexed against allele Start/Duration, which are 0-based
	// offsets into the scheduling window, not absolute simulation time;
	// Schedule re-adds windowStart when it converts alleles back to Intents.
	a.scheduler.SetRewards(rewards, 0)
	a.scheduler.SetInitialResource(steps[0].State.Resource)
	a.scheduler.InitPopulation()

	newIntents, err := a.scheduler.Schedule(ctx, a.ID)
	if err != nil {
		log.Warn().Err(err).Str("agent", a.ID).Msg("agent: GA scheduling failed")
		return
	}
	for _, i := range newIntents {
		if a.intents.IntentCount(a.ID, a.currentTime) >= concurrentIntentCap {
			break
		}
		i.Positions[i.TStart] = a.positionAtOrNearest(i.TStart)
		i.Positions[i.TEnd] = a.positionAtOrNearest(i.TEnd)
		a.intents.CreateIntent(i)
	}
	a.recomputeResource()
}

func (a *Agent) positionAtOrNearest(t float64) vector.Vector2 {
	for _, s := range a.horizon.Steps {
		if s.Time == t {
			return s.State.Position
		}
	}
	return a.Position()
}

// computeRewardAt samples the owned environment model's layer-0 freshness
// value at the given position, the currency the GA scheduler optimizes
// against (spec.md §4.5, §9 vector-form resolution).
func (a *Agent) computeRewardAt(p vector.Vector2) float64 {
	return a.env.GetValue(p.X, p.Y, 0)
}

// execute stamps the environment cells under the payload footprint when the
// agent has an active intent at the current time, per Agent::execute. The
// original's `255.f` sentinel (a display-scale byte value) is mapped to
// `1.0`, the maximally-fresh value in this model's [0,1] cell range.
func (a *Agent) execute() {
	if a.intents.IsActiveAt(a.currentTime) {
		p := a.Position()
		a.env.SetValue(a.currentTime, p.X, p.Y, 1.0, a.Swath/2, 0)
	}
}

// recomputeResource re-derives the resource trajectory of the remaining
// horizon from the current head, per Agent::recomputeResource. A negative
// resource is a fatal invariant violation, never recovered here.
func (a *Agent) recomputeResource() {
	a.horizon.RecomputeResource(a.ID, a.cfg.CapacityConsume, func(t float64) int {
		return a.intents.ActiveIntentsAt(t, a.ID)
	})
}

// isCloseToBounds mirrors Agent::isCloseToBounds: true if p is within
// swath/2 of any world edge.
func (a *Agent) isCloseToBounds(p vector.Vector2) bool {
	d := a.Swath / 2
	return p.X <= d || p.X >= a.worldW-d || p.Y <= d || p.Y >= a.worldH-d
}

// ProcessReceivedIntents merges a gossiped intent table, used by the
// Communication Medium during the per-tick exchange phase.
func (a *Agent) ProcessReceivedIntents(table intent.Table) {
	a.intents.ProcessReceived(table)
}

// OutgoingIntents returns the subset of this agent's intent table not
// already present in exclude, for delta gossip exchange.
func (a *Agent) OutgoingIntents(exclude intent.Table) intent.Table {
	return a.intents.GetIntentsFiltered(intent.Opts{Filter: intent.SelectAll}, exclude)
}
