// Package sim drives the top-level simulation tick loop, grounded on the
// World/step structure of YimiaoHao-wator-project/world.go and
// step_seq.go, generalized from a toroidal occupancy grid to the
// multi-agent Earth-observation domain described in spec.md §2.
package sim

import (
	"context"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/nanosatlab/aeodss/internal/agent"
	"github.com/nanosatlab/aeodss/internal/comms"
	"github.com/nanosatlab/aeodss/internal/config"
	"github.com/nanosatlab/aeodss/internal/predictor"
	"github.com/nanosatlab/aeodss/internal/randsrc"
)

// World owns the set of Agents and the Communication Medium, and drives the
// tick loop deterministically given a seed: gossip between visible agents
// first, then advance -> plan -> execute -> refresh per agent.
type World struct {
	cfg    config.Config
	rng    *randsrc.Source
	agents []*agent.Agent
	medium *comms.Medium
	tick   int
	now    float64
}

// New creates a World with n_agents freshly constructed Agents, seeded
// deterministically from seed.
func New(cfg config.Config, seed int64) *World {
	rng := randsrc.New(seed)
	w := &World{cfg: cfg, rng: rng, medium: comms.New()}
	for i := 0; i < cfg.NAgents; i++ {
		a := agent.New(agentID(i), cfg, rng.Split(i))
		w.agents = append(w.agents, a)
		w.medium.Register(a)
	}
	sort.Slice(w.agents, func(i, j int) bool { return w.agents[i].ID < w.agents[j].ID })
	return w
}

func agentID(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i < 26 {
		return "agent-" + string(letters[i])
	}
	return "agent-" + string(rune('a'+i%26)) + strconv.Itoa(i/26)
}

// Tick advances the world by one time step: the Communication Medium
// exchanges intents between all currently visible agent pairs, then every agent
// runs its own advance/plan/execute/refresh cycle in stable id order.
func (w *World) Tick(ctx context.Context) {
	w.medium.Tick()
	for _, a := range w.agents {
		w.tickAgent(ctx, a)
	}
	w.tick++
	if len(w.agents) > 0 {
		w.now = w.agents[0].Time()
	}
}

// tickAgent recovers a *predictor.FatalResourceError raised by an agent's
// resource recomputation, re-panicking it with tick context attached so the
// top-level recover in cmd/aeodss can log and exit(1), per spec.md §7.
func (w *World) tickAgent(ctx context.Context, a *agent.Agent) {
	defer func() {
		if r := recover(); r != nil {
			if fe, ok := r.(*predictor.FatalResourceError); ok {
				log.Error().Str("agent", fe.AgentID).Float64("time", fe.Time).
					Float64("resource", fe.Value).Int("tick", w.tick).
					Msg("sim: fatal resource invariant violation")
			}
			panic(r)
		}
	}()
	a.Tick(ctx)
}

// Run advances the world for n ticks.
func (w *World) Run(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		w.Tick(ctx)
	}
}

// Agents exposes the registered agents in stable order, for telemetry.
func (w *World) Agents() []*agent.Agent { return w.agents }

// Now returns the current simulation time (the lead agent's current tick
// time; all agents share the same time_step cadence).
func (w *World) Now() float64 { return w.now }

// TickCount returns the number of ticks run so far.
func (w *World) TickCount() int { return w.tick }

// Snapshot builds a read-only projection of the current world state.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{Tick: w.tick, Now: w.now}
	for _, a := range w.agents {
		s.Agents = append(s.Agents, newAgentSnapshot(a))
	}
	return s
}
