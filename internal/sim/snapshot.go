package sim

import (
	"github.com/nanosatlab/aeodss/internal/agent"
	"github.com/nanosatlab/aeodss/internal/intent"
)

// IntentSegment is the telemetry-facing view of one of an agent's intents.
type IntentSegment struct {
	ID     string  `json:"id"`
	Owned  bool    `json:"owned"`
	Active bool    `json:"active"`
	Done   bool    `json:"done"`
	TStart float64 `json:"t_start"`
	TEnd   float64 `json:"t_end"`
}

// AgentSnapshot is a read-only per-tick projection of one agent's state.
type AgentSnapshot struct {
	ID       string          `json:"id"`
	Position [2]float64      `json:"position"`
	Velocity [2]float64      `json:"velocity"`
	Resource float64         `json:"resource"`
	Swath    float64         `json:"swath"`
	Range    float64         `json:"range"`
	Segments []IntentSegment `json:"segments"`
}

func newAgentSnapshot(a *agent.Agent) AgentSnapshot {
	p, v := a.Position(), a.Velocity()
	s := AgentSnapshot{
		ID:       a.ID,
		Position: [2]float64{p.X, p.Y},
		Velocity: [2]float64{v.X, v.Y},
		Resource: a.Resource(),
		Swath:    a.Swath,
		Range:    a.Range,
	}
	for _, byID := range a.SegmentViews() {
		for _, seg := range byID {
			s.Segments = append(s.Segments, segmentFromView(seg))
		}
	}
	return s
}

func segmentFromView(seg *intent.Segment) IntentSegment {
	return IntentSegment{
		ID:     seg.Intent.ID.String(),
		Owned:  seg.Owned,
		Active: seg.Active,
		Done:   seg.Done,
		TStart: seg.Intent.TStart,
		TEnd:   seg.Intent.TEnd,
	}
}

// Snapshot is a read-only, per-tick JSON projection of world state for
// external renderers/telemetry consumers, the concrete shape of the
// "Rendering: consumes read-only snapshots" external interface from
// spec.md §6.
type Snapshot struct {
	Tick   int             `json:"tick"`
	Now    float64         `json:"now"`
	Agents []AgentSnapshot `json:"agents"`
}
