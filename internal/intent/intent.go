// Package intent implements the planned-activation record and its handler,
// grounded on
// original_source/prot-2-env-sfml/src/model/Intent.{hpp,cpp} and
// IntentHandler.{hpp,cpp}.
package intent

import (
	"sort"

	"github.com/google/uuid"

	"github.com/nanosatlab/aeodss/internal/vector"
)

// Intent is a planned payload-active interval owned by one agent.
type Intent struct {
	ID        uuid.UUID
	AgentID   string
	TStart    float64
	TEnd      float64
	Positions map[float64]vector.Vector2 // time -> position, contains at least TStart and TEnd
	Swath     float64
}

// New creates an Intent with a fresh id. The caller is responsible for
// setting Positions (at minimum TStart and TEnd) before sharing it.
func New(agentID string, tStart, tEnd, swath float64) Intent {
	return Intent{
		ID:        uuid.New(),
		AgentID:   agentID,
		TStart:    tStart,
		TEnd:      tEnd,
		Positions: make(map[float64]vector.Vector2),
		Swath:     swath,
	}
}

// PositionAt linearly interpolates the intent's recorded position at time t,
// clamping to the start/end position outside [TStart, TEnd].
func (i Intent) PositionAt(t float64) vector.Vector2 {
	if len(i.Positions) == 0 {
		return vector.Vector2{}
	}
	if t <= i.TStart {
		return i.Positions[i.TStart]
	}
	if t >= i.TEnd {
		return i.Positions[i.TEnd]
	}
	times := i.sortedTimes()
	for idx := 1; idx < len(times); idx++ {
		if times[idx] >= t {
			t0, t1 := times[idx-1], times[idx]
			p0, p1 := i.Positions[t0], i.Positions[t1]
			if t1 == t0 {
				return p0
			}
			progress := (t - t0) / (t1 - t0)
			return p0.Add(p1.Sub(p0).Scale(progress))
		}
	}
	return i.Positions[times[len(times)-1]]
}

func (i Intent) sortedTimes() []float64 {
	times := make([]float64, 0, len(i.Positions))
	for t := range i.Positions {
		times = append(times, t)
	}
	sort.Float64s(times)
	return times
}

// Selection is a bit-combinable filter for IntentHandler.GetIntents.
type Selection int

const (
	SelectAll    Selection = 0x00
	SelectFuture Selection = 0x01
	SelectOwn    Selection = 0x02
)

func (s Selection) has(bit Selection) bool { return s&bit == bit }

// Table maps agent id -> intent id -> Intent.
type Table map[string]map[uuid.UUID]Intent

// Segment is the per-intent view/rendering state tracked alongside the
// handler's own table: ownership plus active/done flags, mirroring
// IntentHandler's SegmentView bookkeeping.
type Segment struct {
	Intent   Intent
	Owned    bool
	Active   bool
	Done     bool
}

// SegmentTable mirrors Table but carries Segment view state.
type SegmentTable map[string]map[uuid.UUID]*Segment

// Opts configures a GetIntents query.
type Opts struct {
	Filter   Selection
	AgentID  string
	NIntents int // <= 0 means unlimited
	Time     float64
}

// Handler stores, exchanges and ages planned activations across agents. Each
// Handler is owned by exactly one agent and stores intents it owns plus
// read-only copies of peers' intents received via gossip.
type Handler struct {
	agentID string
	intents Table
	views   SegmentTable
}

// NewHandler creates a Handler for the given owning agent id.
func NewHandler(agentID string) *Handler {
	return &Handler{
		agentID: agentID,
		intents: make(Table),
		views:   make(SegmentTable),
	}
}

// CreateIntent inserts an intent owned by this handler's agent.
func (h *Handler) CreateIntent(i Intent) {
	i.AgentID = h.agentID
	if h.intents[h.agentID] == nil {
		h.intents[h.agentID] = make(map[uuid.UUID]Intent)
	}
	h.intents[h.agentID][i.ID] = i
	h.setView(h.agentID, i, true)
}

// ProcessReceived merges a gossiped intent table into the local store. An
// intent already known locally under the same (agentID, intentID) is never
// replaced by the received copy — see DESIGN.md's resolution of the
// "merge policy" open question in spec.md §9.
func (h *Handler) ProcessReceived(table Table) {
	for agentID, byID := range table {
		if h.intents[agentID] == nil {
			h.intents[agentID] = make(map[uuid.UUID]Intent)
		}
		for id, i := range byID {
			if _, ok := h.intents[agentID][id]; ok {
				continue // first-write-wins: ignore the newer copy.
			}
			h.intents[agentID][id] = i
			h.setView(agentID, i, agentID == h.agentID)
		}
	}
}

func (h *Handler) setView(agentID string, i Intent, owned bool) {
	if h.views[agentID] == nil {
		h.views[agentID] = make(map[uuid.UUID]*Segment)
	}
	h.views[agentID][i.ID] = &Segment{Intent: i, Owned: owned}
}

// GetIntents returns the full intent table (no filter).
func (h *Handler) GetIntents() Table {
	return h.GetIntentsFiltered(Opts{Filter: SelectAll}, nil)
}

// GetIntentsFiltered filters by {ALL|OWN|FUTURE} (bit-combinable), optional
// agent id, optional max count, and an optional exclude table (for delta
// gossip exchange).
func (h *Handler) GetIntentsFiltered(opt Opts, exclude Table) Table {
	onlyOwned := opt.Filter.has(SelectOwn)
	onlyFuture := opt.Filter.has(SelectFuture)
	aid := opt.AgentID
	if onlyOwned {
		aid = h.agentID
	}
	singleAgent := aid != ""

	result := make(Table)
	count := 0
	emit := func(agentID string, i Intent) bool {
		if onlyFuture && opt.Time >= i.TStart {
			return true
		}
		if exclude != nil {
			if byID, ok := exclude[agentID]; ok {
				if _, ok := byID[i.ID]; ok {
					return true
				}
			}
		}
		if opt.NIntents > 0 && count >= opt.NIntents {
			return false
		}
		count++
		if result[agentID] == nil {
			result[agentID] = make(map[uuid.UUID]Intent)
		}
		result[agentID][i.ID] = i
		return true
	}

	if singleAgent {
		for _, i := range h.intents[aid] {
			if !emit(aid, i) {
				break
			}
		}
		return result
	}
	for agentID, byID := range h.intents {
		for _, i := range byID {
			if !emit(agentID, i) {
				break
			}
		}
	}
	return result
}

// IntentCount returns the number of agentID's intents whose TEnd > now.
func (h *Handler) IntentCount(agentID string, now float64) int {
	byID, ok := h.intents[agentID]
	if !ok {
		return 0
	}
	count := 0
	for _, i := range byID {
		if now < i.TEnd {
			count++
		}
	}
	return count
}

// TotalIntentCount returns the number of intents across all agents.
func (h *Handler) TotalIntentCount() int {
	total := 0
	for _, byID := range h.intents {
		total += len(byID)
	}
	return total
}

// ActiveIntentsAt returns the count of agentID's intents active at time t
// (t in [TStart, TEnd)).
func (h *Handler) ActiveIntentsAt(t float64, agentID string) int {
	byID, ok := h.intents[agentID]
	if !ok {
		return 0
	}
	count := 0
	for _, i := range byID {
		if t >= i.TStart && t < i.TEnd {
			count++
		}
	}
	return count
}

// IsActiveAt reports whether this handler's own agent has any active intent
// at t. As a side effect, it marks each own intent active/done in the view
// table, for telemetry purposes.
func (h *Handler) IsActiveAt(t float64) bool {
	byID, ok := h.intents[h.agentID]
	if !ok {
		return false
	}
	active := false
	for id, i := range byID {
		seg := h.views[h.agentID][id]
		switch {
		case t >= i.TStart && t <= i.TEnd:
			if seg != nil {
				seg.Active = true
			}
			active = true
		case t > i.TEnd:
			if seg != nil {
				seg.Done = true
			}
		}
	}
	return active
}

// LastIntentTime returns the TEnd of agentID's latest intent, or 0 if none.
func (h *Handler) LastIntentTime(agentID string) float64 {
	byID, ok := h.intents[agentID]
	if !ok || len(byID) == 0 {
		return 0
	}
	var last float64
	for _, i := range byID {
		if i.TEnd > last {
			last = i.TEnd
		}
	}
	return last
}

// Views returns the segment table for telemetry/rendering.
func (h *Handler) Views() SegmentTable {
	return h.views
}
