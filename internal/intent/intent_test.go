package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nanosatlab/aeodss/internal/vector"
)

func newTestIntent(agentID string, tStart, tEnd float64) Intent {
	i := New(agentID, tStart, tEnd, 10)
	i.Positions[tStart] = vector.Vector2{X: tStart, Y: 0}
	i.Positions[tEnd] = vector.Vector2{X: tEnd, Y: 0}
	return i
}

// TestProcessReceived_Idempotent is Testable Property 8: applying the same
// received intent table twice yields the same local state as applying it
// once.
func TestProcessReceived_Idempotent(t *testing.T) {
	h := NewHandler("agent-a")
	peer := newTestIntent("agent-b", 10, 20)
	table := Table{"agent-b": {peer.ID: peer}}

	h.ProcessReceived(table)
	after1 := h.GetIntents()

	h.ProcessReceived(table)
	after2 := h.GetIntents()

	assert.Equal(t, after1, after2)
	assert.Len(t, after2["agent-b"], 1)
}

func TestProcessReceived_NeverOverwritesExisting(t *testing.T) {
	h := NewHandler("agent-a")
	own := newTestIntent("agent-a", 0, 10)
	h.CreateIntent(own)

	stale := own
	stale.TEnd = 999 // a "newer" copy of the same id gossiped back
	table := Table{"agent-a": {stale.ID: stale}}
	h.ProcessReceived(table)

	got := h.GetIntents()["agent-a"][own.ID]
	assert.Equal(t, 10.0, got.TEnd, "first-write-wins: existing entry must not be replaced")
}

// TestGossipConvergence is scenario S5: two agents, each with one disjoint
// intent, exchange once; both tables contain both intents; a second
// exchange is a no-op.
func TestGossipConvergence(t *testing.T) {
	a := NewHandler("agent-a")
	b := NewHandler("agent-b")

	ia := newTestIntent("agent-a", 0, 10)
	ib := newTestIntent("agent-b", 20, 30)
	a.CreateIntent(ia)
	b.CreateIntent(ib)

	pktFromA := a.GetIntents()
	pktFromB := b.GetIntents()
	a.ProcessReceived(pktFromB)
	b.ProcessReceived(pktFromA)

	assert.Len(t, a.GetIntents(), 2)
	assert.Len(t, b.GetIntents(), 2)

	beforeA := a.GetIntents()
	beforeB := b.GetIntents()
	a.ProcessReceived(pktFromB)
	b.ProcessReceived(pktFromA)
	assert.Equal(t, beforeA, a.GetIntents())
	assert.Equal(t, beforeB, b.GetIntents())
}

func TestIntent_PositionAtInterpolates(t *testing.T) {
	i := newTestIntent("agent-a", 0, 10)
	p := i.PositionAt(5)
	assert.InDelta(t, 5, p.X, 1e-9)
}

func TestIntent_PositionAtClampsOutsideRange(t *testing.T) {
	i := newTestIntent("agent-a", 0, 10)
	assert.Equal(t, i.Positions[0.0], i.PositionAt(-5))
	assert.Equal(t, i.Positions[10.0], i.PositionAt(50))
}

func TestHandler_IntentCountAndActiveAt(t *testing.T) {
	h := NewHandler("agent-a")
	h.CreateIntent(newTestIntent("agent-a", 0, 10))
	h.CreateIntent(newTestIntent("agent-a", 20, 30))

	assert.Equal(t, 2, h.IntentCount("agent-a", 0))
	assert.True(t, h.IsActiveAt(5))
	assert.False(t, h.IsActiveAt(15))
	assert.True(t, h.IsActiveAt(25))
}

func TestHandler_LastIntentTime(t *testing.T) {
	h := NewHandler("agent-a")
	assert.Equal(t, 0.0, h.LastIntentTime("agent-a"))
	h.CreateIntent(newTestIntent("agent-a", 0, 10))
	h.CreateIntent(newTestIntent("agent-a", 20, 30))
	assert.Equal(t, 30.0, h.LastIntentTime("agent-a"))
}

func TestHandler_GetIntentsFilteredRespectsExclude(t *testing.T) {
	h := NewHandler("agent-a")
	i1 := newTestIntent("agent-a", 0, 10)
	h.CreateIntent(i1)

	exclude := Table{"agent-a": {i1.ID: i1}}
	got := h.GetIntentsFiltered(Opts{Filter: SelectAll}, exclude)
	assert.Empty(t, got["agent-a"])
}
