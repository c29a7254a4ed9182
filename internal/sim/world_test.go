package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nanosatlab/aeodss/internal/config"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.NAgents = 6
	cfg.WorldWidth, cfg.WorldHeight = 400, 400
	cfg.ModelUnitySize = 10
	cfg.AgentPropagationSize = 60
	return cfg
}

func TestWorld_RunDoesNotPanicAndBoundsResource(t *testing.T) {
	cfg := testConfig()
	w := New(cfg, 99)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		w.Run(ctx, 200)
	})

	for _, a := range w.Agents() {
		assert.GreaterOrEqual(t, a.Resource(), 0.0)
		assert.LessOrEqual(t, a.Resource(), cfg.MaxCapacity)
	}
	assert.Equal(t, 200, w.TickCount())
}

func TestWorld_SnapshotReflectsAgentCount(t *testing.T) {
	cfg := testConfig()
	w := New(cfg, 100)
	ctx := context.Background()
	w.Run(ctx, 5)

	s := w.Snapshot()
	assert.Len(t, s.Agents, cfg.NAgents)
	assert.Equal(t, 5, s.Tick)
}

func TestWorld_AgentsHaveStableIDOrder(t *testing.T) {
	cfg := testConfig()
	w := New(cfg, 101)
	ids := make([]string, len(w.Agents()))
	for i, a := range w.Agents() {
		ids[i] = a.ID
	}
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}
