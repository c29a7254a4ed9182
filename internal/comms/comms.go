// Package comms implements the Communication Medium described in spec.md
// §9's "cyclic ownership" design note, grounded on
// Agent::isVisible/addAgentLink/toggleAgentLink/doCommunicate in
// original_source/prot-2-env-sfml/src/model/Agent.cpp, promoted out of
// Agent so that no agent holds a pointer to another agent.
package comms

import (
	"github.com/rs/zerolog/log"

	"github.com/nanosatlab/aeodss/internal/agent"
)

// linkKey is an unordered pair of agent ids.
type linkKey struct{ a, b string }

func newLinkKey(a, b string) linkKey {
	if a > b {
		a, b = b, a
	}
	return linkKey{a, b}
}

// Medium owns the canonical agent registry and the visibility-link table.
// Agents are looked up by id only; they never hold a pointer to each other.
type Medium struct {
	agents  map[string]*agent.Agent
	order   []string
	visible map[linkKey]bool
}

// New creates an empty Medium.
func New() *Medium {
	return &Medium{
		agents:  make(map[string]*agent.Agent),
		visible: make(map[linkKey]bool),
	}
}

// Register adds an agent to the medium, in stable insertion order.
func (m *Medium) Register(a *agent.Agent) {
	if _, ok := m.agents[a.ID]; ok {
		log.Warn().Str("agent", a.ID).Msg("comms: registering duplicate agent id")
		return
	}
	m.agents[a.ID] = a
	m.order = append(m.order, a.ID)
}

// Agents returns the registered agents in stable order.
func (m *Medium) Agents() []*agent.Agent {
	out := make([]*agent.Agent, len(m.order))
	for i, id := range m.order {
		out[i] = m.agents[id]
	}
	return out
}

// isVisible mirrors Agent::isVisible: true iff the inter-agent distance is
// at most the smaller of the two communication ranges.
func isVisible(a, b *agent.Agent) bool {
	dist := a.Position().Distance(b.Position())
	r := a.Range
	if b.Range < r {
		r = b.Range
	}
	return dist <= r
}

// Tick recomputes pairwise visibility for every agent pair, recording any
// visibility transition in the link table, and performs the delta intent
// exchange once for every pair that is currently visible.
func (m *Medium) Tick() {
	seen := make(map[linkKey]bool, len(m.order)*len(m.order))
	for i := 0; i < len(m.order); i++ {
		for j := i + 1; j < len(m.order); j++ {
			a, b := m.agents[m.order[i]], m.agents[m.order[j]]
			key := newLinkKey(a.ID, b.ID)
			seen[key] = true
			nowVisible := isVisible(a, b)
			wasVisible := m.visible[key]
			if nowVisible != wasVisible {
				m.visible[key] = nowVisible
			}
			if nowVisible {
				m.exchange(a, b)
			}
		}
	}
	for key := range m.visible {
		if !seen[key] {
			delete(m.visible, key)
		}
	}
}

// exchange performs the delta gossip intent exchange between a and b, each
// direction excluding what the receiver already knows, mirroring
// Agent::doCommunicate + Agent::exchangeIntents.
func (m *Medium) exchange(a, b *agent.Agent) {
	aKnows := a.OutgoingIntents(nil)
	bKnows := b.OutgoingIntents(nil)

	aToSend := a.OutgoingIntents(bKnows)
	bToSend := b.OutgoingIntents(aKnows)

	b.ProcessReceivedIntents(aToSend)
	a.ProcessReceivedIntents(bToSend)
}

// IsVisible reports whether two registered agent ids currently see each
// other, for telemetry/tests.
func (m *Medium) IsVisible(aid, bid string) bool {
	return m.visible[newLinkKey(aid, bid)]
}
