// Package telemetry realizes spec.md §6's "Rendering: consumes read-only
// snapshots" external interface concretely: a websocket fan-out of
// sim.Snapshot, never reading simulation state back.
package telemetry

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/nanosatlab/aeodss/internal/sim"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Broadcaster fans a Snapshot out to every connected websocket client once
// per tick. It never reads simulation state back.
type Broadcaster struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]struct{}
	published atomic.Int64
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[*websocket.Conn]struct{})}
}

// Published returns the number of snapshots broadcast so far. Backed by
// go.uber.org/atomic so a status handler on another goroutine can read it
// without taking the client-map lock.
func (b *Broadcaster) Published() int64 {
	return b.published.Load()
}

// HandleWS upgrades an HTTP request to a websocket connection and registers
// it as a broadcast target until it disconnects.
func (b *Broadcaster) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry: websocket upgrade failed")
		return
	}
	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	go func() {
		defer b.remove(conn)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
}

func (b *Broadcaster) remove(conn *websocket.Conn) {
	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	conn.Close()
}

// Publish serializes s to JSON and writes it to every connected client,
// dropping (and unregistering) any client whose write fails.
func (b *Broadcaster) Publish(s sim.Snapshot) {
	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(s); err != nil {
			b.remove(c)
		}
	}
	b.published.Inc()
}
