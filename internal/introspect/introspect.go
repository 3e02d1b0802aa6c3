// Package introspect exposes a read-only view of a running interpreter's
// level stack over a websocket, for external tooling (a debugger UI, a
// test harness watching trampoline state). It never mutates the
// interpreter — spec.md §9's "no hidden singletons, pass an Interpreter
// handle explicitly" is much easier to verify when something external can
// watch the level stack live rather than trusting code review alone.
//
// Grounded on sentra/internal/network/websocket.go's WebSocketServer
// (gorilla/websocket Upgrader, a per-client connection registry, a
// broadcast loop) merged with sentra/internal/debugger/debugger.go's
// frame-inspection shape (walk a call-stack snapshot into a serializable
// form) — same transport, new payload.
package introspect

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kr/pretty"

	"github.com/wyrd-lang/wyrd/internal/eval"
)

// LevelSnapshot is one level stack frame's read-only, JSON-safe view.
type LevelSnapshot struct {
	Depth int    `json:"depth"`
	Label string `json:"label,omitempty"`
	State int    `json:"state"`
}

// Snapshot is a full level-stack dump at one instant.
type Snapshot struct {
	Ticks  int64           `json:"ticks"`
	Levels []LevelSnapshot `json:"levels"`
}

// Snapshotter builds a Snapshot from an interpreter. Kept as a function
// value rather than a direct *eval.Interp field so a Server can be handed
// a fresh snapshot function per interpreter it watches without this
// package importing anything beyond eval's already-exported Levels().
type Snapshotter func() Snapshot

// FromInterp builds a Snapshotter reading in's live level stack.
func FromInterp(in *eval.Interp) Snapshotter {
	var ticks int64
	return func() Snapshot {
		ticks++
		levels := in.Levels()
		out := make([]LevelSnapshot, len(levels))
		for i, l := range levels {
			label := ""
			if l.Label != nil {
				label = l.Label.Name()
			}
			out[i] = LevelSnapshot{Depth: i, Label: label, State: l.State}
		}
		return Snapshot{Ticks: ticks, Levels: out}
	}
}

// DumpSnapshot renders snap field-by-field for a terminal, the CLI's
// fallback to the websocket stream when nothing is listening on the other
// end of Server (e.g. `wyrd -v`'s one-shot debug dump).
func DumpSnapshot(snap Snapshot) string {
	return fmt.Sprintf("%# v", pretty.Formatter(snap))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server streams Snapshot JSON frames to every connected client at a
// fixed interval, the same per-client-registry/broadcast shape as the
// teacher's WebSocketServer.
type Server struct {
	snapshot Snapshotter
	interval time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewServer creates a streaming introspection server reading snapshot on
// each tick.
func NewServer(snapshot Snapshotter, interval time.Duration) *Server {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Server{snapshot: snapshot, interval: interval, clients: make(map[*websocket.Conn]bool)}
}

// ServeHTTP upgrades the connection and registers it for broadcast.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("introspect: upgrade failed: %v", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	// Drain (and discard) anything the client sends — this channel is
	// read-only from the host's perspective; this read loop only exists to
	// detect the client disconnecting.
	go func() {
		defer s.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// Run broadcasts a snapshot to every connected client every interval,
// until ctx-like stop channel is closed by the caller closing stop.
func (s *Server) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.broadcast()
		}
	}
}

func (s *Server) broadcast() {
	snap := s.snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("introspect: marshal snapshot: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}
