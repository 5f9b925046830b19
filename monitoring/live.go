package monitoring

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sarchlab/lifpace/pacer"
	"github.com/sarchlab/lifpace/sim/hooking"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveEvent is pushed to the websocket clients on every spike and pace.
type LiveEvent struct {
	Kind  string `json:"kind"`
	Where string `json:"where"`
	Tick  uint64 `json:"tick"`
	V     int32  `json:"v"`
	Theta int32  `json:"theta"`
	Fate  string `json:"fate,omitempty"`
}

// LiveHub fans pacer events out to websocket clients. It is both the
// websocket endpoint and a hook.
type LiveHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewLiveHub creates a hub with no clients.
func NewLiveHub() *LiveHub {
	return &LiveHub{conns: make(map[*websocket.Conn]bool)}
}

// NumClients returns the number of connected clients.
func (h *LiveHub) NumClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.conns)
}

func (h *LiveHub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *LiveHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *LiveHub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}

	return clients
}

// ServeHTTP upgrades the request and keeps the client until it disconnects.
func (h *LiveHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.add(conn)
	defer func() {
		h.remove(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Func pushes spike and pace events.
func (h *LiveHub) Func(ctx hooking.HookCtx) {
	var kind string

	switch ctx.Pos {
	case pacer.HookPosSpike:
		kind = "spike"
	case pacer.HookPosPace:
		kind = "pace"
	default:
		return
	}

	if h.NumClients() == 0 {
		return
	}

	t := ctx.Item.(pacer.Trace)
	evt := LiveEvent{Kind: kind, Tick: t.Tick, V: t.V, Theta: t.Theta}

	if d, ok := ctx.Domain.(interface{ Name() string }); ok {
		evt.Where = d.Name()
	}

	switch {
	case kind == "pace":
		evt.Fate = t.CaptureLabel()
	case t.Sensed:
		evt.Fate = "sensed"
	case t.Ignored:
		evt.Fate = "ignored"
	}

	b, err := json.Marshal(evt)
	if err != nil {
		log.Panic(err)
	}

	h.broadcastText(b)
}

func (h *LiveHub) broadcastText(b []byte) {
	for _, c := range h.snapshot() {
		_ = c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = c.Close()
			h.remove(c)
		}
	}
}

// CloseAll disconnects every client.
func (h *LiveHub) CloseAll() {
	for _, c := range h.snapshot() {
		_ = c.Close()
		h.remove(c)
	}
}
