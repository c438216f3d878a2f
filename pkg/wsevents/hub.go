// Package wsevents fans process events out to WebSocket clients. It is
// the live-tail surface over pkg/events' in-process Bus: clients
// subscribe to per-process channels and receive each event as JSON, with
// a bounded catch-up replay for late joiners.
package wsevents

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/codeready-toolchain/agentcore/pkg/events"
)

// defaultWriteTimeout bounds a single WebSocket send so one stalled
// client cannot block a broadcast.
const defaultWriteTimeout = 5 * time.Second

// ClientMessage is a message from a WebSocket client.
type ClientMessage struct {
	Action  string `json:"action"`  // "subscribe", "unsubscribe", "catchup", "ping"
	Channel string `json:"channel"` // e.g. events.ProcessChannel(id)
}

// Hub manages WebSocket connections and their channel subscriptions. One
// Hub instance serves the whole runtime.
type Hub struct {
	bus          *events.Bus
	writeTimeout time.Duration

	mu          sync.RWMutex
	connections map[string]*connection

	// channel → pump feeding bus events to subscribed connections. A pump
	// exists while the channel has at least one subscriber.
	pumpMu sync.Mutex
	pumps  map[string]*channelPump
}

type connection struct {
	id            string
	conn          *websocket.Conn
	ctx           context.Context
	cancel        context.CancelFunc
	subscriptions map[string]bool

	writeMu sync.Mutex
}

type channelPump struct {
	sub         *events.Subscription
	subscribers map[string]bool
}

// NewHub creates a Hub over bus.
func NewHub(bus *events.Bus) *Hub {
	return &Hub{
		bus:          bus,
		writeTimeout: defaultWriteTimeout,
		connections:  make(map[string]*connection),
		pumps:        make(map[string]*channelPump),
	}
}

// HandleConnection drives one upgraded WebSocket connection until it
// closes. Called by the HTTP handler after websocket.Accept.
func (h *Hub) HandleConnection(parentCtx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parentCtx)
	c := &connection{
		id:            uuid.NewString(),
		conn:          conn,
		ctx:           ctx,
		cancel:        cancel,
		subscriptions: make(map[string]bool),
	}

	h.mu.Lock()
	h.connections[c.id] = c
	h.mu.Unlock()
	defer h.dropConnection(c)

	h.sendJSON(c, map[string]string{
		"type":          "connection.established",
		"connection_id": c.id,
	})

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid WebSocket message", "connection_id", c.id, "error", err)
			continue
		}
		h.handleClientMessage(c, &msg)
	}
}

// ActiveConnections returns the count of open WebSocket connections.
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) handleClientMessage(c *connection, msg *ClientMessage) {
	switch msg.Action {
	case "subscribe":
		if msg.Channel == "" {
			h.sendJSON(c, map[string]string{"type": "error", "message": "channel is required for subscribe"})
			return
		}
		h.subscribe(c, msg.Channel)
		h.sendJSON(c, map[string]string{
			"type":    "subscription.confirmed",
			"channel": msg.Channel,
		})
		// Auto catch-up: replay buffered events so late subscribers see
		// the process's history so far.
		for _, ev := range h.bus.Catchup(msg.Channel) {
			h.sendEvent(c, ev)
		}

	case "unsubscribe":
		if msg.Channel == "" {
			h.sendJSON(c, map[string]string{"type": "error", "message": "channel is required for unsubscribe"})
			return
		}
		h.unsubscribe(c, msg.Channel)

	case "catchup":
		if msg.Channel == "" {
			h.sendJSON(c, map[string]string{"type": "error", "message": "channel is required for catchup"})
			return
		}
		for _, ev := range h.bus.Catchup(msg.Channel) {
			h.sendEvent(c, ev)
		}

	case "ping":
		h.sendJSON(c, map[string]string{"type": "pong"})
	}
}

// subscribe registers c on channel, starting the bus pump when c is the
// channel's first subscriber.
func (h *Hub) subscribe(c *connection, channel string) {
	c.subscriptions[channel] = true

	h.pumpMu.Lock()
	defer h.pumpMu.Unlock()
	pump, exists := h.pumps[channel]
	if !exists {
		pump = &channelPump{
			sub:         h.bus.Subscribe(channel),
			subscribers: make(map[string]bool),
		}
		h.pumps[channel] = pump
		go h.runPump(channel, pump.sub)
	}
	pump.subscribers[c.id] = true
}

// unsubscribe removes c from channel, closing the bus pump when the last
// subscriber leaves.
func (h *Hub) unsubscribe(c *connection, channel string) {
	delete(c.subscriptions, channel)

	h.pumpMu.Lock()
	defer h.pumpMu.Unlock()
	pump, exists := h.pumps[channel]
	if !exists {
		return
	}
	delete(pump.subscribers, c.id)
	if len(pump.subscribers) == 0 {
		pump.sub.Close()
		delete(h.pumps, channel)
	}
}

// runPump forwards bus events for one channel to its subscribed
// connections until the subscription closes.
func (h *Hub) runPump(channel string, sub *events.Subscription) {
	for ev := range sub.C {
		h.broadcast(channel, ev)
	}
}

func (h *Hub) broadcast(channel string, ev events.Event) {
	h.pumpMu.Lock()
	pump, exists := h.pumps[channel]
	var ids []string
	if exists {
		ids = make([]string, 0, len(pump.subscribers))
		for id := range pump.subscribers {
			ids = append(ids, id)
		}
	}
	h.pumpMu.Unlock()

	h.mu.RLock()
	conns := make([]*connection, 0, len(ids))
	for _, id := range ids {
		if c, ok := h.connections[id]; ok {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.sendEvent(c, ev)
	}
}

func (h *Hub) dropConnection(c *connection) {
	for channel := range c.subscriptions {
		h.unsubscribe(c, channel)
	}
	h.mu.Lock()
	delete(h.connections, c.id)
	h.mu.Unlock()
	c.cancel()
}

func (h *Hub) sendEvent(c *connection, ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("failed to marshal event for WebSocket", "event_type", ev.Type, "error", err)
		return
	}
	h.sendRaw(c, data)
}

func (h *Hub) sendJSON(c *connection, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("failed to marshal WebSocket payload", "error", err)
		return
	}
	h.sendRaw(c, data)
}

func (h *Hub) sendRaw(c *connection, data []byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(c.ctx, h.writeTimeout)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Warn("failed to send to WebSocket client", "connection_id", c.id, "error", err)
	}
}
