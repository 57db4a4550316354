package server

import (
	"encoding/json"
	"sync"

	"fake-artist/internal/game"

	"github.com/rs/zerolog"
)

type outboundFrame struct {
	Event   string     `json:"event"`
	Payload game.Event `json:"payload"`
}

func encodeEvent(ev game.Event) ([]byte, error) {
	return json.Marshal(outboundFrame{Event: ev.EventName(), Payload: ev})
}

// Hub tracks connected clients and the rooms they are subscribed to. It
// implements game.Broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]struct{}
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]struct{}),
		log:     log.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

// unregister drops the client from every room and closes its send queue.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.id] != c {
		return
	}
	delete(h.clients, c.id)
	for code, members := range h.rooms {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
	close(c.send)
}

func (h *Hub) ToRoom(code string, ev game.Event) {
	data, err := encodeEvent(ev)
	if err != nil {
		h.log.Error().Err(err).Str("event", ev.EventName()).Msg("encode event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.rooms[code] {
		if c, ok := h.clients[id]; ok {
			c.enqueue(data)
		}
	}
}

func (h *Hub) ToClient(clientID string, ev game.Event) {
	data, err := encodeEvent(ev)
	if err != nil {
		h.log.Error().Err(err).Str("event", ev.EventName()).Msg("encode event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[clientID]; ok {
		c.enqueue(data)
	}
}

func (h *Hub) Subscribe(code, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[clientID]; !ok {
		return
	}
	members := h.rooms[code]
	if members == nil {
		members = make(map[string]struct{})
		h.rooms[code] = members
	}
	members[clientID] = struct{}{}
}

func (h *Hub) Unsubscribe(code, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.rooms[code]
	delete(members, clientID)
	if len(members) == 0 {
		delete(h.rooms, code)
	}
}

func (h *Hub) CloseRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, code)
}

func (h *Hub) members(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}
