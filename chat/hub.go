package chat

import "sync"

// A Subscriber receives events published to rooms it has joined. Deliver
// must not block; a slow subscriber drops events rather than stalling the
// publisher.
type Subscriber interface {
	Deliver(payload []byte)
}

// A Broker fans committed events out to the live connections joined to a
// room. The in-process Hub is the default implementation; a shared broker
// can replace it for multi-instance deployments without touching the action
// handlers.
type Broker interface {
	Join(sub Subscriber, room string)
	Leave(sub Subscriber, room string)
	LeaveAll(sub Subscriber)
	Publish(room string, payload []byte)
	PublishExcept(room string, payload []byte, except Subscriber)
}

// Hub is an in-memory Broker scoped to a single process.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Subscriber]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Subscriber]struct{})}
}

func (h *Hub) Join(sub Subscriber, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.rooms[room]
	if subs == nil {
		subs = make(map[Subscriber]struct{})
		h.rooms[room] = subs
	}
	subs[sub] = struct{}{}
}

func (h *Hub) Leave(sub Subscriber, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[room], sub)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) LeaveAll(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, subs := range h.rooms {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) Publish(room string, payload []byte) {
	h.publish(room, payload, nil)
}

func (h *Hub) PublishExcept(room string, payload []byte, except Subscriber) {
	h.publish(room, payload, except)
}

func (h *Hub) publish(room string, payload []byte, except Subscriber) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[room] {
		if sub == except {
			continue
		}
		sub.Deliver(payload)
	}
}
