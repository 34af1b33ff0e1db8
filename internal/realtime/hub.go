package realtime

import (
	"sync"

	"intervuex/internal/models"
)

// Hub manages the session rooms held by this instance.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*Room)} }

// Join adds c to the session room, creating the room when needed. Creation and join happen
// under the hub lock so a concurrent Release cannot drop the room in between.
func (h *Hub) Join(id string, c *Client) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[id]
	if !ok {
		r = NewRoom(id)
		h.rooms[id] = r
	}
	r.Join(c)
	return r
}

// Release removes c from the session room and drops the room once empty.
func (h *Hub) Release(id string, c *Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[id]
	if !ok {
		return 0
	}
	left := r.Leave(c)
	if left == 0 {
		delete(h.rooms, id)
	}
	return left
}

func (h *Hub) Room(id string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[id]
	return r, ok
}

// Deliver turns a session event into frames for the local room, if any. It returns the number
// of frames written.
func (h *Hub) Deliver(event models.SessionEvent) int {
	room, ok := h.Room(event.SessionID)
	if !ok {
		return 0
	}
	sent := 0
	for _, frame := range FramesFor(event) {
		sent += room.Broadcast(event.Audience, frame)
	}
	return sent
}

// FramesFor maps an event to the frames clients receive. A recorded violation becomes a
// violation frame followed by the updated integrity score.
func FramesFor(event models.SessionEvent) []Frame {
	if event.Type == models.EventViolationRecorded {
		return []Frame{
			{Type: FrameViolation, Data: event.Payload["violation"]},
			{Type: FrameIntegrity, Data: map[string]any{
				"sessionId":      event.SessionID,
				"integrityScore": event.Payload["integrityScore"],
			}},
		}
	}
	return []Frame{{Type: FrameLifecycle, Data: map[string]any{
		"event":     event.Type,
		"sessionId": event.SessionID,
		"payload":   event.Payload,
		"at":        event.At,
	}}}
}
