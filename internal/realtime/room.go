package realtime

import (
	"sync"

	"intervuex/internal/models"
)

// Room holds the connected clients of one interview session.
type Room struct {
	ID      string
	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		clients: make(map[*Client]struct{}),
	}
}

func (r *Room) Join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

func (r *Room) GetClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *Room) Leave(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	return len(r.clients)
}

// Broadcast sends frame to every client the audience includes and returns how many writes
// succeeded. Writes happen outside the room lock; a client whose write fails is dropped.
func (r *Room) Broadcast(audience string, frame Frame) int {
	r.mu.Lock()
	targets := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		if audience == models.AudienceRecruiters && !c.IsRecruiter() {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.Unlock()

	sent := 0
	for _, c := range targets {
		if err := c.Send(frame); err != nil {
			r.Leave(c)
			continue
		}
		sent++
	}
	return sent
}
