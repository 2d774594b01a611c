// Package ws fans persisted chat messages out to WebSocket subscribers.
// Subscriptions are per channel id; the hub owns all shared state and is
// driven by a single goroutine, so no locking is needed.
package ws

import "github.com/google/uuid"

type clientSet map[*Client]bool

type broadcast struct {
	channelID uuid.UUID
	payload   []byte
}

type Hub struct {
	channels map[uuid.UUID]clientSet

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcast
}

func NewHub() *Hub {
	return &Hub{
		channels:   make(map[uuid.UUID]clientSet),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcast, 64),
	}
}

// Run processes registrations and broadcasts until the process exits.
// Call it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.channels[client.channelID]
			if !ok {
				set = make(clientSet)
				h.channels[client.channelID] = set
			}
			set[client] = true

		case client := <-h.unregister:
			h.drop(client)

		case b := <-h.broadcast:
			for client := range h.channels[b.channelID] {
				select {
				case client.send <- b.payload:
				default:
					// A full send buffer means the client is not
					// keeping up; drop it rather than block the hub.
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	set, ok := h.channels[client.channelID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.channels, client.channelID)
	}
	close(client.send)
}

// Broadcast queues payload for every subscriber of the channel. Safe to
// call from any goroutine.
func (h *Hub) Broadcast(channelID uuid.UUID, payload []byte) {
	h.broadcast <- broadcast{channelID: channelID, payload: payload}
}
