package broker

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Registry owns the set of connected clients. Ids are generated at
// admission time and never reused.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client

	rooms      *RoomDirectory
	bridge     *EventBridge
	sendBuffer int
	log        *zerolog.Logger
}

// NewRegistry builds a registry that detaches removed clients from the
// given room directory and reports lifecycle events to the bridge.
func NewRegistry(rooms *RoomDirectory, bridge *EventBridge, sendBuffer int, logger *zerolog.Logger) *Registry {
	return &Registry{
		clients:    make(map[string]*Client),
		rooms:      rooms,
		bridge:     bridge,
		sendBuffer: sendBuffer,
		log:        logger,
	}
}

// Admit creates a client in the unauthenticated state and emits a
// connection event.
func (r *Registry) Admit() *Client {
	client := NewClient(uuid.NewString(), r.sendBuffer)

	r.mu.Lock()
	r.clients[client.ID] = client
	r.mu.Unlock()

	r.log.Debug().Str("client_id", client.ID).Msg("client admitted")
	r.bridge.Emit(LifecycleEvent{Kind: EventConnection, ClientID: client.ID})
	return client
}

// Remove detaches the client from all rooms, releases its transport and
// emits a disconnection event. Calling it again for the same id is a no-op.
func (r *Registry) Remove(clientID string) {
	r.mu.Lock()
	client, ok := r.clients[clientID]
	if ok {
		delete(r.clients, clientID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	r.rooms.RemoveClientFromAllRooms(clientID)
	client.Close()

	r.log.Debug().Str("client_id", clientID).Msg("client removed")
	r.bridge.Emit(LifecycleEvent{Kind: EventDisconnection, ClientID: clientID})
}

// Get looks up a client by id.
func (r *Registry) Get(clientID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[clientID]
	return client, ok
}

// All returns a snapshot of the connected clients, safe to iterate
// while admissions and removals happen concurrently.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

// Count returns the number of currently admitted clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
