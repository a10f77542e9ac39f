package broker

import (
	"github.com/rs/zerolog"

	"github.com/PolycarpusTack/Alexandria-sub001/internal/proto"
)

// Broadcaster fans frames out to one client, all clients or a room's
// members. Every send is a non-blocking queue onto the recipient's
// outbound channel, so a stalled recipient never delays the others.
type Broadcaster struct {
	registry *Registry
	rooms    *RoomDirectory
	log      *zerolog.Logger
}

// NewBroadcaster builds a broadcaster over the registry and directory.
func NewBroadcaster(registry *Registry, rooms *RoomDirectory, logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, rooms: rooms, log: logger}
}

// SendToClient delivers one frame best-effort. Absent or closed
// clients are silently skipped.
func (b *Broadcaster) SendToClient(clientID string, frame proto.Outbound) {
	client, ok := b.registry.Get(clientID)
	if !ok {
		return
	}
	if !client.Send(frame) {
		b.log.Debug().Str("client_id", clientID).Str("type", frame.Type).Msg("frame dropped")
	}
}

// Broadcast delivers the frame to every client admitted at call time.
func (b *Broadcaster) Broadcast(frame proto.Outbound) {
	for _, client := range b.registry.All() {
		if !client.Send(frame) {
			b.log.Debug().Str("client_id", client.ID).Str("type", frame.Type).Msg("frame dropped")
		}
	}
}

// BroadcastToRoom delivers the frame to the room's current members only.
func (b *Broadcaster) BroadcastToRoom(room string, frame proto.Outbound) {
	for _, clientID := range b.rooms.MembersOf(room) {
		b.SendToClient(clientID, frame)
	}
}
