package broker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/PolycarpusTack/Alexandria-sub001/internal/proto"
)

// Options configures a Broker.
type Options struct {
	// RequireAuth guards every non-auth frame behind the handshake.
	RequireAuth bool
	// RateLimit allows at most MaxMessages frames per Window per
	// client. Zero values disable the limiter.
	MaxMessages int
	Window      time.Duration
	// SendBuffer is the per-client outbound queue size.
	SendBuffer int
	// EventBuffer is the lifecycle event queue size.
	EventBuffer int
}

// Broker is the connection and room-messaging core: it admits clients,
// routes their frames and fans out broadcasts. All failures are scoped
// to the offending connection.
type Broker struct {
	registry *Registry
	rooms    *RoomDirectory
	limiter  *RateLimiter
	gate     *Gate
	cast     *Broadcaster
	bridge   *EventBridge
	router   *Router
	log      *zerolog.Logger
}

// New wires the broker components over the external token capabilities.
func New(validator TokenValidator, resolver UserResolver, opts Options, logger *zerolog.Logger) *Broker {
	rooms := NewRoomDirectory()
	bridge := NewEventBridge(opts.EventBuffer, logger)
	registry := NewRegistry(rooms, bridge, opts.SendBuffer, logger)

	limiter := NewRateLimiter()
	limiter.Configure(opts.MaxMessages, opts.Window)

	gate := NewGate(validator, resolver, logger)
	router := NewRouter(gate, limiter, rooms, bridge, opts.RequireAuth, logger)

	return &Broker{
		registry: registry,
		rooms:    rooms,
		limiter:  limiter,
		gate:     gate,
		cast:     NewBroadcaster(registry, rooms, logger),
		bridge:   bridge,
		router:   router,
		log:      logger,
	}
}

// Run delivers lifecycle events until the context is cancelled.
func (b *Broker) Run(ctx context.Context) {
	b.bridge.Run(ctx)
}

// Admit registers a new connection and returns its client record.
func (b *Broker) Admit() *Client {
	return b.registry.Admit()
}

// Remove disconnects the client: detaches it from all rooms, releases
// its transport and emits the disconnection event. Idempotent.
func (b *Broker) Remove(clientID string) {
	b.registry.Remove(clientID)
}

// Dispatch processes one raw inbound frame for the client.
func (b *Broker) Dispatch(ctx context.Context, c *Client, raw []byte) {
	b.router.Dispatch(ctx, c, raw)
}

// RegisterHandler installs an application handler for an extension
// frame type. Last registration wins.
func (b *Broker) RegisterHandler(frameType string, handler HandlerFunc) {
	b.router.RegisterHandler(frameType, handler)
}

// ConfigureRateLimit updates the global limiter policy at runtime.
func (b *Broker) ConfigureRateLimit(maxMessages int, window time.Duration) {
	b.limiter.Configure(maxMessages, window)
}

// SetEventSink installs the lifecycle event subscriber.
func (b *Broker) SetEventSink(sink EventSink) {
	b.bridge.SetSink(sink)
}

// SendToClient delivers a frame to one client, best effort.
func (b *Broker) SendToClient(clientID string, frame proto.Outbound) {
	b.cast.SendToClient(clientID, frame)
}

// Broadcast delivers a frame to every connected client.
func (b *Broker) Broadcast(frame proto.Outbound) {
	b.cast.Broadcast(frame)
}

// BroadcastToRoom delivers a frame to the room's current members.
func (b *Broker) BroadcastToRoom(room string, frame proto.Outbound) {
	b.cast.BroadcastToRoom(room, frame)
}

// Count returns the number of connected clients.
func (b *Broker) Count() int {
	return b.registry.Count()
}

// Clients returns a snapshot of the connected clients.
func (b *Broker) Clients() []*Client {
	return b.registry.All()
}

// Get looks up a client by id.
func (b *Broker) Get(clientID string) (*Client, bool) {
	return b.registry.Get(clientID)
}

// ClientRooms returns the rooms the client belongs to, or
// ErrClientNotFound for unknown ids.
func (b *Broker) ClientRooms(clientID string) ([]string, error) {
	if _, ok := b.registry.Get(clientID); !ok {
		return nil, ErrClientNotFound
	}
	return b.rooms.RoomsOf(clientID), nil
}

// Shutdown closes every live connection through the normal removal
// path. In-flight broadcasts may be partially delivered.
func (b *Broker) Shutdown() {
	for _, client := range b.registry.All() {
		b.registry.Remove(client.ID)
	}
	b.log.Info().Msg("broker shut down")
}
