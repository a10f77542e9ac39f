package broker

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/PolycarpusTack/Alexandria-sub001/internal/proto"
)

// HandlerFunc is an application-defined handler for an extension frame
// type. A non-nil return value is sent back to the originating client.
type HandlerFunc func(ctx context.Context, c *Client, data json.RawMessage) *proto.Outbound

// Router parses inbound frames, validates them, applies the rate limit
// and auth guard, and dispatches to built-in or registered handlers.
// Protocol failures are answered in-line; the connection stays open.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	gate        *Gate
	limiter     *RateLimiter
	rooms       *RoomDirectory
	bridge      *EventBridge
	requireAuth bool
	log         *zerolog.Logger
}

// NewRouter wires the dispatch pipeline.
func NewRouter(gate *Gate, limiter *RateLimiter, rooms *RoomDirectory, bridge *EventBridge, requireAuth bool, logger *zerolog.Logger) *Router {
	return &Router{
		handlers:    make(map[string]HandlerFunc),
		gate:        gate,
		limiter:     limiter,
		rooms:       rooms,
		bridge:      bridge,
		requireAuth: requireAuth,
		log:         logger,
	}
}

// RegisterHandler associates a frame type with a handler. Registering
// the same type again replaces the previous handler.
func (r *Router) RegisterHandler(frameType string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[frameType] = handler
}

func (r *Router) handler(frameType string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[frameType]
	return h, ok
}

// Dispatch processes one raw inbound frame for the client. Frames from
// one client arrive here strictly in connection order.
func (r *Router) Dispatch(ctx context.Context, c *Client, raw []byte) {
	var inbound proto.Inbound
	if err := json.Unmarshal(raw, &inbound); err != nil {
		r.log.Debug().Err(err).Str("client_id", c.ID).Msg("unparsable frame")
		r.reply(c, proto.Outbound{
			Type:    proto.OutboundTypeError,
			Error:   ErrCodeInvalidFormat,
			Message: MsgInvalidFormat,
		})
		return
	}

	if inbound.Type == "" {
		r.reply(c, validationError("type"))
		return
	}

	if !r.limiter.Allow(c) {
		r.log.Debug().Str("client_id", c.ID).Msg("rate limit exceeded")
		r.reply(c, proto.Outbound{Type: proto.OutboundTypeRateLimitExceeded})
		return
	}

	c.Touch()
	r.bridge.Emit(LifecycleEvent{Kind: EventMessage, ClientID: c.ID, Message: raw})

	// Auth frames are exempt from the authentication guard.
	if inbound.Type == proto.InboundTypeAuth {
		r.dispatchAuth(ctx, c, inbound.Data)
		return
	}

	if r.requireAuth && !r.gate.RequireAuthenticated(c) {
		r.reply(c, proto.Outbound{
			Type:    proto.OutboundTypeError,
			Error:   ErrCodeAuthRequired,
			Message: MsgAuthRequired,
		})
		return
	}

	switch inbound.Type {
	case proto.InboundTypeJoinRoom:
		r.dispatchRoom(c, sanitizePayload(inbound.Data), true)
	case proto.InboundTypeLeaveRoom:
		r.dispatchRoom(c, sanitizePayload(inbound.Data), false)
	default:
		handler, ok := r.handler(inbound.Type)
		if !ok {
			// Unknown extension types are accepted silently.
			return
		}
		if response := handler(ctx, c, sanitizePayload(inbound.Data)); response != nil {
			r.reply(c, *response)
		}
	}
}

func (r *Router) dispatchAuth(ctx context.Context, c *Client, data json.RawMessage) {
	var auth proto.AuthData
	if err := json.Unmarshal(data, &auth); err != nil || auth.Token == "" {
		r.reply(c, validationError("token"))
		return
	}

	outcome := r.gate.HandleAuthFrame(ctx, c, auth.Token)
	if !outcome.OK {
		r.reply(c, proto.Outbound{
			Type:    proto.OutboundTypeAuthError,
			Error:   outcome.Code,
			Message: outcome.Message,
		})
		return
	}

	r.reply(c, proto.Outbound{
		Type: proto.OutboundTypeAuthSuccess,
		Data: proto.AuthSuccessData{
			User: proto.UserInfo{
				ID:       outcome.Identity.ID,
				Username: outcome.Identity.Username,
				IsGuest:  outcome.Identity.IsGuest,
			},
		},
	})
}

func (r *Router) dispatchRoom(c *Client, data json.RawMessage, join bool) {
	var room proto.RoomData
	if err := json.Unmarshal(data, &room); err != nil || room.Room == "" {
		r.reply(c, validationError("room"))
		return
	}

	if join {
		r.rooms.Join(c.ID, room.Room)
		r.reply(c, proto.Outbound{
			Type: proto.OutboundTypeRoomJoined,
			Data: proto.RoomResultData{Room: room.Room, Success: true},
		})
		return
	}

	left := r.rooms.Leave(c.ID, room.Room)
	r.reply(c, proto.Outbound{
		Type: proto.OutboundTypeRoomLeft,
		Data: proto.RoomResultData{Room: room.Room, Success: left},
	})
}

func (r *Router) reply(c *Client, frame proto.Outbound) {
	if !c.Send(frame) {
		r.log.Debug().Str("client_id", c.ID).Str("type", frame.Type).Msg("reply dropped")
	}
}

func validationError(fields ...string) proto.Outbound {
	return proto.Outbound{
		Type:    proto.OutboundTypeValidationError,
		Error:   ErrCodeValidationFailed,
		Details: fields,
	}
}
