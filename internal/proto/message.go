package proto

import "encoding/json"

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	ProtocolVersion = 1

	InboundTypeAuth      = "auth"
	InboundTypeJoinRoom  = "join_room"
	InboundTypeLeaveRoom = "leave_room"

	OutboundTypeAuthSuccess       = "auth_success"
	OutboundTypeAuthError         = "auth_error"
	OutboundTypeRoomJoined        = "room_joined"
	OutboundTypeRoomLeft          = "room_left"
	OutboundTypeBroadcast         = "broadcast"
	OutboundTypePrivateMessage    = "private_message"
	OutboundTypeRoomMessage       = "room_message"
	OutboundTypeError             = "error"
	OutboundTypeValidationError   = "validation_error"
	OutboundTypeRateLimitExceeded = "rate_limit_exceeded"
)

// AuthData carries the in-band handshake token.
type AuthData struct {
	Token string `json:"token"`
}

// RoomData requests joining or leaving a room.
type RoomData struct {
	Room string `json:"room"`
}

// Outbound is the envelope for frames sent to the client. Error frames
// carry code/message/details on the envelope itself; everything else
// rides in Data.
type Outbound struct {
	Type    string   `json:"type"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

// UserInfo is the identity echoed back on a successful handshake.
type UserInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsGuest  bool   `json:"is_guest,omitempty"`
}

// AuthSuccessData is the payload of an auth_success frame.
type AuthSuccessData struct {
	User UserInfo `json:"user"`
}

// RoomResultData is the payload of room_joined and room_left frames.
type RoomResultData struct {
	Room    string `json:"room"`
	Success bool   `json:"success"`
}
